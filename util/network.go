package util

import (
	"fmt"
	"net"
	"strconv"
)

// FormatAddr returns "host:port".
func FormatAddr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// ListenAddr returns the address a reverse-shell listener binds to.  An
// empty host binds every interface.
func ListenAddr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// FindFreePort returns an available TCP port on 127.0.0.1.
func FindFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("finding free port: %w", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
