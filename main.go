// gimmeashell turns a one-shot command channel (bind or reverse shell,
// webshell, SSH exec, local program) into an interactive shell session.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gimmeashell/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "gimmeashell: %v\n", err)
		os.Exit(1)
	}
}
