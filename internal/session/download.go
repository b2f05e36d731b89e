package session

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/viant/afs/file"
)

const stampLayout = "2006-01-02T15:04"

var nameReplacer = strings.NewReplacer("/", "_", ".", "_")

// Download archives remotePath on the target with tar and writes the
// .tar.gz into the download directory.  Relative paths are resolved
// against the tracked working directory.
func (s *Session) Download(ctx context.Context, remotePath string) (string, error) {
	if remotePath == "" {
		return "", fmt.Errorf("download: empty path")
	}
	abs := remotePath
	if !strings.HasPrefix(remotePath, "/") && s.cwd != "" {
		abs = path.Clean(s.cwd + "/" + remotePath)
	}

	cmd := fmt.Sprintf("tar cz '%s' 2>/dev/null", abs)
	if s.onlyASCII {
		cmd += "|base64"
	}
	out, err := s.Execute(ctx, cmd)
	if err != nil {
		return "", err
	}

	data := []byte(out)
	if s.onlyASCII {
		armoured := strings.NewReplacer("\n", "", "\r", "").Replace(out)
		data, err = base64.StdEncoding.DecodeString(strings.TrimSpace(armoured))
		if err != nil {
			return "", fmt.Errorf("download %s: decode archive: %w", abs, err)
		}
	}

	dir, err := filepath.Abs(s.downloadDir)
	if err != nil {
		return "", fmt.Errorf("download dir: %w", err)
	}
	if ok, _ := s.storage.Exists(ctx, dir); !ok {
		if err := s.storage.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
			return "", fmt.Errorf("create %s: %w", dir, err)
		}
	}

	fname := s.archivePath(ctx, dir, abs)
	if err := s.storage.Upload(ctx, fname, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("write %s: %w", fname, err)
	}
	s.metrics.Downloaded(int64(len(data)))
	s.inspectArchive(abs, data)

	return fmt.Sprintf("Written contents of %s file to %s", abs, fname), nil
}

// archivePath names the local copy of remotePath, e.g.
// "/home/ctf" -> "<dir>/home_ctf-2016-10-13T15:32.tar.gz".  A name
// already taken gets a "-N" suffix.
func (s *Session) archivePath(ctx context.Context, dir, remotePath string) string {
	base := strings.Trim(nameReplacer.Replace(remotePath), "_")
	if base == "" {
		base = "root"
	}
	base += "-" + s.clock().Format(stampLayout)

	fname := filepath.Join(dir, base+".tar.gz")
	for n := 1; ; n++ {
		if ok, _ := s.storage.Exists(ctx, fname); !ok {
			return fname
		}
		fname = filepath.Join(dir, fmt.Sprintf("%s-%d.tar.gz", base, n))
	}
}

// inspectArchive logs how many entries the archive holds.  Remote tar
// errors are discarded, so an empty or truncated archive is the only
// sign that the path was unreadable.
func (s *Session) inspectArchive(remotePath string, data []byte) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		s.logger.Warn("archive of %s is not gzip (%d bytes): %v", remotePath, len(data), err)
		return
	}
	defer zr.Close()

	tr := tar.NewReader(zr)
	entries := 0
	for {
		_, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.logger.Warn("archive of %s is truncated after %d entries: %v", remotePath, entries, err)
			return
		}
		entries++
	}
	s.logger.Info("archive of %s holds %d entries (%d bytes)", remotePath, entries, len(data))
}
