package session

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	ncerr "gimmeashell/internal/errors"
)

const findTemplate = `find '%s' -regex '%s' -readable -type f -printf '%s' -exec cat '{}' \; 2>/dev/null`

// PrintAllFilesLike prints every readable file under dir whose path
// matches regex (find(1) -regex syntax), each preceded by a
// "---- <path> ----" line.  dir defaults to ".".
func (s *Session) PrintAllFilesLike(ctx context.Context, regex, dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	return s.Execute(ctx, fmt.Sprintf(findTemplate, dir, regex, `---- %p ----\n`))
}

// ReadAllFilesLike reads every readable file under dir whose path
// matches regex and returns their contents keyed by path.  Output that
// cannot be paired up yields a partial map.  Each content loses one
// leading and one trailing newline, so a file ending in "\n" comes back
// without it.
func (s *Session) ReadAllFilesLike(ctx context.Context, regex, dir string) (map[string]string, error) {
	if dir == "" {
		dir = "."
	}
	marker, err := s.bulkMarker()
	if err != nil {
		return nil, err
	}
	printf := marker + `\n%p\n` + marker
	out, err := s.Execute(ctx, fmt.Sprintf(findTemplate, dir, regex, printf))
	if err != nil {
		return nil, err
	}
	return s.splitMarked(out, marker), nil
}

// splitMarked parses "<M>\n<path>\n<M><content><M>\n<path>\n<M>..."
// as produced by ReadAllFilesLike's find invocation.
func (s *Session) splitMarked(out, marker string) map[string]string {
	parts := strings.Split(out, marker)[1:]
	if len(parts)%2 == 1 {
		if strings.TrimSpace(parts[len(parts)-1]) != "" {
			s.logger.Warn("read files: dropping unpaired trailing chunk of %d bytes", len(parts[len(parts)-1]))
		}
		parts = parts[:len(parts)-1]
	}

	files := make(map[string]string, len(parts)/2)
	for i := 0; i+1 < len(parts); i += 2 {
		content := strings.TrimPrefix(parts[i+1], "\n")
		content = strings.TrimSuffix(content, "\n")
		files[strings.TrimSpace(parts[i])] = content
	}
	return files
}

// GrepFor runs grep -r over dir, optionally case-insensitive, and
// returns grep's output verbatim.
func (s *Session) GrepFor(ctx context.Context, regex, dir string, ignoreCase bool) (string, error) {
	if dir == "" {
		dir = "."
	}
	opts := "-r"
	if ignoreCase {
		opts += " -i"
	}
	return s.Execute(ctx, fmt.Sprintf("grep %s '%s' '%s'", opts, regex, dir))
}

// Upload is not supported over a command-only channel.
func (s *Session) Upload(_ context.Context, _ string) (string, error) {
	return "", ncerr.ErrNotImplemented
}

// bulkMarker returns the session's delimiter for bulk reads, creating
// it on first use.
func (s *Session) bulkMarker() (string, error) {
	if s.marker != "" {
		return s.marker, nil
	}
	var b [10]byte
	if _, err := io.ReadFull(s.random, b[:]); err != nil {
		return "", fmt.Errorf("generate marker: %w", err)
	}
	s.marker = "-_- o_O " + hex.EncodeToString(b[:]) + " O_o -_-"
	return s.marker, nil
}
