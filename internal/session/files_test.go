package session

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ncerr "gimmeashell/internal/errors"
)

// fixedRandom yields 00 01 02 ... 09 and then fails, so a second marker
// generation would be noticed.
func fixedRandom() *bytes.Reader {
	return bytes.NewReader([]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
}

const testMarker = "-_- o_O 00010203040506070809 O_o -_-"

func TestPrintAllFilesLike(t *testing.T) {
	r := &recorder{reply: func(string) (string, error) {
		return "---- /home/ctf/flag.txt ----\nCTF{omgwtf}\n", nil
	}}
	s, _ := newTestSession(t, r)

	out, err := s.PrintAllFilesLike(context.Background(), ".*flag.*", "/home/ctf/")
	require.NoError(t, err)
	assert.Equal(t, "---- /home/ctf/flag.txt ----\nCTF{omgwtf}\n", out)
	assert.Equal(t,
		`find '/home/ctf/' -regex '.*flag.*' -readable -type f -printf '---- %p ----\n' -exec cat '{}' \; 2>/dev/null`,
		r.last())

	_, err = s.PrintAllFilesLike(context.Background(), ".*", "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(r.last(), "find '.' -regex '.*'"), r.last())
}

func TestReadAllFilesLike_RoundTrip(t *testing.T) {
	m := testMarker
	r := &recorder{reply: func(string) (string, error) {
		return m + "\n/a/x.txt\n" + m + "\nhello\n" + m + "\n/a/y.txt\n" + m + "\nworld\n" + m, nil
	}}
	s, logs := newTestSession(t, r, WithRandom(fixedRandom()))

	files, err := s.ReadAllFilesLike(context.Background(), ".*", "/a")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"/a/x.txt": "hello", "/a/y.txt": "world"}, files)
	assert.Equal(t,
		`find '/a' -regex '.*' -readable -type f -printf '`+m+`\n%p\n`+m+`' -exec cat '{}' \; 2>/dev/null`,
		r.last())
	assert.NotContains(t, logs.String(), "[WRN]")
}

func TestReadAllFilesLike_FindOutput(t *testing.T) {
	m := testMarker
	// What find actually prints: the marker block, then the raw file.
	r := &recorder{reply: func(string) (string, error) {
		return m + "\n/home/ctf/flag.txt\n" + m + "CTF{omgwtf_I_got_a_flag}\n" +
			m + "\n/home/ctf/somedir/real_flag.txt\n" + m + "CTF{jk}\n", nil
	}}
	s, _ := newTestSession(t, r, WithRandom(fixedRandom()))

	files, err := s.ReadAllFilesLike(context.Background(), ".*flag.*", "/home/ctf")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"/home/ctf/flag.txt":              "CTF{omgwtf_I_got_a_flag}",
		"/home/ctf/somedir/real_flag.txt": "CTF{jk}",
	}, files)
}

func TestReadAllFilesLike_TrailingNewlines(t *testing.T) {
	m := testMarker
	r := &recorder{reply: func(string) (string, error) {
		return m + "\n/etc/motd\n" + m + "\nwelcome\n\n", nil
	}}
	s, _ := newTestSession(t, r, WithRandom(fixedRandom()))

	files, err := s.ReadAllFilesLike(context.Background(), ".*motd", "/etc")
	require.NoError(t, err)
	// Only one newline is removed from each end.
	assert.Equal(t, map[string]string{"/etc/motd": "welcome\n"}, files)
}

func TestReadAllFilesLike_MarkerReused(t *testing.T) {
	r := &recorder{}
	s, _ := newTestSession(t, r, WithRandom(fixedRandom()))

	_, err := s.ReadAllFilesLike(context.Background(), ".*", ".")
	require.NoError(t, err)
	first := r.last()

	_, err = s.ReadAllFilesLike(context.Background(), ".*", ".")
	require.NoError(t, err, "second call must not draw new randomness")
	assert.Equal(t, first, r.last())
}

func TestReadAllFilesLike_Malformed(t *testing.T) {
	m := testMarker
	tests := []struct {
		name string
		out  string
		want map[string]string
		warn bool
	}{
		{"empty", "", map[string]string{}, false},
		{"banner only", "Warning: something\n", map[string]string{}, false},
		{"dangling path", m + "\n/a/x\n" + m + "one\n" + m + "\n/a/y\n", map[string]string{"/a/x": "one"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recorder{reply: func(string) (string, error) { return tt.out, nil }}
			s, logs := newTestSession(t, r, WithRandom(fixedRandom()))

			files, err := s.ReadAllFilesLike(context.Background(), ".*", ".")
			require.NoError(t, err)
			assert.Equal(t, tt.want, files)
			assert.Equal(t, tt.warn, strings.Contains(logs.String(), "[WRN]"), logs.String())
		})
	}
}

func TestReadAllFilesLike_NoRandomness(t *testing.T) {
	s, _ := newTestSession(t, &recorder{}, WithRandom(bytes.NewReader(nil)))
	_, err := s.ReadAllFilesLike(context.Background(), ".*", ".")
	assert.Error(t, err)
}

func TestGrepFor(t *testing.T) {
	tests := []struct {
		name       string
		dir        string
		ignoreCase bool
		want       string
	}{
		{"case sensitive", "/home/ctf", false, "grep -r 'CTF' '/home/ctf'"},
		{"ignore case", "/home/ctf", true, "grep -r -i 'CTF' '/home/ctf'"},
		{"default dir", "", false, "grep -r 'CTF' '.'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recorder{reply: func(string) (string, error) { return "./flag.txt:CTF{x}\n", nil }}
			s, _ := newTestSession(t, r)

			out, err := s.GrepFor(context.Background(), "CTF", tt.dir, tt.ignoreCase)
			require.NoError(t, err)
			assert.Equal(t, "./flag.txt:CTF{x}\n", out)
			assert.Equal(t, tt.want, r.last())
		})
	}
}

func TestUpload_NotImplemented(t *testing.T) {
	r := &recorder{}
	s, _ := newTestSession(t, r)
	_, err := s.Upload(context.Background(), "exploit.sh")
	assert.ErrorIs(t, err, ncerr.ErrNotImplemented)
	assert.Empty(t, r.sent)
}
