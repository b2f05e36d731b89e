package core

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gimmeashell/internal/executor"
	"gimmeashell/internal/session"
)

func TestWebMode_Webshell(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cmd := r.URL.Query().Get("c")
		got = append(got, cmd)
		switch {
		case strings.Contains(cmd, "whoami"):
			fmt.Fprint(w, "<pre>www-data\n---next---\n/var/www\n---next---\nweb01\n</pre>")
		case strings.HasSuffix(cmd, "&& id"):
			fmt.Fprint(w, "<pre>uid=33(www-data)\n</pre>")
		}
	}))
	defer srv.Close()

	var out bytes.Buffer
	r := batchRunner(&out, "id", "pwd")
	r.Options = []session.Option{session.WithPost(func(s string) string {
		return strings.TrimSuffix(strings.TrimPrefix(s, "<pre>"), "</pre>")
	})}

	mode := &WebMode{
		Runner: r,
		HTTP:   executor.HTTPConfig{URL: srv.URL + "/shell.php", Param: "c", Method: "GET"},
	}
	if err := mode.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if want := "uid=33(www-data)\n/var/www\n"; out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
	// HTTP is stateless: closing sends nothing.
	if len(got) != 2 {
		t.Errorf("requests = %q, want bootstrap and id only", got)
	}
}

func TestWebMode_BadConfig(t *testing.T) {
	var out bytes.Buffer
	mode := &WebMode{
		Runner: batchRunner(&out, "id"),
		HTTP:   executor.HTTPConfig{URL: "http://127.0.0.1/", Param: "c", Method: "PUT"},
	}
	err := mode.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "method") {
		t.Fatalf("err = %v, want a method error", err)
	}
}
