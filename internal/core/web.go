package core

import (
	"context"

	"gimmeashell/internal/executor"
)

// WebMode drives a webshell or command-injection endpoint over HTTP.
type WebMode struct {
	Runner
	HTTP executor.HTTPConfig
}

// Run builds the HTTP executor and runs the session.
func (m *WebMode) Run(ctx context.Context) error {
	exec, err := executor.NewHTTP(m.HTTP)
	if err != nil {
		return err
	}
	m.Logger.Verbose("%s %s (param %q)", m.HTTP.Method, m.HTTP.URL, m.HTTP.Param)
	return m.run(ctx, exec)
}
