// Package core is the orchestration layer.  It turns a Config into a
// running shell session: establish the transport, wrap it in an
// executor, build the session and hand it to a capability.
//
// Architecture layers (bottom → top):
//
//	transport  →  executor  →  session  →  capability  →  core  →  cmd (CLI)
//
// The builder in this package is the single dispatch point from a
// Config to a Mode.
package core

import (
	"context"
	"time"

	"gimmeashell/internal/capability"
	"gimmeashell/internal/executor"
	"gimmeashell/internal/session"
	"gimmeashell/util"
)

// closeTimeout bounds the farewell "exit" sent when a session ends,
// including after the run context was cancelled.
const closeTimeout = 2 * time.Second

// Mode represents a complete way of reaching a target (bind shell,
// reverse shell, web shell, SSH, local process).  Each mode owns its
// full lifecycle from connection establishment to teardown.
type Mode interface {
	Run(ctx context.Context) error
}

// Runner is the part every mode shares once it has an executor.
type Runner struct {
	Capability capability.Capability
	Options    []session.Option
	Logger     *util.Logger
}

// run builds a session around exec, drives it with the capability and
// always closes it afterwards.
func (r *Runner) run(ctx context.Context, exec executor.Executor) error {
	opts := append([]session.Option{session.WithLogger(r.Logger)}, r.Options...)
	sess := session.New(exec, opts...)
	sess.Logger().Verbose("session %s started", sess.ID())

	err := r.Capability.Handle(ctx, sess)

	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
	defer cancel()
	if cerr := sess.Close(closeCtx); cerr != nil {
		sess.Logger().Debug("close: %v", cerr)
	}
	sess.Logger().Verbose("session closed")
	return err
}
