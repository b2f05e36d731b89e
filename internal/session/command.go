package session

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/shlex"
)

type handler struct {
	minArgs, maxArgs int
	usage            string
	run              func(ctx context.Context, s *Session, args []string) (string, error)
}

func defaultHandlers() map[string]handler {
	closeSession := handler{run: func(ctx context.Context, s *Session, _ []string) (string, error) {
		return "", s.Close(ctx)
	}}
	return map[string]handler{
		":download": {minArgs: 1, maxArgs: 1, usage: "<path>",
			run: func(ctx context.Context, s *Session, args []string) (string, error) {
				return s.Download(ctx, args[0])
			}},
		":printlike": {minArgs: 1, maxArgs: 2, usage: "<regex> [<dir>]",
			run: func(ctx context.Context, s *Session, args []string) (string, error) {
				dir := "."
				if len(args) == 2 {
					dir = args[1]
				}
				return s.PrintAllFilesLike(ctx, args[0], dir)
			}},
		"cd": {maxArgs: 1, usage: "[<dir>]",
			run: func(_ context.Context, s *Session, args []string) (string, error) {
				dir := "~"
				if len(args) == 1 {
					dir = args[0]
				}
				return "", s.ChangeDirectory(dir)
			}},
		"pwd": {run: func(_ context.Context, s *Session, _ []string) (string, error) {
			return s.PrintWorkingDirectory(), nil
		}},
		":stats": {run: func(_ context.Context, s *Session, _ []string) (string, error) {
			return s.metrics.JSON(), nil
		}},
		"exit":  closeSession,
		":exit": closeSession,
	}
}

// Builtins lists the reserved meta-command names.
func (s *Session) Builtins() []string {
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Command splits line like a POSIX shell and dispatches it with
// CommandArgs.
func (s *Session) Command(ctx context.Context, line string) string {
	args, err := shlex.Split(line)
	if err != nil {
		s.logger.Warn("Got error during processing of command: %q\n%v", line, err)
		s.metrics.RecordError(err.Error())
		return ""
	}
	return s.CommandArgs(ctx, args)
}

// CommandArgs runs a meta-command if args[0] names one, otherwise sends
// the space-joined args to the remote shell.  It never fails: errors and
// panics are logged and yield "".
func (s *Session) CommandArgs(ctx context.Context, args []string) (out string) {
	if len(args) == 0 {
		return ""
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("Got panic during processing of command: %q\n%v", args, r)
			s.metrics.RecordError(fmt.Sprint(r))
			out = ""
		}
	}()

	res, err := s.dispatch(ctx, args)
	if err != nil {
		s.logger.Warn("Got error during processing of command: %q\n%v", args, err)
		s.metrics.RecordError(err.Error())
		return ""
	}
	return res
}

func (s *Session) dispatch(ctx context.Context, args []string) (string, error) {
	h, ok := s.handlers[args[0]]
	if !ok {
		return s.Execute(ctx, strings.Join(args, " "))
	}

	params := args[1:]
	if len(params) < h.minArgs || len(params) > h.maxArgs {
		return "", fmt.Errorf("usage: %s %s", args[0], h.usage)
	}
	s.metrics.BuiltinRun()
	s.logger.Debug("builtin %s %q", args[0], params)
	return h.run(ctx, s, params)
}
