package main

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	logx "quest/pkg/logx"
)

// execSink runs a job's "command" input through the shell. It is the
// daemon's default execution sink; library users plug in their own.
type execSink struct {
	log logx.Logger
}

func newExecSink(log logx.Logger) execSink { return execSink{log: log} }

func (s execSink) Execute(ctx context.Context, name string, inputs map[string]any) (any, error) {
	cmdStr, _ := inputs["command"].(string)
	if strings.TrimSpace(cmdStr) == "" {
		return nil, fmt.Errorf("job %q has no command input", name)
	}
	s.log.Debug("exec", logx.String("job", name), logx.String("command", cmdStr))

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", cmdStr)
	out, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(out))
	if err != nil {
		if output != "" {
			return output, fmt.Errorf("%w: %s", err, output)
		}
		return nil, err
	}
	return output, nil
}
