package checklist

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

type runCommand func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Checklist is the pre-flight gate: it verifies the required tools are on
// PATH and then runs the production checklist subprocess. A non-zero exit
// from either aborts the deployment before any mutating step.
type Checklist struct {
	command []string
	tools   []string
	run     runCommand
	lookup  func(file string) (string, error)
}

func New(command, tools []string) *Checklist {
	return &Checklist{
		command: command,
		tools:   tools,
		run:     execRun,
		lookup:  exec.LookPath,
	}
}

func (c *Checklist) CheckTools(ctx context.Context) error {
	var missing []string
	for _, tool := range c.tools {
		if _, err := c.lookup(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required tools not installed: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Checklist) Run(ctx context.Context) error {
	if len(c.command) == 0 {
		return fmt.Errorf("checklist command not configured")
	}

	output, err := c.run(ctx, c.command[0], c.command[1:]...)
	if err != nil {
		return fmt.Errorf("production checklist failed: %w, output: %s", err, string(output))
	}
	return nil
}
