package git

import (
	"context"
	"fmt"
	"os/exec"
)

type runCommand func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Git pulls the deployed branch from the canonical remote.
type Git struct {
	remote string
	branch string
	run    runCommand
}

func New(remote, branch string) *Git {
	return &Git{remote: remote, branch: branch, run: execRun}
}

func (g *Git) Pull(ctx context.Context) error {
	output, err := g.run(ctx, "git", "pull", g.remote, g.branch)
	if err != nil {
		return fmt.Errorf("git pull %s %s failed: %w, output: %s",
			g.remote, g.branch, err, string(output))
	}
	return nil
}
