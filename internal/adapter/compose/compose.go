package compose

import (
	"context"
	"fmt"
	"os/exec"
)

// runCommand executes an external command and returns its combined output.
// Injected so tests can record invocations without docker installed.
type runCommand func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Compose drives the docker-compose CLI for the application stack.
type Compose struct {
	binary  string
	file    string
	project string
	run     runCommand
}

func New(binary, file, project string) *Compose {
	return &Compose{
		binary:  binary,
		file:    file,
		project: project,
		run:     execRun,
	}
}

func (c *Compose) args(sub ...string) []string {
	var args []string
	if c.file != "" {
		args = append(args, "-f", c.file)
	}
	if c.project != "" {
		args = append(args, "-p", c.project)
	}
	return append(args, sub...)
}

func (c *Compose) invoke(ctx context.Context, sub ...string) error {
	args := c.args(sub...)
	output, err := c.run(ctx, c.binary, args...)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w, output: %s", c.binary, sub[0], err, string(output))
	}
	return nil
}

// Down stops and removes the currently running container set.
func (c *Compose) Down(ctx context.Context) error {
	return c.invoke(ctx, "down")
}

// Build rebuilds all images from scratch, bypassing the layer cache.
func (c *Compose) Build(ctx context.Context) error {
	return c.invoke(ctx, "build", "--no-cache")
}

// Up starts the container set detached.
func (c *Compose) Up(ctx context.Context) error {
	return c.invoke(ctx, "up", "-d")
}

// Exec runs a command inside a running service container. -T disables TTY
// allocation, which exec needs when driven from a non-interactive process.
func (c *Compose) Exec(ctx context.Context, service string, command ...string) error {
	sub := append([]string{"exec", "-T", service}, command...)
	return c.invoke(ctx, sub...)
}
