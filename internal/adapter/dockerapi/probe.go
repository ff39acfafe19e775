package dockerapi

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
)

const composeProjectLabel = "com.docker.compose.project"

// DockerClient is the subset of the Docker SDK the probe needs, kept small
// so tests can fake it.
type DockerClient interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
}

// Probe inspects the compose project's containers through the Docker API.
// The readiness poll uses it to tell "stack still starting" from "stack up".
type Probe struct {
	client  DockerClient
	project string
}

func NewProbe(project string) (*Probe, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return &Probe{client: cli, project: project}, nil
}

// AllRunning reports whether every container labeled with the compose
// project is in the running state. No containers at all means not ready;
// compose has not brought the stack up yet.
func (p *Probe) AllRunning(ctx context.Context) (bool, error) {
	labelFilter := filters.NewArgs()
	labelFilter.Add("label", fmt.Sprintf("%s=%s", composeProjectLabel, p.project))

	containers, err := p.client.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: labelFilter,
	})
	if err != nil {
		return false, fmt.Errorf("list containers: %w", err)
	}

	if len(containers) == 0 {
		return false, nil
	}

	for _, ctr := range containers {
		if ctr.State != "running" {
			return false, nil
		}
	}
	return true, nil
}
