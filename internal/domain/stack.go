package domain

import "context"

// Stack controls the containerized application set under deployment.
type Stack interface {
	Down(ctx context.Context) error
	Build(ctx context.Context) error
	Up(ctx context.Context) error
	Exec(ctx context.Context, service string, command ...string) error
}

// Source fetches the latest application revision.
type Source interface {
	Pull(ctx context.Context) error
}

// Preflight gates the deployment before any mutating action occurs.
type Preflight interface {
	CheckTools(ctx context.Context) error
	Run(ctx context.Context) error
}

// AdminAPI talks to the running application's administrative endpoints.
type AdminAPI interface {
	SetMaintenance(ctx context.Context, enabled bool) error
	Health(ctx context.Context) (int, error)
	Warm(ctx context.Context, path string) error
}

// ContainerProbe reports whether the deployed container set is up.
type ContainerProbe interface {
	AllRunning(ctx context.Context) (bool, error)
}
