package domain

import "context"

type Database interface {
	Dump(ctx context.Context, outputPath string) error
	GetName() string
	GetType() string
	Ping(ctx context.Context) error
}
