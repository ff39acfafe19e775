package domain

import "context"

type Notifier interface {
	Notify(ctx context.Context, message string) error
	SendFile(ctx context.Context, path string, caption string) error
}
