package adapter

import "context"

// Notifier is the operator side channel for failures and run summaries.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}
