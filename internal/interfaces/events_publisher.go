package interfaces

import "context"

// EventPublisher delivers domain events after a ChangeSet has committed.
// Delivery is best-effort; the ledger never rolls back a committed unit
// because publishing failed.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event any) error
}
