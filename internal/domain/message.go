package domain

import "context"

// Message is a raw payload read from a source, with the metadata needed to
// acknowledge it once processed.
type Message struct {
	Payload   Payload
	Topic     string
	Partition int
	Offset    int64

	// Commit acknowledges the message. Nil for sources without acknowledgment.
	Commit func(ctx context.Context) error
}
