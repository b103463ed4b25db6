package publisher

import (
	"context"
)

// Result is what a successful publish returns.
type Result struct {
	PostID string
}

// Publisher is the external publish capability. Implementations perform the
// real-world post action and return the external post identifier, or fail.
// Callers bound the call with a context deadline; implementations must honor it.
type Publisher interface {
	Publish(ctx context.Context, imageURL, caption string) (*Result, error)
}
