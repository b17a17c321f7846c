// Package delivery defines the contract every front-end of the console
// implements, whether it serves HTTP or drives a terminal.
package delivery

import "context"

// Delivery is a runnable front-end. Serve blocks until the front-end stops
// or fails.
type Delivery interface {
	Serve(ctx context.Context) error
}
