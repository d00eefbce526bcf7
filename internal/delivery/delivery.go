// Package delivery defines the contract for long-running entry points started by main.
package delivery

import "context"

// Delivery is a server or worker that blocks in Serve until it stops.
type Delivery interface {
	Serve(ctx context.Context) error
}
