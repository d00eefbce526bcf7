// Package lifecycle holds timeouts shared by components started and stopped through fx.
package lifecycle

import "time"

// DefaultTimeout bounds start-up pings and graceful shutdowns.
const DefaultTimeout = 10 * time.Second
