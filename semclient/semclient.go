// Package semclient fetches formal per-instruction semantics text for a
// 32-bit AArch64 encoding from an external service (spec §4.2). The core
// only requires that a Client is idempotent within one run and returns
// identical text for identical encodings; transport and retry are entirely
// the implementation's concern.
package semclient

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no semantics are available for an encoding,
// whether because the service genuinely has none or because the request
// failed in a way the core treats identically to "none" (a transport error
// or a timeout, spec §5's "the core treats a timeout as NotFound").
var ErrNotFound = errors.New("semclient: no semantics for encoding")

// Client fetches the formal semantics for one 32-bit instruction encoding.
type Client interface {
	// Fetch returns the ASL-derived function name and its semantics tree
	// text for encoding, or wraps ErrNotFound if none is available.
	Fetch(ctx context.Context, encoding uint32) (name, text string, err error)
}
