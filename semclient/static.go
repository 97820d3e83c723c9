package semclient

import "context"

// entry is one vendored-table row: a name and its semantics tree text.
type entry struct {
	name string
	text string
}

// StaticClient is a map-backed Client for tests and the offline/vendored-
// table deployment mode described in original_source's aslp_bridge.h
// (aslp_lib_interface supports both a live subprocess client and a
// pre-computed table); both are expressed here through the same Client
// interface rather than as separate types.
type StaticClient struct {
	entries map[uint32]entry
}

// NewStaticClient builds an empty table; use Add to populate it.
func NewStaticClient() *StaticClient {
	return &StaticClient{entries: make(map[uint32]entry)}
}

// Add registers the semantics text for one encoding.
func (c *StaticClient) Add(encoding uint32, name, text string) *StaticClient {
	c.entries[encoding] = entry{name: name, text: text}
	return c
}

// Fetch implements Client.
func (c *StaticClient) Fetch(_ context.Context, encoding uint32) (string, string, error) {
	e, ok := c.entries[encoding]
	if !ok {
		return "", "", ErrNotFound
	}
	return e.name, e.text, nil
}
