package redis

import (
	"fmt"

	"github.com/redis/rueidis"
)

// NewClientForTest creates a Client with the provided rueidis client (test-only).
func NewClientForTest(rc rueidis.Client, prefix string) *Client {
	return &Client{rc: rc, prefix: prefix}
}

// NewStoreForTest creates a generation Store without touching the server (test-only).
func NewStoreForTest(c *Client, index string, gen, dims int) *Store {
	return &Store{
		client:    c,
		index:     index,
		gen:       gen,
		dims:      dims,
		docPrefix: fmt.Sprintf("%s%s:%d:", c.prefix, index, gen),
		ftIndex:   fmt.Sprintf("%s%s:%d:idx", c.prefix, index, gen),
	}
}
