package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/rueidis"

	"github.com/pathwise-ai/pathwise/internal/domain"
)

// Config holds connection parameters for a Redis-backed index store.
type Config struct {
	Addrs     []string
	Username  string
	Password  string
	DB        int
	KeyPrefix string
}

// Client wraps a rueidis connection shared by all index generations.
type Client struct {
	rc     rueidis.Client
	prefix string
}

// NewClient connects to Redis via rueidis.
func NewClient(cfg Config) (*Client, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	rc, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH result parsing expects RESP2 array format
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "pathwise:"
	}

	return &Client{rc: rc, prefix: prefix}, nil
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	cmd := c.rc.B().Ping().Build()
	if err := c.rc.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// WaitForReady polls Ping until the server responds or timeout expires.
func (c *Client) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := c.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// Close shuts down the connection.
func (c *Client) Close() {
	c.rc.Close()
}

func (c *Client) activeKey(index string) string {
	return c.prefix + index + ":active"
}

// ActiveGeneration returns the generation number serving reads for an index.
func (c *Client) ActiveGeneration(ctx context.Context, index string) (int, error) {
	cmd := c.rc.B().Get().Key(c.activeKey(index)).Build()
	raw, err := c.rc.Do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return 0, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, index)
		}
		return 0, fmt.Errorf("get active generation: %w", err)
	}
	gen, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse active generation %q: %w", raw, err)
	}
	return gen, nil
}

// SetActiveGeneration atomically repoints reads for an index to a generation.
func (c *Client) SetActiveGeneration(ctx context.Context, index string, gen int) error {
	cmd := c.rc.B().Set().Key(c.activeKey(index)).Value(strconv.Itoa(gen)).Build()
	if err := c.rc.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("set active generation: %w", err)
	}
	return nil
}

// DropGeneration deletes a generation's FT index and all its documents.
// Used to reclaim a superseded generation after a rebuild swap.
func (c *Client) DropGeneration(ctx context.Context, index string, gen int) error {
	ftIndex := fmt.Sprintf("%s%s:%d:idx", c.prefix, index, gen)
	cmd := c.b().Arbitrary("FT.DROPINDEX").Args(ftIndex, "DD").Build()
	if err := c.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return nil
		}
		return fmt.Errorf("drop generation %d of %s: %w", gen, index, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return c.rc.Do(ctx, cmd)
}

func (c *Client) b() rueidis.Builder {
	return c.rc.B()
}

// isRedisErr checks if err is a Redis server error containing substr (case-insensitive).
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return containsIgnoreCase(re.Error(), substr)
}

func containsIgnoreCase(s, substr string) bool {
	ls := len(s)
	lsub := len(substr)
	if lsub > ls {
		return false
	}
	for i := 0; i <= ls-lsub; i++ {
		match := true
		for j := 0; j < lsub; j++ {
			sc := s[i+j]
			tc := substr[j]
			if sc >= 'A' && sc <= 'Z' {
				sc += 'a' - 'A'
			}
			if tc >= 'A' && tc <= 'Z' {
				tc += 'a' - 'A'
			}
			if sc != tc {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
