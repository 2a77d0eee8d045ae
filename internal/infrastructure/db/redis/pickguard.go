package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultPickTTL = 5 * time.Second

// releaseScript deletes the key only while it still holds our token, so a
// holder whose TTL ran out cannot free a slot another replica now owns.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// PickGuard serializes random picks per session across API replicas.
// Key format: pick:<session_code>, value: a token unique to the acquire.
type PickGuard struct {
	client *redis.Client
	ttl    time.Duration

	mu     sync.Mutex
	tokens map[string]string
}

// NewPickGuard wraps client. The TTL bounds how long a crashed replica can
// hold a session's pick slot.
func NewPickGuard(client *redis.Client, ttl time.Duration) *PickGuard {
	if ttl <= 0 {
		ttl = defaultPickTTL
	}
	return &PickGuard{client: client, ttl: ttl, tokens: make(map[string]string)}
}

// Acquire reports whether the caller now owns the pick slot for code.
func (g *PickGuard) Acquire(ctx context.Context, code string) (bool, error) {
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, g.key(code), token, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("pick guard acquire: %w", err)
	}
	if ok {
		g.mu.Lock()
		g.tokens[code] = token
		g.mu.Unlock()
	}
	return ok, nil
}

// Release frees the slot if this guard still owns it. Releasing an expired
// or foreign slot is a no-op.
func (g *PickGuard) Release(ctx context.Context, code string) error {
	g.mu.Lock()
	token, ok := g.tokens[code]
	delete(g.tokens, code)
	g.mu.Unlock()
	if !ok {
		return nil
	}

	if err := releaseScript.Run(ctx, g.client, []string{g.key(code)}, token).Err(); err != nil {
		return fmt.Errorf("pick guard release: %w", err)
	}
	return nil
}

func (g *PickGuard) key(code string) string {
	return "pick:" + code
}
