package idp

import (
	"context"
	"dbuilder/internal/types"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
	log "github.com/sirupsen/logrus"
)

// DefaultRefreshEarly is how long before its exp claim a cached management token is replaced. Tokens issued for
// less than twice that are replaced at half their lifetime instead.
const DefaultRefreshEarly = time.Hour

// ManagementTokenCache holds the current management API token. It is built once per process and shared by
// every request; concurrent callers that find it stale wait for a single fetch.
type ManagementTokenCache struct {
	mu        sync.Mutex
	token     string
	refreshAt time.Time

	fetch func(ctx context.Context) (string, error)
	early time.Duration
	now   func() time.Time
}

func NewManagementTokenCache(fetch func(ctx context.Context) (string, error)) *ManagementTokenCache {
	return &ManagementTokenCache{fetch: fetch, early: DefaultRefreshEarly, now: time.Now}
}

// Token returns the cached token, fetching a new one when none is held or the held one expires within the
// refresh window.
func (c *ManagementTokenCache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Before(c.refreshAt) {
		return c.token, nil
	}
	issued := c.now()
	tok, err := c.fetch(ctx)
	if err != nil {
		return "", err
	}
	exp, err := expiry(tok)
	if err != nil {
		return "", types.Err(types.ErrUpstream, err, "management token is not a JWT")
	}
	window := c.early
	if half := exp.Sub(issued) / 2; half < window {
		window = half
	}
	c.token, c.refreshAt = tok, exp.Add(-window)
	log.WithFields(log.Fields{"expires": exp, "refreshAt": c.refreshAt}).Debug("management token refreshed")
	return tok, nil
}

// Reset drops the held token so the next call fetches a new one.
func (c *ManagementTokenCache) Reset() {
	c.mu.Lock()
	c.token, c.refreshAt = "", time.Time{}
	c.mu.Unlock()
}

// expiry reads the exp claim. The token was just issued to us over TLS and is only forwarded back to its
// issuer, so the signature is not checked here.
func expiry(tok string) (time.Time, error) {
	t, err := jwt.ParseInsecure([]byte(tok))
	if err != nil {
		return time.Time{}, err
	}
	return t.Expiration(), nil
}
