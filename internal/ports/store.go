package ports

import (
	"context"
	"time"
)

// Store is the key-value collaborator every pool, ledger and association operation runs against.
// Implementations MUST make Move atomic: it reports true only if item was in src and is now in dst, so two
// concurrent movers of the same item can never both succeed.
// Reads of absent keys or members MUST NOT return an error: they return the zero value (or ok == false).
// Any other failure MUST be returned wrapped with types.ErrDataStoreAccess.
type Store interface {
	IsMember(ctx context.Context, set, item string) (bool, error)
	// Add returns true if item was not already a member.
	Add(ctx context.Context, set, item string) (bool, error)
	// AddUnlessMember adds item to set only if it is not a member of exclude, as one atomic step. It returns
	// true if item was added.
	AddUnlessMember(ctx context.Context, set, exclude, item string) (bool, error)
	// Remove returns true if item was a member.
	Remove(ctx context.Context, set, item string) (bool, error)
	Move(ctx context.Context, src, dst, item string) (bool, error)
	// RandomMember returns ok == false when the set is empty.
	RandomMember(ctx context.Context, set string) (item string, ok bool, err error)
	// Scan returns one page of members. A next cursor of 0 means the scan is complete.
	Scan(ctx context.Context, set string, cursor uint64, count int64) (items []string, next uint64, err error)

	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set writes value; ttl == 0 means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete returns true if the key existed.
	Delete(ctx context.Context, key string) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	// HashSet returns the number of fields that were newly created.
	HashSet(ctx context.Context, key string, fields map[string]string) (int64, error)
	// HashGetAll returns nil when the key does not exist.
	HashGetAll(ctx context.Context, key string) (map[string]string, error)
}
