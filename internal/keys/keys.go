// Package keys builds the store keys used across the service. Everything owned by a tenant is namespaced as
// "{tenant}:{logicalKey}"; the few global records use a fixed prefix instead.
package keys

import "fmt"

const (
	usableNames = "names:usable"
	inUseNames  = "names:inuse"
	customNames = "names:custom"
	categories  = "categories:whitelisted"

	reservationTemplate = "reservation:%s"

	joinedPrefix     = "joined"
	credentialPrefix = "admin:idp"
	cachePrefix      = "cache"
)

// Tenant formats a tenant-scoped key.
func Tenant(tenant, key string) string {
	return fmt.Sprintf("%s:%s", tenant, key)
}

func Usable(tenant string) string { return Tenant(tenant, usableNames) }
func InUse(tenant string) string  { return Tenant(tenant, inUseNames) }
func Custom(tenant string) string { return Tenant(tenant, customNames) }

func Reservation(tenant, reservationID string) string {
	return Tenant(tenant, fmt.Sprintf(reservationTemplate, reservationID))
}

// Channel is the association key of a channel. Channel ids are numeric snowflakes so they never clash with
// the other logical keys of the tenant.
func Channel(tenant, channelID string) string { return Tenant(tenant, channelID) }

func Categories(tenant string) string { return Tenant(tenant, categories) }

func Joined(tenant string) string { return Tenant(joinedPrefix, tenant) }

func Credentials(identity string) string { return Tenant(credentialPrefix, identity) }

func Cache(key string) string { return Tenant(cachePrefix, key) }
