package broadcast

import (
	"strings"

	"github.com/dmitrymomot/jobnotify/pkg/identity"
)

// Address names a channel-layer group.
type Address string

const (
	addressPrefix = "notifications."
	userPrefix    = addressPrefix + "user."
	rolePrefix    = addressPrefix + "role."
)

// UserAddress is the group every connection of userID joins.
func UserAddress(userID string) Address {
	return Address(userPrefix + userID)
}

// RoleAddress is the group every connection of a user holding role joins.
func RoleAddress(role string) Address {
	return Address(rolePrefix + role)
}

// AddressesFor returns the groups a connection authenticated as id belongs to.
// The same list is used to join on authentication and to leave on close.
func AddressesFor(id identity.Identity) []Address {
	addrs := []Address{UserAddress(id.UserID)}
	if id.Role != "" {
		addrs = append(addrs, RoleAddress(id.Role))
	}
	return addrs
}

// Scope returns "user", "role" or "other" for a: used as a metric label.
func (a Address) Scope() string {
	switch {
	case strings.HasPrefix(string(a), userPrefix):
		return "user"
	case strings.HasPrefix(string(a), rolePrefix):
		return "role"
	default:
		return "other"
	}
}
