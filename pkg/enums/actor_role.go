package enums

import "fmt"

// ActorRole is the authenticated caller's role as minted by the identity
// provider. The core trusts it as an opaque, already-verified claim.
type ActorRole string

const (
	ActorRoleRequester ActorRole = "requester"
	ActorRoleCarrier   ActorRole = "carrier"
	ActorRoleAdmin     ActorRole = "admin"
)

var validActorRoles = []ActorRole{
	ActorRoleRequester,
	ActorRoleCarrier,
	ActorRoleAdmin,
}

// IsValid reports whether the value is a known ActorRole.
func (r ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
