package domain

import "fmt"

// Role names a membership set in the role registry.
type Role string

const (
	// RoleAdmin administers membership of every role, including itself.
	// Holding it grants no operational capability.
	RoleAdmin Role = "admin"
	// RoleProofWhitelisted permits creating proofs.
	RoleProofWhitelisted Role = "proof_whitelisted"
	// RoleConfirmWhitelisted permits confirming proofs.
	RoleConfirmWhitelisted Role = "confirm_whitelisted"
)

var knownRoles = map[Role]bool{
	RoleAdmin:              true,
	RoleProofWhitelisted:   true,
	RoleConfirmWhitelisted: true,
}

// ParseRole validates a role name from transport input.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !knownRoles[r] {
		return "", fmt.Errorf("unknown role: %s", s)
	}
	return r, nil
}

func (r Role) String() string {
	return string(r)
}

// AdminOf returns the role whose members may grant and revoke r.
// Every role, RoleAdmin included, is administered by RoleAdmin.
func AdminOf(r Role) Role {
	return RoleAdmin
}
