package domain

import "fmt"

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin          Role = "Admin"
	RoleCustomer       Role = "Customer"
	RoleDeliveryPerson Role = "DeliveryPerson"
)

// ParseRole maps a wire string onto a Role. An empty string is not a
// valid role; callers that want a default must apply it before parsing.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleCustomer:
		return RoleCustomer, nil
	case RoleDeliveryPerson:
		return RoleDeliveryPerson, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCustomer, RoleDeliveryPerson:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}
