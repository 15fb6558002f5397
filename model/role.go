package model

import (
	"fmt"
	"strings"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleStudent Role = "student"
	RoleTrainer Role = "trainer"
	RoleManager Role = "manager"
)

// Roles lists every valid role
var Roles = []Role{RoleStudent, RoleTrainer, RoleManager}

// ParseRole converts a raw role tag into a Role, rejecting unknown values
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return role, nil
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTrainer, RoleManager:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}
