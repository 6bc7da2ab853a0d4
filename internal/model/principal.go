package model

import "strings"

const RoleAdmin = "admin"

type Principal struct {
	Subject string
	Role    string
}

func (p Principal) IsAdmin() bool {
	return strings.EqualFold(p.Role, RoleAdmin)
}
