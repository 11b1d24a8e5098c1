package model

// Principal is the resolved identity of a caller. The zero value is anonymous.
type Principal struct {
	UserID string
	Role   Role
}

func AnonymousPrincipal() Principal {
	return Principal{Role: RoleAnonymous}
}

func (p Principal) IsAuthenticated() bool {
	return p.UserID != "" && p.Role.Valid()
}
