package domain

// Roles carried in admin JWT claims.
const (
	RoleAdmin = "admin"
)
