package domain

// CallerRole enumerates API caller roles carried in access tokens.
type CallerRole string

const (
	CallerRoleAdmin   CallerRole = "ADMIN"
	CallerRoleManager CallerRole = "MANAGER"
	CallerRoleViewer  CallerRole = "VIEWER"
)
