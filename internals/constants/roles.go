package constants

import "fmt"

const (
	RoleUser  = "user"
	RoleImam  = "imam"
	RoleAdmin = "admin"
)

// Error message templates per role group
const (
	ErrOnlyImamsCanAccess  = "Hanya imam atau admin yang boleh mengakses fitur %s."
	ErrOnlyAdminsCanAccess = "Hanya admin yang boleh mengakses fitur %s."
)

func RoleErrorImam(feature string) string {
	return fmt.Sprintf(ErrOnlyImamsCanAccess, feature)
}

func RoleErrorAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlyAdminsCanAccess, feature)
}

// ==========================
// Grouped Role Slices
// ==========================
var (
	ImamAndAbove = []string{
		RoleImam,
		RoleAdmin,
	}

	AdminOnly = []string{
		RoleAdmin,
	}
)
