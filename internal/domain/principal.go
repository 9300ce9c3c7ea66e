package domain

// Role is the kind of account acting on the system.
type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return r == RoleDoctor || r == RolePatient }

// Principal is the authenticated identity a request acts as. It is derived
// from the bearer token and passed explicitly to every service operation.
type Principal struct {
	ID   uint `json:"id"`
	Role Role `json:"role"`
}
