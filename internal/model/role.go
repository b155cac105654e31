package model

// Role identifies who a credential was issued to.
type Role string

const (
	RoleAnonymous Role = "anonymous"
	RoleCandidate Role = "candidate"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAnonymous, RoleCandidate, RoleAdmin:
		return true
	}
	return false
}

// Credential is the persisted authentication state. Candidate tokens are
// exam-scoped, admin tokens are account-scoped.
type Credential struct {
	Token string `json:"token"`
	Role  Role   `json:"role"`
}

// Anonymous is the credential held when nobody is signed in.
var Anonymous = Credential{Role: RoleAnonymous}

// IsAnonymous reports whether the credential carries no token.
func (c Credential) IsAnonymous() bool {
	return c.Token == "" || c.Role == RoleAnonymous || c.Role == ""
}
