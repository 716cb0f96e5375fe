package domain

// AuthMethod describes how a caller authenticated with the API.
type AuthMethod string

const (
	AuthMethodJWT AuthMethod = "jwt"
)

// Principal captures normalized caller identity independent of auth mechanism.
type Principal struct {
	ID          string
	AuthMethod  AuthMethod
	Subject     string
	Issuer      string
	Email       string
	Role        string
	Audience    []string
	Credentials map[string]string
}

// Authenticated reports whether the principal identifies a caller.
func (p Principal) Authenticated() bool {
	return p.ID != ""
}
