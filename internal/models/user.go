package models

import "time"

// CMS roles. InvestorsCMS staff may only manage investor documents and uploads.
const (
	RoleAdmin        = "admin"
	RoleInvestorsCMS = "InvestorsCMS"
)

// User is a CMS account. Local accounts carry a bcrypt hash; SSO accounts carry
// the OIDC subject instead.
type User struct {
	ID           string    `bson:"id" json:"id"`
	Username     string    `bson:"username" json:"username"`
	Sub          string    `bson:"sub,omitempty" json:"sub,omitempty"` // OIDC subject
	Email        string    `bson:"email" json:"email"`
	Name         string    `bson:"name" json:"name"`
	Role         string    `bson:"role" json:"role"`
	PasswordHash string    `bson:"passwordHash,omitempty" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ValidRole reports whether r is a known CMS role.
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleInvestorsCMS
}

// RoleFromClaims picks the CMS role out of token claims: a plain "role" claim
// (our own access tokens) or Keycloak realm roles.
func RoleFromClaims(claims map[string]interface{}) string {
	if r, ok := claims["role"].(string); ok && ValidRole(r) {
		return r
	}
	ra, _ := claims["realm_access"].(map[string]interface{})
	roles, _ := ra["roles"].([]interface{})
	found := ""
	for _, v := range roles {
		s, _ := v.(string)
		if s == RoleAdmin {
			return RoleAdmin
		}
		if s == RoleInvestorsCMS {
			found = s
		}
	}
	return found
}
