package model

const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// AuthClaims are the verified claims of an access token issued by the
// storefront identity service.
type AuthClaims struct {
	UserID   string `json:"sub"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Type     string `json:"typ"`
	TokenID  string `json:"jti"`
}

func (c *AuthClaims) CanMutate() bool {
	return c != nil && (c.Role == RoleAdmin || c.Role == RoleEditor)
}
