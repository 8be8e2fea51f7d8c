package auth

import "github.com/gin-gonic/gin"

const (
	ctxUserID    = "userID"
	ctxUserEmail = "userEmail"
	ctxUserRole  = "userRole"
)

// Identity is the trusted (user, role) pair resolved from the access token.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// GetUserEmail returns the authenticated user's email or empty string.
func GetUserEmail(c *gin.Context) string {
	return c.GetString(ctxUserEmail)
}

// GetUserRole returns the authenticated user's role or empty string.
func GetUserRole(c *gin.Context) string {
	return c.GetString(ctxUserRole)
}

// GetIdentity bundles the authenticated caller.
func GetIdentity(c *gin.Context) Identity {
	return Identity{
		UserID: GetUserID(c),
		Email:  GetUserEmail(c),
		Role:   GetUserRole(c),
	}
}

// SetIdentity stores the caller in the gin context.
func SetIdentity(c *gin.Context, id Identity) {
	c.Set(ctxUserID, id.UserID)
	c.Set(ctxUserEmail, id.Email)
	c.Set(ctxUserRole, id.Role)
}
