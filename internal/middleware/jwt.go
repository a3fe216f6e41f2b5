package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aura-workshops/backend/internal/auth"
	"github.com/aura-workshops/backend/pkg/response"
)

const (
	// ContextUserID is the key for user ID in gin context.
	ContextUserID = "user_id"
	// ContextUserRole is the key for user role in gin context.
	ContextUserRole = "user_role"
	// ContextUserEmail is the key for user email in gin context.
	ContextUserEmail = "user_email"
)

// JWT returns a middleware that requires a valid token and sets user claims in context.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Unauthorized(c, "missing authorization token")
			c.Abort()
			return
		}
		if !authenticate(c, jwtService, token) {
			return
		}
		c.Next()
	}
}

// OptionalJWT lets anonymous requests through but rejects a token that is present and invalid.
// Browsers cannot set headers on WebSocket upgrades, so a "token" query parameter is accepted too.
func OptionalJWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			token = c.Query("token")
		}
		if token != "" && !authenticate(c, jwtService, token) {
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated caller, if any.
func CurrentUser(c *gin.Context) (id uuid.UUID, email string, ok bool) {
	v, exists := c.Get(ContextUserID)
	if !exists {
		return uuid.Nil, "", false
	}
	id, ok = v.(uuid.UUID)
	return id, c.GetString(ContextUserEmail), ok
}

func authenticate(c *gin.Context, jwtService *auth.JWTService, token string) bool {
	claims, err := jwtService.Validate(token)
	if err != nil {
		response.Unauthorized(c, "invalid or expired token")
		c.Abort()
		return false
	}
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUserRole, claims.Role)
	c.Set(ContextUserEmail, claims.Email)
	return true
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
