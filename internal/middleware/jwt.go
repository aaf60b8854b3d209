package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/gema-study-api/internal/utils"
)

// Locals keys set by JWTProtected.
const (
	LocalSubject = "researcher_subject"
	LocalRole    = "researcher_role"
)

// ResearcherClaims are the claims accepted on admin endpoints.
type ResearcherClaims struct {
	Role  string   `json:"role,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// PrimaryRole returns the role claim, falling back to the first entry of roles.
func (c ResearcherClaims) PrimaryRole() string {
	if role := strings.ToLower(strings.TrimSpace(c.Role)); role != "" {
		return role
	}
	for _, candidate := range c.Roles {
		if role := strings.ToLower(strings.TrimSpace(candidate)); role != "" {
			return role
		}
	}
	return ""
}

// JWTProtected returns a middleware that validates HMAC-signed bearer tokens.
func JWTProtected(secret string) fiber.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))

	return func(c *fiber.Ctx) error {
		authorization := c.Get("Authorization")
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "bearer "
		if len(authorization) < len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims := &ResearcherClaims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(LocalSubject, claims.Subject)
		if role := claims.PrimaryRole(); role != "" {
			c.Locals(LocalRole, role)
		}

		return c.Next()
	}
}
