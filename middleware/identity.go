package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/services"
)

// IdentityKey is the gin context key holding the resolved user identity.
const IdentityKey = "identity"

// ResolveIdentity resolves the logical user identity for the request: the
// user ID from a valid bearer token, or the guest sentinel. Anonymous
// browsing is allowed, so an absent or invalid token is not an error.
func ResolveIdentity(jwtSecret string) gin.HandlerFunc {
	secret := []byte(jwtSecret)

	return func(c *gin.Context) {
		c.Set(IdentityKey, identityFromToken(c, secret))
		c.Next()
	}
}

func identityFromToken(c *gin.Context, secret []byte) string {
	header := c.GetHeader("Authorization")
	tokenString := strings.TrimPrefix(header, "Bearer ")
	if tokenString == "" {
		return services.GuestIdentity
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil || !token.Valid {
		return services.GuestIdentity
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return services.GuestIdentity
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return services.GuestIdentity
	}
	return userID
}

// Identity reads the identity resolved by ResolveIdentity from the context.
func Identity(c *gin.Context) string {
	if id, ok := c.Get(IdentityKey); ok {
		if s, ok := id.(string); ok && s != "" {
			return s
		}
	}
	return services.GuestIdentity
}
