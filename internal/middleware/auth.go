package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/greenbasket/storefront/internal/model"
	"github.com/greenbasket/storefront/internal/service"
)

// AuthMiddleware verifies the hosted auth service's HS256 access token
// and registers the identity with the session service, so a valid
// token keeps working across restarts (registration re-announces the
// identity and the cart mirror repopulates).
func AuthMiddleware(secret string, sessions *service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		raw := header[7:]

		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			return
		}

		sub, _ := claims["sub"].(string)
		userID, err := uuid.Parse(sub)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}
		email, _ := claims["email"].(string)

		sessions.Ensure(model.Identity{ID: userID, Email: email, AccessToken: raw})

		c.Set("userID", userID)
		c.Next()
	}
}

// AdminOnly gates the admin surface on the profile's admin flag. An
// absent profile and a profile with is_admin=false are both denied.
func AdminOnly(sessions *service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile := sessions.CurrentProfile(c.Request.Context(), GetUserID(c))
		if profile == nil || !profile.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Next()
	}
}

func GetUserID(c *gin.Context) uuid.UUID {
	id, _ := c.Get("userID")
	uid, _ := id.(uuid.UUID)
	return uid
}
