package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"orderpro/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const ActorContextKey = "actor"

var ErrNoActor = errors.New("actor not found in context")

// Protect rejects requests without a valid HMAC-signed bearer token and
// stores the acting user in the gin context.
func Protect(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized, no token"})
			return
		}
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(tokenStr) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized, invalid token format"})
			return
		}

		actor, err := ParseActor(strings.TrimSpace(tokenStr), secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized, token failed"})
			return
		}

		c.Set(ActorContextKey, actor)
		c.Next()
	}
}

// AdminOnly must run after Protect.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := GetActor(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized"})
			return
		}
		if !actor.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Not authorized as an admin"})
			return
		}
		c.Next()
	}
}

func GetActor(c *gin.Context) (models.Actor, error) {
	if val, ok := c.Get(ActorContextKey); ok {
		if actor, ok := val.(models.Actor); ok && actor.ID != "" {
			return actor, nil
		}
	}
	return models.Actor{}, ErrNoActor
}

// ParseActor validates tokenStr and reads the acting user from its claims.
// The user id is taken from "user_id", falling back to "id"; a missing role
// means a regular user.
func ParseActor(tokenStr string, secret []byte) (models.Actor, error) {
	if len(secret) == 0 {
		return models.Actor{}, fmt.Errorf("JWT secret not configured")
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return models.Actor{}, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Actor{}, fmt.Errorf("invalid token claims")
	}

	actor := models.Actor{Role: models.RoleUser}
	if id, ok := claims["user_id"].(string); ok && id != "" {
		actor.ID = id
	} else if id, ok := claims["id"].(string); ok {
		actor.ID = id
	}
	if actor.ID == "" {
		return models.Actor{}, fmt.Errorf("token has no user id")
	}
	if name, ok := claims["name"].(string); ok {
		actor.Name = name
	}
	if role, ok := claims["role"].(string); ok && role != "" {
		actor.Role = role
	}
	return actor, nil
}
