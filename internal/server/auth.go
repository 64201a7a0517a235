package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const userKey = "user"

var errNoUserClaim = errors.New("token carries no user id")

// User is the authenticated caller.
type User struct {
	ID    string
	Email string
	Name  string
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" && s.Config.Auth.AllowAnonymous {
			c.Set(userKey, User{ID: s.Config.Auth.DevUser, Name: "Demo User"})
			c.Next()
			return
		}

		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or malformed authorization header"})
			return
		}

		user, err := ParseToken(strings.TrimSpace(raw), []byte(s.Config.Auth.JWTSecret))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// ParseToken verifies an HS256 token. The user id is the first non-empty
// claim among user_id, uid and sub.
func ParseToken(raw string, secret []byte) (User, error) {
	if len(secret) == 0 {
		return User{}, jwt.ErrInvalidKey
	}

	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return User{}, err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return User{}, jwt.ErrTokenInvalidClaims
	}

	user := User{
		Email: stringClaim(claims, "email"),
		Name:  stringClaim(claims, "name"),
	}
	for _, key := range []string{"user_id", "uid", "sub"} {
		if id := stringClaim(claims, key); id != "" {
			user.ID = id
			break
		}
	}
	if user.ID == "" {
		return User{}, errNoUserClaim
	}
	return user, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return strings.TrimSpace(s)
}

func currentUser(c *gin.Context) User {
	v, _ := c.Get(userKey)
	u, _ := v.(User)
	return u
}
