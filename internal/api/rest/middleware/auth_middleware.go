package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/nghia193193/recruitment-payment-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ContextOwnerIDKey is the gin context key holding the authenticated
// recruiter id
const ContextOwnerIDKey = "ownerID"

const authHeaderPrefix = "Bearer "

// OwnerClaims are the token claims the payment service relies on. The
// subject is the recruiter account id.
type OwnerClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates recruiter bearer tokens. It is the
// capability boundary of the pipeline: every payment endpoint requires
// an authenticated owner, issued elsewhere in the platform.
type AuthMiddleware struct {
	secret []byte
	log    *logger.Logger
}

// NewAuthMiddleware creates the token-validating middleware
func NewAuthMiddleware(jwtSecret string, log *logger.Logger) (*AuthMiddleware, error) {
	if jwtSecret == "" {
		return nil, fmt.Errorf("middleware: JWT secret is not configured")
	}
	return &AuthMiddleware{secret: []byte(jwtSecret), log: log}, nil
}

// RequireOwner aborts the request unless it carries a valid recruiter
// token, and injects the owner id into the gin context.
func (m *AuthMiddleware) RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, authHeaderPrefix) {
			m.abort(c, "Missing authorization token")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, authHeaderPrefix)
		claims := &OwnerClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return m.secret, nil
		})
		if err != nil || !token.Valid {
			m.abort(c, "Token validation failed")
			return
		}

		if claims.Subject == "" {
			m.abort(c, "Owner ID (sub) missing in token")
			return
		}

		c.Set(ContextOwnerIDKey, claims.Subject)
		c.Next()
	}
}

// OwnerID reads the authenticated owner id from the gin context
func OwnerID(c *gin.Context) (string, bool) {
	id, ok := c.Get(ContextOwnerIDKey)
	if !ok {
		return "", false
	}
	ownerID, ok := id.(string)
	return ownerID, ok && ownerID != ""
}

func (m *AuthMiddleware) abort(c *gin.Context, message string) {
	m.log.Warnw("Request rejected by auth middleware", "reason", message, "path", c.Request.URL.Path)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}
