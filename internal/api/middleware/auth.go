package middleware

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	apierrors "github.com/omribarmats/pricegit/internal/api/shared/errors"
	"github.com/omribarmats/pricegit/internal/domain"
	"github.com/omribarmats/pricegit/internal/logger"
)

const (
	// AuthUserIDKey is the gin context key holding the authenticated user id
	AuthUserIDKey = "auth_user_id"
	// AuthRoleKey is the gin context key holding the authenticated user role
	AuthRoleKey = "auth_role"
)

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTPublicKey string // RSA public key in PEM format
	APIKeys      []string
}

// Claims are the JWT claims issued by the session service: the subject is the
// user id, Role the trust level at token issue time.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Auth returns a gin middleware validating a Bearer JWT and storing the
// acting user's id and role in the request context
func Auth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := authenticateJWT(c.GetHeader("Authorization"), cfg)
		if err != nil {
			logger.Warn("Authentication failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				apierrors.NewUnauthorizedError("Authentication failed", err.Error()))
			return
		}

		c.Set(AuthUserIDKey, claims.Subject)
		c.Set(AuthRoleKey, claims.Role)
		c.Next()
	}
}

// APIKeyAuth returns a gin middleware validating a static API key, used by
// trusted internal services (e.g. the account service on user deletion)
func APIKeyAuth(cfg AuthConfig) gin.HandlerFunc {
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "apikey") || !apiKeyMap[parts[1]] {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				apierrors.NewUnauthorizedError("Authentication failed", "invalid API key"))
			return
		}
		c.Next()
	}
}

// ActingUser extracts the authenticated user id and role from the context
func ActingUser(c *gin.Context) (string, domain.Role) {
	return c.GetString(AuthUserIDKey), domain.Role(c.GetString(AuthRoleKey))
}

// authenticateJWT validates the Authorization header and returns the claims
func authenticateJWT(authHeader string, cfg AuthConfig) (*Claims, error) {
	if authHeader == "" {
		return nil, errors.New("missing Authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, errors.New("invalid Authorization header format")
	}

	publicKey, err := parseRSAPublicKey(cfg.JWTPublicKey)
	if err != nil {
		return nil, err
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(parts[1], &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token missing subject")
	}

	return &claims, nil
}

// parseRSAPublicKey parses an RSA public key from PEM format
func parseRSAPublicKey(pemKey string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemKey))
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	rsaKey, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not RSA")
	}

	return rsaKey, nil
}
