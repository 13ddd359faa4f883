// internal/middleware/auth_middleware.go
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"order-printer/internal/config"
	"order-printer/internal/utils"
)

// ClaimsKey is the gin context key holding validated token claims
const ClaimsKey = "claims"

var errInvalidToken = errors.New("invalid token")

// AuthMiddleware validates HS256 bearer tokens
type AuthMiddleware struct {
	secret []byte
	issuer string
	logger *utils.SecurityLogger
}

// NewAuthMiddleware creates bearer token validation for the security config
func NewAuthMiddleware(cfg *config.SecurityConfig, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.JWTIssuer,
		logger: utils.NewSecurityLogger(logger),
	}
}

func (a *AuthMiddleware) validateToken(tokenString string) (*jwt.RegisteredClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*jwt.RegisteredClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errInvalidToken
}

func tokenFromRequest(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// RequireAuth rejects requests without a valid bearer token
func (a *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			a.logger.LogAuthAttempt("", c.ClientIP(), false, "missing token")
			utils.AbortWithError(c, http.StatusUnauthorized, "Authentication required", nil)
			return
		}

		claims, err := a.validateToken(token)
		if err != nil {
			a.logger.LogAuthAttempt("", c.ClientIP(), false, err.Error())
			utils.AbortWithError(c, http.StatusUnauthorized, "Invalid or expired token", nil)
			return
		}

		a.logger.LogAuthAttempt(claims.Subject, c.ClientIP(), true, "")
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}
