package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/authartic/certify/pkg/response"
	"github.com/authartic/certify/pkg/types"
)

const principalKey = "principal"

// AuthMiddleware parses the bearer token into a Principal and rejects
// requests without a valid one. Token issuance lives in the identity
// service; this side only verifies the HMAC signature and the role claim.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		principal, err := parsePrincipal(tokenStr, secret)
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}

		c.Set(principalKey, principal)
		uid := strconv.FormatUint(uint64(principal.ID), 10)
		ctx := context.WithValue(c.Request.Context(), "user_id", uid)
		c.Request = c.Request.WithContext(ctx)

		// the request-scoped logger predates the principal; re-attach it
		// with the caller's identity
		if l, ok := c.Get("logger"); ok {
			if lg, ok := l.(*zap.SugaredLogger); ok && lg != nil {
				attachLogger(c, lg.With("user_id", uid))
			}
		}

		c.Next()
	}
}

func parsePrincipal(tokenStr, secret string) (*types.Principal, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	sub, _ := claims["sub"].(float64)
	role, _ := claims["role"].(string)
	email, _ := claims["email"].(string)
	principal := &types.Principal{ID: uint(sub), Role: types.UserRole(role), Email: email}
	if principal.ID == 0 || !principal.Role.Valid() {
		return nil, fmt.Errorf("invalid token claims")
	}
	return principal, nil
}

// PrincipalFromGin returns the authenticated principal attached by
// AuthMiddleware.
func PrincipalFromGin(c *gin.Context) (*types.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*types.Principal)
	return p, ok
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeUnauthorized, msg))
}
