package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"catalog-accounts/internal/app"
	"catalog-accounts/internal/pkg/jwtutil"
	"catalog-accounts/internal/transport/http/response"
)

const (
	ContextCallerKey = "caller"
	ContextClaimsKey = "claims"
)

// RevocationChecker reports whether a token id was logged out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// CallerResolver maps verified claims to the current account.
type CallerResolver interface {
	Authenticate(claims *jwtutil.Claims) (*app.Caller, error)
}

// Authenticate resolves an optional bearer token into an *app.Caller.
// Requests without a token continue anonymously; a bad token is rejected.
func Authenticate(secret string, revoked RevocationChecker, resolver CallerResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			c.Next()
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid authorization scheme")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		if revoked != nil {
			isRevoked, err := revoked.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "check token failed")
				c.Abort()
				return
			}
			if isRevoked {
				response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "token has been revoked")
				c.Abort()
				return
			}
		}

		caller, err := resolver.Authenticate(claims)
		if err != nil {
			if errors.Is(err, app.ErrLoginRequired) {
				response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found")
			} else {
				response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "resolve user failed")
			}
			c.Abort()
			return
		}

		c.Set(ContextClaimsKey, claims)
		c.Set(ContextCallerKey, caller)
		c.Next()
	}
}

// RequireLogin sends anonymous requests to loginPath.
func RequireLogin(loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CallerFrom(c) == nil {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CallerFrom returns the authenticated caller, or nil for anonymous requests.
func CallerFrom(c *gin.Context) *app.Caller {
	v, ok := c.Get(ContextCallerKey)
	if !ok {
		return nil
	}
	caller, _ := v.(*app.Caller)
	return caller
}

func ClaimsFrom(c *gin.Context) *jwtutil.Claims {
	v, ok := c.Get(ContextClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*jwtutil.Claims)
	return claims
}
