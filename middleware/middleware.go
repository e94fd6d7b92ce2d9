// Package middleware exposes the auth flows as gin middleware. Each
// factory returns a handler that either aborts the request with a
// JSON error or stores its result in the gin context and calls Next.
package middleware

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/authgate/authgate/config"
	"github.com/authgate/authgate/domain"
	"github.com/authgate/authgate/repository"
	"github.com/authgate/authgate/service"
)

// Context keys under which successful flows store their results.
const (
	TokenKey = "auth_token"
	UserKey  = "auth_user"
)

// Auth wires the auth service into a gin pipeline.
type Auth struct {
	svc    *service.Service
	header string
}

func New(svc *service.Service, cfg config.Config) *Auth {
	return &Auth{svc: svc, header: cfg.Tokens.Header}
}

// Login authenticates the JSON request body and stores the issued
// token under TokenKey.
func (a *Auth) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		var credentials map[string]string
		if err := c.ShouldBindJSON(&credentials); err != nil && !errors.Is(err, io.EOF) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		result, err := a.svc.Login(c.Request.Context(), credentials)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(TokenKey, result.Token.Token)
		c.Next()
	}
}

// Authorize resolves the token from the configured header and stores
// the owning user under UserKey.
func (a *Auth) Authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := a.svc.Authorize(c.Request.Context(), c.GetHeader(a.header))
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(UserKey, session.User)
		c.Next()
	}
}

// Logout revokes the presented token.
func (a *Auth) Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := a.svc.Logout(c.Request.Context(), c.GetHeader(a.header)); err != nil {
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}

// LogoutAll revokes every token belonging to the presented token's owner.
func (a *Auth) LogoutAll() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := a.svc.LogoutAll(c.Request.Context(), c.GetHeader(a.header)); err != nil {
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}

// TokenFromContext returns the token issued by a preceding Login.
func TokenFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(TokenKey)
	if !ok {
		return "", false
	}
	token, ok := v.(string)
	return token, ok
}

// UserFromContext returns the user resolved by a preceding Authorize.
func UserFromContext(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrMissingField),
		errors.Is(err, service.ErrMissingToken):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrOwnerNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrTooManyTokens):
		return http.StatusTooManyRequests
	case errors.Is(err, repository.ErrNotConnected):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
