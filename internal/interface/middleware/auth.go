package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/invest-payout-engine/internal/domain/entity"
	"github.com/oksasatya/invest-payout-engine/pkg/helpers"
	"github.com/oksasatya/invest-payout-engine/pkg/response"
)

const (
	CtxUserIDKey = "userID"
	CtxRoleKey   = "role"
)

// AccountResolver is satisfied by application.AccountService.
type AccountResolver interface {
	GetProfile(ctx context.Context, userID string) (*entity.Account, error)
	SessionValid(ctx context.Context, userID, sid string) bool
}

func bearerOrCookie(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if scheme, tok, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
	}
	if tok, err := c.Cookie("access_token"); err == nil {
		return tok
	}
	return ""
}

// Auth validates the access token, checks the session and loads the caller's
// account. The role comes from the stored account, never from the token.
// It sets userID and role in the Gin context on success.
func Auth(accounts AccountResolver, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerOrCookie(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "missing access token", nil)
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "invalid access token", nil)
			return
		}
		ctx := c.Request.Context()
		if !accounts.SessionValid(ctx, claims.UserID, claims.SessionID) {
			response.Abort(c, http.StatusUnauthorized, "session not found", nil)
			return
		}
		acct, err := accounts.GetProfile(ctx, claims.UserID)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "account not found", nil)
			return
		}

		c.Set(CtxUserIDKey, acct.ID)
		c.Set(CtxRoleKey, string(acct.Role))
		c.Next()
	}
}

// RequireAdmin must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if entity.Role(c.GetString(CtxRoleKey)) != entity.RoleAdmin {
			response.Abort(c, http.StatusForbidden, "admin role required", nil)
			return
		}
		c.Next()
	}
}
