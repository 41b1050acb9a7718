package identity

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/playvault/playvault/internal/session"
)

const ctxUserID = "identity.user_id"

// RequireSession returns a Gin middleware that resolves the calling
// account. The server-side session cookie is authoritative; a bearer
// session token is accepted as a fallback for API clients that do not
// hold cookies. Requests carrying neither are rejected.
func RequireSession(store session.Store, tokens *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cookie, err := c.Request.Cookie(session.CookieName); err == nil && cookie.Value != "" {
			sess, err := store.Get(c.Request.Context(), cookie.Value)
			if err == nil && sess != nil {
				c.Set(ctxUserID, sess.UserID)
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			claims, err := tokens.Verify(strings.TrimPrefix(authHeader, "Bearer "))
			if err == nil {
				if uid, parseErr := uuid.Parse(claims.UserID); parseErr == nil {
					c.Set(ctxUserID, uid)
					c.Next()
					return
				}
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "not authenticated",
		})
	}
}

// CurrentUserID retrieves the account id injected by RequireSession.
func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return uuid.Nil, false
	}
	uid, ok := v.(uuid.UUID)
	return uid, ok
}
