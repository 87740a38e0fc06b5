package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SessionCookieName is the cookie carrying the session ID.
const SessionCookieName = "session_id"

const contextKeyUserID = "user_id"

// Sessions resolves a session ID to a user ID.
type Sessions interface {
	GetUserID(ctx context.Context, id string) (int64, bool)
}

// SessionID returns the session cookie of the request, or "" when there is none.
func SessionID(c *gin.Context) string {
	id, err := c.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return id
}

// SetSessionCookie writes an httpOnly session cookie valid for maxAge seconds.
func SetSessionCookie(c *gin.Context, id string, maxAge int) {
	c.SetCookie(SessionCookieName, id, maxAge, "/", "", false, true)
}

// ClearSessionCookie expires the session cookie on the client.
func ClearSessionCookie(c *gin.Context) {
	c.SetCookie(SessionCookieName, "", -1, "/", "", false, true)
}

// UserIDFromContext returns the current user ID set by RequireSession. 0 if not set.
func UserIDFromContext(c *gin.Context) int64 {
	id, _ := c.Get(contextKeyUserID)
	v, _ := id.(int64)
	return v
}

// RequireSession rejects requests without a live session with 401. Otherwise the
// user ID is put in the gin context for the handlers below.
func RequireSession(sessions Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := SessionID(c)
		if sessionID == "" {
			unauthorized(c)
			return
		}
		userID, ok := sessions.GetUserID(c.Request.Context(), sessionID)
		if !ok {
			unauthorized(c)
			return
		}
		c.Set(contextKeyUserID, userID)
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
}
