package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quietpage/inkwell/utils"
)

const (
	// SessionCookie carries the signed session token.
	SessionCookie = "session"
	// ContextUserIDKey is the key used to store the authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
	// LoginPath is where unauthenticated mutators are sent.
	LoginPath = "/auth/login/"
)

// CurrentUser resolves the session cookie into an actor on the context.
// Requests without a valid session proceed anonymously; it never aborts.
func CurrentUser() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := ctx.Cookie(SessionCookie)
		if err != nil || token == "" {
			ctx.Next()
			return
		}
		claims, err := utils.ParseSessionToken(token)
		if err != nil {
			ctx.Next()
			return
		}
		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Next()
	}
}

// LoginRequired redirects anonymous actors to the login page. It runs
// after CurrentUser and gates every mutating route.
func LoginRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, exists := ctx.Get(ContextUserIDKey); !exists {
			ctx.Redirect(http.StatusFound, LoginPath)
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// ActorID returns the authenticated user's id, or false for anonymous actors.
func ActorID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}

// ActorUsername returns the authenticated user's username, if any.
func ActorUsername(ctx *gin.Context) (string, bool) {
	value, exists := ctx.Get(ContextUsernameKey)
	if !exists {
		return "", false
	}
	name, ok := value.(string)
	return name, ok
}
