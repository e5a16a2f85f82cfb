package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/postboard/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextEmailKey stores the caller's email inside Gin context.
	ContextEmailKey = "email"
	// ContextClaimsKey stores the parsed token claims.
	ContextClaimsKey = "claims"
	// ContextTokenKey stores the raw bearer token.
	ContextTokenKey = "token"
)

// AuthRequired ensures the request carries a valid, unrevoked bearer token.
// The chain stops here on failure, so handlers behind it never run unauthenticated.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			abortAuth(ctx, "authorization header missing")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortAuth(ctx, "invalid authorization header format")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			abortAuth(ctx, "empty bearer token")
			return
		}

		if utils.IsTokenBlacklisted(tokenString) {
			abortAuth(ctx, "token revoked")
			return
		}

		claims, err := utils.ParseToken(secret, tokenString)
		if err != nil {
			abortAuth(ctx, "Auth failed!")
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextEmailKey, claims.Email)
		ctx.Set(ContextClaimsKey, claims)
		ctx.Set(ContextTokenKey, tokenString)
		ctx.Next()
	}
}

// UserID returns the authenticated caller id set by AuthRequired.
func UserID(ctx *gin.Context) (string, bool) {
	id := ctx.GetString(ContextUserIDKey)
	return id, id != ""
}

func abortAuth(ctx *gin.Context, message string) {
	utils.Error(ctx, http.StatusUnauthorized, message)
	ctx.Abort()
}
