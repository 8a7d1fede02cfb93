package middleware

import (
	"net/http"

	"bookstore/apperror"
	"bookstore/auth"

	"github.com/gin-gonic/gin"
)

const (
	ClaimsKey = "claims"
	TokenKey  = "token"
)

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperror.StatusCode(err), gin.H{"success": false, "message": apperror.Message(err)})
}

// AuthMiddleware verifies the bearer token and stores its claims on the context.
func AuthMiddleware(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abortWithError(c, err)
			return
		}

		claims, err := svc.Authenticate(c.Request.Context(), token)
		if err != nil {
			_ = c.Error(err)
			abortWithError(c, err)
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(TokenKey, token)
		c.Next()
	}
}

// AdminMiddleware lets through only callers whose verified claims carry the admin role.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.RequireAdmin(ClaimsFrom(c)); err != nil {
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}

func ClaimsFrom(c *gin.Context) *auth.Claims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

// Recovery turns a panic into the standard 500 envelope.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
	})
}
