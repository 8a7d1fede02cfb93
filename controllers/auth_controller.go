package controllers

import (
	"context"
	"net/http"
	"time"

	"bookstore/auth"
	"bookstore/middleware"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	auth    *auth.Service
	timeout time.Duration
}

func NewAuthController(svc *auth.Service, timeout time.Duration) *AuthController {
	return &AuthController{auth: svc, timeout: timeout}
}

func (ac *AuthController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, badBody(err))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ac.timeout)
	defer cancel()

	token, user, err := ac.auth.Login(ctx, input.Email, input.Password)
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user": gin.H{
			"id":    user.ID.Hex(),
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
		},
	})
}

// Logout revokes the token the request was authenticated with.
func (ac *AuthController) Logout(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), ac.timeout)
	defer cancel()

	if err := ac.auth.Logout(ctx, middleware.ClaimsFrom(c)); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Logged out successfully"})
}
