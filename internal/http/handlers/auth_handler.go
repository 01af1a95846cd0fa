// Auth HTTP handlers.
//
// This file exposes the token endpoints:
//   - POST /auth/token/login   (exchange email/password for an access token)
//   - POST /auth/token/logout  (204; tokens are stateless, the client discards)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-recipe-backend/internal/services"
)

// LoginRequest is the JSON payload for obtaining a token.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"vpupkin@yandex.ru"`
	Password string `json:"password" binding:"required" example:"Qwerty123"`
}

// TokenResponse carries the issued access token.
type TokenResponse struct {
	AuthToken string `json:"auth_token"`
}

// Login godoc
// @ID          login
// @Summary     Obtain an access token
// @Description Verifies email/password and returns a signed bearer token.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
//
// @Success     200  {object}  handlers.TokenResponse
// @Failure     400  {object}  handlers.ErrorResponse "Invalid payload"
// @Failure     401  {object}  handlers.ErrorResponse "Wrong credentials"
// @Router      /auth/token/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and password required")
		return
	}
	u, err := h.userSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if err == services.ErrInvalidCredentials {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid credentials")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	token, err := h.tokens.Issue(u.ID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, TokenResponse{AuthToken: token})
}

// Logout godoc
// @ID          logout
// @Summary     Discard the access token
// @Description Tokens are stateless JWTs; the server keeps no session, so logout always succeeds.
// @Tags        Auth
// @Security    BearerAuth
//
// @Success     204  {string} string "No Content"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Router      /auth/token/logout [post]
func (h *Handlers) Logout(c *gin.Context) {
	if _, authed := requireUser(c); !authed {
		return
	}
	noContent(c)
}
