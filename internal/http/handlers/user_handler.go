// User and login HTTP handlers.
//
//   - POST /auth/login       (email + password → bearer token)
//   - GET  /users/doctors    (directory, ordered by last name)
//   - GET  /users/patients
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-scheduler-backend/internal/domain"
	"github.com/tbourn/go-scheduler-backend/internal/services"
)

// LoginRequest is the JSON payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email,max=255" example:"doctor@example.com"`
	Password string `json:"password" binding:"required,max=128"       example:"password123"`
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Exchanges email and password for a bearer token.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.LoginRequest  true  "Credentials"
// @Success     200   {object}  services.LoginResult
// @Failure     400   {object}  handlers.ErrorResponse  "Validation error"
// @Failure     401   {object}  handlers.ErrorResponse  "Invalid credentials"
// @Failure     500   {object}  handlers.ErrorResponse
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, bindMessage(err))
		return
	}

	res, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, ErrCodeInvalidCredentials, "invalid email or password")
			return
		}
		internalError(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// ListDoctors godoc
// @ID          listDoctors
// @Summary     List doctors
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}   domain.UserSummary
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /users/doctors [get]
func (h *Handlers) ListDoctors(c *gin.Context) {
	h.directory(c, h.users.ListDoctors)
}

// ListPatients godoc
// @ID          listPatients
// @Summary     List patients
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}   domain.UserSummary
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /users/patients [get]
func (h *Handlers) ListPatients(c *gin.Context) {
	h.directory(c, h.users.ListPatients)
}

func (h *Handlers) directory(c *gin.Context, list func(context.Context, domain.Principal) ([]domain.UserSummary, error)) {
	p, authed := principal(c)
	if !authed {
		return
	}
	users, err := list(c.Request.Context(), p)
	if err != nil {
		if errors.Is(err, services.ErrForbidden) {
			fail(c, http.StatusForbidden, ErrCodeForbidden, "not authorized")
			return
		}
		internalError(c, err)
		return
	}
	if users == nil {
		users = []domain.UserSummary{}
	}
	ok(c, http.StatusOK, users)
}
