package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kurlerprudent/kubo-backend-go/internal/service"
)

func (h HandlerSet) Me(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	account, err := h.accounts.GetSelf(c.Request.Context(), principal)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSelfResponse(account))
}

// updateRequest is the shared partial-patch body. There is no role
// field: a role supplied in the raw body is simply never read.
type updateRequest struct {
	Email          *string `json:"email"`
	Password       *string `json:"password"`
	Name           *string `json:"name"`
	Phone          *string `json:"phone"`
	Specialization *string `json:"specialization"`
	DateOfBirth    *string `json:"dateOfBirth"`
	Gender         *string `json:"gender"`
	Department     *string `json:"department"`
	Position       *string `json:"position"`
}

func (r updateRequest) toInput() (service.UpdateInput, error) {
	input := service.UpdateInput{
		Email:          r.Email,
		Password:       r.Password,
		Name:           r.Name,
		Phone:          r.Phone,
		Specialization: r.Specialization,
		Gender:         r.Gender,
		Department:     r.Department,
		Position:       r.Position,
	}
	if r.DateOfBirth != nil {
		dob, err := parseDate(*r.DateOfBirth)
		if err != nil {
			return service.UpdateInput{}, err
		}
		input.DateOfBirth = dob
	}
	return input, nil
}

func (h HandlerSet) UpdateMe(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.respondError(c, err)
		return
	}

	account, err := h.accounts.UpdateSelf(c.Request.Context(), principal, input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSelfResponse(account))
}

func (h HandlerSet) DeleteMe(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	if err := h.accounts.DeleteSelf(c.Request.Context(), principal); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
