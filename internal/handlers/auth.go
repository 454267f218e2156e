package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kurlerprudent/kubo-backend-go/internal/apperr"
	"github.com/kurlerprudent/kubo-backend-go/internal/service"
)

type registerRequest struct {
	Email            string  `json:"email" binding:"required,email"`
	Password         string  `json:"password" binding:"required,min=8"`
	Name             string  `json:"name"`
	Phone            string  `json:"phone"`
	DateOfBirth      string  `json:"dateOfBirth"`
	Gender           string  `json:"gender"`
	AssignedDoctorID *string `json:"assignedDoctorId"`
}

func (h HandlerSet) RegisterPatient(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		h.respondError(c, err)
		return
	}

	account, err := h.auth.RegisterPatient(c.Request.Context(), service.RegisterPatientInput{
		Email:            req.Email,
		Password:         req.Password,
		Name:             req.Name,
		Phone:            req.Phone,
		DateOfBirth:      dob,
		Gender:           req.Gender,
		AssignedDoctorID: req.AssignedDoctorID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toPatientResponse(account))
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	token, _, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// parseDate accepts a date-only or RFC3339 timestamp string, empty
// meaning absent.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, apperr.Validation("invalid date format")
}
