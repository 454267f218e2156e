package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kurlerprudent/kubo-backend-go/internal/models"
	"github.com/kurlerprudent/kubo-backend-go/internal/service"
)

type createAdminRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Position   string `json:"position"`
}

func (h HandlerSet) CreateAdmin(c *gin.Context) {
	var req createAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	account, err := h.accounts.CreateAdmin(c.Request.Context(), service.CreateAdminInput{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		Department: req.Department,
		Position:   req.Position,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toAccountResponse(account))
}

func (h HandlerSet) ListAdmins(c *gin.Context) {
	accounts, err := h.accounts.ListByRole(c.Request.Context(), models.RoleAdmin)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toAccountResponses(accounts)})
}

func (h HandlerSet) DeleteAdmin(c *gin.Context) {
	if err := h.accounts.Delete(c.Request.Context(), c.Param("id"), models.RoleAdmin); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createDoctorRequest struct {
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=8"`
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Specialization string `json:"specialization"`
}

func (h HandlerSet) CreateDoctor(c *gin.Context) {
	var req createDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	account, err := h.accounts.CreateDoctor(c.Request.Context(), service.CreateDoctorInput{
		Email:          req.Email,
		Password:       req.Password,
		Name:           req.Name,
		Phone:          req.Phone,
		Specialization: req.Specialization,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toAccountResponse(account))
}

func (h HandlerSet) ListDoctors(c *gin.Context) {
	accounts, err := h.accounts.ListByRole(c.Request.Context(), models.RoleDoctor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toAccountResponses(accounts)})
}

func (h HandlerSet) GetDoctor(c *gin.Context) {
	account, err := h.accounts.Get(c.Request.Context(), c.Param("id"), models.RoleDoctor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAccountResponse(account))
}

func (h HandlerSet) UpdateDoctor(c *gin.Context) {
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

	account, err := h.accounts.Update(c.Request.Context(), c.Param("id"), models.RoleDoctor, input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAccountResponse(account))
}

func (h HandlerSet) DeleteDoctor(c *gin.Context) {
	if err := h.accounts.Delete(c.Request.Context(), c.Param("id"), models.RoleDoctor); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createPatientRequest struct {
	Email            string  `json:"email" binding:"required,email"`
	Password         string  `json:"password" binding:"required,min=8"`
	Name             string  `json:"name"`
	Phone            string  `json:"phone"`
	DateOfBirth      string  `json:"dateOfBirth"`
	Gender           string  `json:"gender"`
	AssignedDoctorID *string `json:"assignedDoctorId"`
}

func (h HandlerSet) CreatePatient(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req createPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		h.respondError(c, err)
		return
	}

	account, err := h.accounts.CreatePatient(c.Request.Context(), principal, service.CreatePatientInput{
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

func (h HandlerSet) ListPatients(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	accounts, err := h.accounts.ListPatients(c.Request.Context(), principal)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toPatientResponses(accounts)})
}

func (h HandlerSet) GetPatient(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	account, err := h.accounts.Get(c.Request.Context(), c.Param("id"), models.RolePatient)
	if err != nil {
		h.respondError(c, err)
		return
	}

	// Doctors only see their own patients; everyone else's look like
	// they do not exist.
	if principal.Role == models.RoleDoctor {
		assigned := account.AssignedDoctorID()
		if assigned == nil || *assigned != principal.ID {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
	}

	c.JSON(http.StatusOK, toPatientResponse(account))
}

func (h HandlerSet) DeletePatient(c *gin.Context) {
	if err := h.accounts.Delete(c.Request.Context(), c.Param("id"), models.RolePatient); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// updatePatientRequest extends the shared patch with the assignment
// field, which is tri-state: absent (leave alone), null (unassign) or a
// doctor id (assign).
type updatePatientRequest struct {
	updateRequest
	AssignedDoctorID json.RawMessage `json:"assignedDoctorId"`
}

func (h HandlerSet) UpdatePatient(c *gin.Context) {
	var req updatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.respondError(c, err)
		return
	}

	patientID := c.Param("id")

	if len(req.AssignedDoctorID) > 0 {
		if bytes.Equal(bytes.TrimSpace(req.AssignedDoctorID), []byte("null")) {
			err = h.assignments.Unassign(c.Request.Context(), patientID)
		} else {
			var doctorID string
			if jsonErr := json.Unmarshal(req.AssignedDoctorID, &doctorID); jsonErr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
			err = h.assignments.Assign(c.Request.Context(), patientID, doctorID)
		}
		if err != nil {
			h.respondError(c, err)
			return
		}
	}

	account, err := h.accounts.Update(c.Request.Context(), patientID, models.RolePatient, input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toPatientResponse(account))
}
