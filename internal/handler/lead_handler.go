package handler

import (
	"net/http"

	"github.com/Aaditya7171/event-platform/internal/dto"
	"github.com/Aaditya7171/event-platform/internal/service"
	"github.com/Aaditya7171/event-platform/pkg/response"
	"github.com/gin-gonic/gin"
)

// LeadHandler handles the public lead gate
type LeadHandler struct {
	leadService service.LeadService
}

// NewLeadHandler creates a new LeadHandler
func NewLeadHandler(leadService service.LeadService) *LeadHandler {
	return &LeadHandler{
		leadService: leadService,
	}
}

// Submit handles POST /leads - records a lead and returns the redirect target
func (h *LeadHandler) Submit(c *gin.Context) {
	var req dto.SubmitLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("email, consent and eventId are required; email must be valid"))
		return
	}

	resp, err := h.leadService.SubmitLead(c.Request.Context(), &req)
	if err != nil {
		writeDomainError(c, err, "Failed to record lead")
		return
	}

	c.JSON(http.StatusCreated, response.Success(resp))
}
