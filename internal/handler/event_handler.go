package handler

import (
	"net/http"

	"github.com/Aaditya7171/event-platform/internal/dto"
	"github.com/Aaditya7171/event-platform/internal/service"
	"github.com/Aaditya7171/event-platform/pkg/middleware"
	"github.com/Aaditya7171/event-platform/pkg/response"
	"github.com/gin-gonic/gin"
)

// EventHandler handles event-related HTTP requests
type EventHandler struct {
	eventService service.EventService
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(eventService service.EventService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
	}
}

// List handles GET /events - events ordered by datetime
func (h *EventHandler) List(c *gin.Context) {
	var filter dto.EventListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid query parameters"))
		return
	}

	events, total, err := h.eventService.ListEvents(c.Request.Context(), &filter)
	if err != nil {
		writeDomainError(c, err, "Failed to list events")
		return
	}

	c.JSON(http.StatusOK, response.List(dto.NewEventListResponse(events), filter.Limit, filter.Offset, total))
}

// GetByID handles GET /events/:id
func (h *EventHandler) GetByID(c *gin.Context) {
	event, err := h.eventService.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeDomainError(c, err, "Failed to get event")
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.NewEventResponse(event)))
}

// Import handles POST /events/:id/import (operator only)
func (h *EventHandler) Import(c *gin.Context) {
	event, err := h.eventService.ImportEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeDomainError(c, err, "Failed to import event")
		return
	}

	middleware.SetAuditMetadata(c, map[string]interface{}{
		"original_url": event.OriginalURL,
		"status":       string(event.Status),
	})
	c.JSON(http.StatusOK, response.Success(dto.NewEventResponse(event)))
}

// ListLeads handles GET /events/:id/leads (operator only)
func (h *EventHandler) ListLeads(c *gin.Context) {
	leads, err := h.eventService.ListLeads(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeDomainError(c, err, "Failed to list leads")
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.NewLeadListResponse(leads)))
}
