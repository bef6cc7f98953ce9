package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/Aaditya7171/event-platform/internal/ingest"
	"github.com/Aaditya7171/event-platform/internal/source"
	"github.com/Aaditya7171/event-platform/pkg/middleware"
	"github.com/Aaditya7171/event-platform/pkg/response"
	"github.com/gin-gonic/gin"
)

// IngestRunner runs ingestion and remembers the last report
type IngestRunner interface {
	Run(ctx context.Context, d *source.Descriptor) (*ingest.Report, error)
	LastReport() *ingest.Report
}

// IngestHandler lets operators trigger and inspect ingestion runs
type IngestHandler struct {
	runner     IngestRunner
	descriptor *source.Descriptor
}

// NewIngestHandler creates a new IngestHandler for one source
func NewIngestHandler(runner IngestRunner, descriptor *source.Descriptor) *IngestHandler {
	return &IngestHandler{
		runner:     runner,
		descriptor: descriptor,
	}
}

// Run handles POST /ingest/runs
func (h *IngestHandler) Run(c *gin.Context) {
	// the run finishes its writes even if the caller disconnects
	ctx := context.WithoutCancel(c.Request.Context())

	report, err := h.runner.Run(ctx, h.descriptor)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrRunInProgress):
			c.JSON(http.StatusConflict, response.Conflict(response.ErrCodeRunInProgress, "An ingestion run is already in progress"))
		case source.IsFetchError(err):
			_ = c.Error(err)
			c.JSON(http.StatusBadGateway, response.SourceUnavailable(err.Error()))
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, response.InternalError("Ingestion run failed"))
		}
		return
	}

	middleware.SetAuditMetadata(c, map[string]interface{}{
		"source":    report.Source,
		"created":   report.Created,
		"refreshed": report.Refreshed,
		"failed":    report.Failed,
	})
	c.JSON(http.StatusOK, response.Success(report))
}

// Latest handles GET /ingest/runs/latest
func (h *IngestHandler) Latest(c *gin.Context) {
	report := h.runner.LastReport()
	if report == nil {
		c.JSON(http.StatusNotFound, response.NotFound("No ingestion run has completed yet"))
		return
	}
	c.JSON(http.StatusOK, response.Success(report))
}
