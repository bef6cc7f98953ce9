package middleware

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Aaditya7171/event-platform/pkg/logger"
	"github.com/Aaditya7171/event-platform/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// AuditEntry records one operator action
type AuditEntry struct {
	ID           string                 `json:"id"`
	OperatorID   string                 `json:"operator_id"`
	OperatorRole string                 `json:"operator_role,omitempty"`
	Action       string                 `json:"action"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id,omitempty"`
	StatusCode   int                    `json:"status_code"`
	IPAddress    string                 `json:"ip_address,omitempty"`
	RequestID    string                 `json:"request_id,omitempty"`
	TraceID      string                 `json:"trace_id,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// AuditSink persists batches of audit entries
type AuditSink interface {
	WriteAudit(ctx context.Context, entries []*AuditEntry) error
}

// AuditConfig holds configuration for the audit logger
type AuditConfig struct {
	Sink          AuditSink
	BufferSize    int
	FlushInterval time.Duration
	BatchSize     int
	Logger        *logger.Logger
}

// AuditLogger buffers entries and flushes them in the background
type AuditLogger struct {
	config    *AuditConfig
	buffer    chan *AuditEntry
	wg        sync.WaitGroup
	closeOnce sync.Once
	dropped   uint64
	mu        sync.Mutex
}

// NewAuditLogger creates an audit logger and starts its worker
func NewAuditLogger(config *AuditConfig) *AuditLogger {
	if config.BufferSize <= 0 {
		config.BufferSize = 1000
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = 5 * time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.Logger == nil {
		config.Logger = logger.NewNop()
	}

	al := &AuditLogger{
		config: config,
		buffer: make(chan *AuditEntry, config.BufferSize),
	}

	al.wg.Add(1)
	go al.worker()

	return al
}

// Log enqueues an entry without blocking; entries are dropped when the buffer is full
func (al *AuditLogger) Log(entry *AuditEntry) {
	select {
	case al.buffer <- entry:
	default:
		al.mu.Lock()
		al.dropped++
		al.mu.Unlock()
	}
}

// Dropped returns the number of entries lost to a full buffer
func (al *AuditLogger) Dropped() uint64 {
	al.mu.Lock()
	defer al.mu.Unlock()
	return al.dropped
}

// Close flushes pending entries and stops the worker
func (al *AuditLogger) Close() error {
	al.closeOnce.Do(func() {
		close(al.buffer)
		al.wg.Wait()
	})
	return nil
}

func (al *AuditLogger) worker() {
	defer al.wg.Done()

	ticker := time.NewTicker(al.config.FlushInterval)
	defer ticker.Stop()

	batch := make([]*AuditEntry, 0, al.config.BatchSize)

	for {
		select {
		case entry, ok := <-al.buffer:
			if !ok {
				al.flush(batch)
				return
			}
			batch = append(batch, entry)
			if len(batch) >= al.config.BatchSize {
				al.flush(batch)
				batch = make([]*AuditEntry, 0, al.config.BatchSize)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				al.flush(batch)
				batch = make([]*AuditEntry, 0, al.config.BatchSize)
			}
		}
	}
}

func (al *AuditLogger) flush(entries []*AuditEntry) {
	if len(entries) == 0 || al.config.Sink == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := al.config.Sink.WriteAudit(ctx, entries); err != nil {
		al.config.Logger.Warn("failed to write audit entries",
			zap.Int("count", len(entries)),
			zap.Error(err),
		)
	}
}

// PostgresAuditSink writes entries to the audit_logs table
type PostgresAuditSink struct {
	pool *pgxpool.Pool
}

// NewPostgresAuditSink creates a sink on pool
func NewPostgresAuditSink(pool *pgxpool.Pool) *PostgresAuditSink {
	return &PostgresAuditSink{pool: pool}
}

// WriteAudit inserts entries in a single batch
func (s *PostgresAuditSink) WriteAudit(ctx context.Context, entries []*AuditEntry) error {
	query := `
		INSERT INTO audit_logs (
			id, operator_id, operator_role, action, resource_type, resource_id,
			status_code, ip_address, request_id, trace_id, metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	batch := &pgx.Batch{}
	for _, e := range entries {
		metadata, err := json.Marshal(e.Metadata)
		if err != nil || e.Metadata == nil {
			metadata = []byte("{}")
		}
		batch.Queue(query,
			e.ID, e.OperatorID, e.OperatorRole, e.Action, e.ResourceType, e.ResourceID,
			e.StatusCode, e.IPAddress, e.RequestID, e.TraceID, metadata, e.CreatedAt,
		)
	}

	return s.pool.SendBatch(ctx, batch).Close()
}

// ContextKeyAuditMetadata lets handlers attach details to the audit entry
const ContextKeyAuditMetadata = "audit_metadata"

// SetAuditMetadata attaches metadata to the current request's audit entry
func SetAuditMetadata(c *gin.Context, metadata map[string]interface{}) {
	c.Set(ContextKeyAuditMetadata, metadata)
}

// Audit records the wrapped operator action after the handler ran.
// The resource ID is read from the :id route parameter when present.
func Audit(al *AuditLogger, action, resourceType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		operatorID, _ := GetOperatorID(c)
		role, _ := GetRole(c)

		entry := &AuditEntry{
			ID:           uuid.New().String(),
			OperatorID:   operatorID,
			OperatorRole: role,
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   c.Param("id"),
			StatusCode:   c.Writer.Status(),
			IPAddress:    c.ClientIP(),
			RequestID:    GetRequestID(c),
			TraceID:      telemetry.TraceID(c.Request.Context()),
			CreatedAt:    time.Now(),
		}
		if md, ok := c.Get(ContextKeyAuditMetadata); ok {
			entry.Metadata, _ = md.(map[string]interface{})
		}

		al.Log(entry)
	}
}
