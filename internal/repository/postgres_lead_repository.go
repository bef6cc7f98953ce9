package repository

import (
	"context"

	"github.com/Aaditya7171/event-platform/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLeadRepository implements LeadRepository using PostgreSQL
type PostgresLeadRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresLeadRepository creates a new PostgresLeadRepository
func NewPostgresLeadRepository(pool *pgxpool.Pool) *PostgresLeadRepository {
	return &PostgresLeadRepository{pool: pool}
}

// Create inserts a lead
func (r *PostgresLeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	query := `
		INSERT INTO leads (id, email, consent, event_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		lead.ID,
		lead.Email,
		lead.Consent,
		lead.EventID,
		lead.CreatedAt,
	)
	return err
}

// ListByEvent retrieves all leads captured for an event
func (r *PostgresLeadRepository) ListByEvent(ctx context.Context, eventID string) ([]*domain.Lead, error) {
	query := `
		SELECT id, email, consent, event_id, created_at
		FROM leads
		WHERE event_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]*domain.Lead, 0)
	for rows.Next() {
		lead := &domain.Lead{}
		if err := rows.Scan(&lead.ID, &lead.Email, &lead.Consent, &lead.EventID, &lead.CreatedAt); err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}
