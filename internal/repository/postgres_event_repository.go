package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Aaditya7171/event-platform/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const eventColumns = `id, title, datetime, source, original_url, city, status, last_scraped_at, created_at, updated_at`

// PostgresEventRepository implements EventRepository using PostgreSQL
type PostgresEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresEventRepository creates a new PostgresEventRepository
func NewPostgresEventRepository(pool *pgxpool.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{pool: pool}
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	event := &domain.Event{}
	var status string
	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Datetime,
		&event.Source,
		&event.OriginalURL,
		&event.City,
		&status,
		&event.LastScrapedAt,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	event.Status = domain.EventStatus(status)
	return event, nil
}

// FindByURL retrieves an event by its originalUrl
func (r *PostgresEventRepository) FindByURL(ctx context.Context, originalURL string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE original_url = $1`
	event, err := scanEvent(r.pool.QueryRow(ctx, query, originalURL))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return event, nil
}

// GetByID retrieves an event by ID
func (r *PostgresEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	event, err := scanEvent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return event, nil
}

// Create inserts a new event. The unique original_url index is the backstop
// against two writers creating the same listing.
func (r *PostgresEventRepository) Create(ctx context.Context, event *domain.Event) error {
	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (original_url) DO NOTHING
	`
	result, err := r.pool.Exec(ctx, query,
		event.ID,
		event.Title,
		event.Datetime,
		event.Source,
		event.OriginalURL,
		event.City,
		string(event.Status),
		event.LastScrapedAt,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateURL, event.OriginalURL)
	}
	return nil
}

// Update writes the mutable fields of an event
func (r *PostgresEventRepository) Update(ctx context.Context, event *domain.Event) error {
	query := `
		UPDATE events
		SET title = $2, datetime = $3, city = $4, status = $5, last_scraped_at = $6, updated_at = $7
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		event.ID,
		event.Title,
		event.Datetime,
		event.City,
		string(event.Status),
		event.LastScrapedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrEventNotFound, event.ID)
	}
	return nil
}

// List retrieves events ordered by datetime with optional filters
func (r *PostgresEventRepository) List(ctx context.Context, filter EventFilter) ([]*domain.Event, int64, error) {
	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argIndex := 1

	if filter.Status != "" {
		whereClause += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, string(filter.Status))
		argIndex++
	}

	if filter.City != "" {
		whereClause += fmt.Sprintf(" AND city ILIKE $%d", argIndex)
		args = append(args, filter.City)
		argIndex++
	}

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM events %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM events
		%s
		ORDER BY datetime ASC, id ASC
		LIMIT $%d OFFSET $%d
	`, eventColumns, whereClause, argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return events, total, nil
}
