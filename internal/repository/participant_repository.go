package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/contribfest/participation/internal/domain"
)

var (
	// ErrParticipantNotFound indicates that no participant row matched the query.
	ErrParticipantNotFound = errors.New("participant not found")
	// ErrEmailConflict indicates that the email address is already taken.
	ErrEmailConflict = errors.New("email address is already in use")
)

// ParticipantRepository defines persistence operations for participants.
// UpdateState is the durable save-state write: once it returns nil, any
// subsequent FindByID observes the new state.
type ParticipantRepository interface {
	Create(ctx context.Context, p *domain.Participant) error
	FindByID(ctx context.Context, id int64) (*domain.Participant, error)
	UpdateState(ctx context.Context, id int64, state domain.State, waitingSince *time.Time) error
	CountByState(ctx context.Context) (map[domain.State]int, error)
}

type participantRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewParticipantRepository creates a new SQL-backed participant repository.
func NewParticipantRepository(db *sql.DB, log *slog.Logger) ParticipantRepository {
	return &participantRepository{
		db:  db,
		log: log,
	}
}

// Create persists a new participant row and fills in the generated fields.
func (r *participantRepository) Create(ctx context.Context, p *domain.Participant) error {
	const query = `
		INSERT INTO participants (email, terms_accepted, state)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	if p.State == "" {
		p.State = domain.StateNew
	}

	err := r.db.QueryRowContext(ctx, query, p.Email, p.TermsAccepted, p.State).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrEmailConflict
		}

		if r.log != nil {
			r.log.Error("failed to create participant", slog.Any("error", err))
		}
		return fmt.Errorf("insert participant: %w", err)
	}

	return nil
}

// FindByID retrieves a participant from the database by its identifier.
func (r *participantRepository) FindByID(ctx context.Context, id int64) (*domain.Participant, error) {
	const query = `
		SELECT id, email, terms_accepted, state, waiting_since, created_at, updated_at
		FROM participants
		WHERE id = $1
	`

	row := r.db.QueryRowContext(ctx, query, id)

	var (
		p            domain.Participant
		waitingSince sql.NullTime
	)
	if err := row.Scan(
		&p.ID,
		&p.Email,
		&p.TermsAccepted,
		&p.State,
		&waitingSince,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}

		if r.log != nil {
			r.log.Error("failed to fetch participant", slog.Int64("participant_id", id), slog.Any("error", err))
		}
		return nil, fmt.Errorf("select participant by id: %w", err)
	}

	if waitingSince.Valid {
		since := waitingSince.Time
		p.WaitingSince = &since
	}

	return &p, nil
}

// UpdateState durably records the participant's new state and waiting timestamp.
func (r *participantRepository) UpdateState(ctx context.Context, id int64, state domain.State, waitingSince *time.Time) error {
	const query = `
		UPDATE participants
		SET state = $2, waiting_since = $3, updated_at = now()
		WHERE id = $1
	`

	var since sql.NullTime
	if waitingSince != nil {
		since = sql.NullTime{Time: *waitingSince, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query, id, state, since)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to update participant state",
				slog.Int64("participant_id", id),
				slog.String("state", string(state)),
				slog.Any("error", err),
			)
		}
		return fmt.Errorf("update participant state: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update participant state: rows affected: %w", err)
	}
	if affected == 0 {
		return ErrParticipantNotFound
	}

	return nil
}

// CountByState returns the number of participants currently in each state.
func (r *participantRepository) CountByState(ctx context.Context) (map[domain.State]int, error) {
	const query = `
		SELECT state, COUNT(*)
		FROM participants
		GROUP BY state
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to count participants by state", slog.Any("error", err))
		}
		return nil, fmt.Errorf("count participants by state: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.State]int)
	for rows.Next() {
		var (
			state domain.State
			count int
		)
		if err := rows.Scan(&state, &count); err != nil {
			return nil, fmt.Errorf("scan participant count: %w", err)
		}
		counts[state] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participant counts: %w", err)
	}

	return counts, nil
}
