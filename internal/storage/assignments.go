package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tolkmarket/booking-be/internal/booking/domain"
)

type assignmentRow struct {
	ID           int64         `db:"id"`
	JobID        int64         `db:"job_id"`
	UserID       int64         `db:"user_id"`
	CreatedAt    time.Time     `db:"created_at"`
	WillExpireAt time.Time     `db:"will_expire_at"`
	CancelAt     sql.NullTime  `db:"cancel_at"`
	CompletedAt  sql.NullTime  `db:"completed_at"`
	CompletedBy  sql.NullInt64 `db:"completed_by"`
}

func (r *assignmentRow) toDomain() *domain.Assignment {
	a := &domain.Assignment{
		ID:           r.ID,
		JobID:        r.JobID,
		UserID:       r.UserID,
		CreatedAt:    r.CreatedAt,
		WillExpireAt: r.WillExpireAt,
	}
	if r.CancelAt.Valid {
		t := r.CancelAt.Time
		a.CancelAt = &t
	}
	if r.CompletedAt.Valid {
		t := r.CompletedAt.Time
		a.CompletedAt = &t
	}
	if r.CompletedBy.Valid {
		v := r.CompletedBy.Int64
		a.CompletedBy = &v
	}
	return a
}

const assignmentColumns = `
	id, job_id, user_id, created_at, will_expire_at, cancel_at, completed_at, completed_by
`

// CurrentAssignment prefers the active assignment and falls back to the most
// recently completed one. Canceled-only history yields nil.
func (s *Storage) CurrentAssignment(ctx context.Context, jobID int64) (*domain.Assignment, error) {
	var row assignmentRow
	query := `
		SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE job_id = $1
		  AND (cancel_at IS NULL AND completed_at IS NULL OR completed_at IS NOT NULL)
		ORDER BY (cancel_at IS NULL AND completed_at IS NULL) DESC, created_at DESC
		LIMIT 1
	`

	err := s.db.GetContext(ctx, &row, query, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	return row.toDomain(), nil
}

func (s *Storage) CreateAssignment(ctx context.Context, a *domain.Assignment) error {
	query := `
		INSERT INTO assignments (job_id, user_id, created_at, will_expire_at, cancel_at, completed_at, completed_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var completedBy sql.NullInt64
	if a.CompletedBy != nil {
		completedBy = sql.NullInt64{Int64: *a.CompletedBy, Valid: true}
	}
	err := s.db.QueryRowContext(
		ctx,
		query,
		a.JobID,
		a.UserID,
		a.CreatedAt,
		a.WillExpireAt,
		nullTime(a.CancelAt),
		nullTime(a.CompletedAt),
		completedBy,
	).Scan(&a.ID)

	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}

	return nil
}

func (s *Storage) CloseActiveAssignments(ctx context.Context, jobID int64, at time.Time) error {
	query := `
		UPDATE assignments
		SET cancel_at = $1
		WHERE job_id = $2 AND cancel_at IS NULL AND completed_at IS NULL
	`

	_, err := s.db.ExecContext(ctx, query, at, jobID)
	if err != nil {
		return fmt.Errorf("failed to close assignments: %w", err)
	}

	return nil
}

func (s *Storage) CompleteAssignment(ctx context.Context, assignmentID int64, at time.Time, by int64) error {
	query := `
		UPDATE assignments
		SET completed_at = $1, completed_by = $2
		WHERE id = $3 AND cancel_at IS NULL AND completed_at IS NULL
	`

	result, err := s.db.ExecContext(ctx, query, at, by, assignmentID)
	if err != nil {
		return fmt.Errorf("failed to complete assignment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		s.logger.Warn("complete assignment - no rows affected (assignment may not be active)",
			slog.Int64("assignment_id", assignmentID),
		)
	}

	return nil
}

// AcceptJob flips a pending job to assigned and records the assignment in one
// transaction. The conditional UPDATE is the race arbiter: whoever moves the
// row off pending first wins, everyone else sees zero rows affected.
func (s *Storage) AcceptJob(ctx context.Context, jobID, translatorID int64, at time.Time) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE jobs
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING will_expire_at
	`

	var willExpireAt time.Time
	err = tx.QueryRowContext(ctx, query, domain.StatusAssigned, jobID, domain.StatusPending).Scan(&willExpireAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to claim job - already accepted or not found",
				slog.Int64("job_id", jobID),
				slog.Int64("translator_id", translatorID),
			)
			return false, nil
		}
		return false, fmt.Errorf("failed to claim job: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO assignments (job_id, user_id, created_at, will_expire_at)
		VALUES ($1, $2, $3, $4)
	`, jobID, translatorID, at, willExpireAt)
	if err != nil {
		return false, fmt.Errorf("failed to record assignment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit accept: %w", err)
	}

	s.logger.Info("job accepted",
		slog.Int64("job_id", jobID),
		slog.Int64("translator_id", translatorID),
	)
	return true, nil
}

// TranslatorBusyAt reports whether the translator already serves another job
// due at the same instant.
func (s *Storage) TranslatorBusyAt(ctx context.Context, translatorID int64, due time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM assignments a
			JOIN jobs j ON j.id = a.job_id
			WHERE a.user_id = $1
			  AND a.cancel_at IS NULL AND a.completed_at IS NULL
			  AND j.due = $2
		)
	`

	var busy bool
	if err := s.db.GetContext(ctx, &busy, query, translatorID, due); err != nil {
		return false, fmt.Errorf("failed to check translator schedule: %w", err)
	}
	return busy, nil
}
