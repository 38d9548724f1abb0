package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/tolkmarket/booking-be/internal/booking"
	"github.com/tolkmarket/booking-be/internal/booking/domain"
)

const jobColumns = `
	id, user_id, from_language_id, immediate, duration, status,
	gender, certified, due, job_type,
	customer_phone_type, customer_physical_type,
	town, user_email, reference, address, instructions, admin_comments,
	session_time, created_at, will_expire_at, end_at, withdraw_at,
	ignore_alert, ignore_expired, email_sent, email_sent_16h, email_sent_48h
`

type jobRow struct {
	ID                   int64        `db:"id"`
	UserID               int64        `db:"user_id"`
	FromLanguageID       int64        `db:"from_language_id"`
	Immediate            bool         `db:"immediate"`
	Duration             int          `db:"duration"`
	Status               string       `db:"status"`
	Gender               string       `db:"gender"`
	Certified            string       `db:"certified"`
	Due                  time.Time    `db:"due"`
	JobType              string       `db:"job_type"`
	CustomerPhoneType    bool         `db:"customer_phone_type"`
	CustomerPhysicalType bool         `db:"customer_physical_type"`
	Town                 string       `db:"town"`
	UserEmail            string       `db:"user_email"`
	Reference            string       `db:"reference"`
	Address              string       `db:"address"`
	Instructions         string       `db:"instructions"`
	AdminComments        string       `db:"admin_comments"`
	SessionTime          string       `db:"session_time"`
	CreatedAt            time.Time    `db:"created_at"`
	WillExpireAt         time.Time    `db:"will_expire_at"`
	EndAt                sql.NullTime `db:"end_at"`
	WithdrawAt           sql.NullTime `db:"withdraw_at"`
	IgnoreAlert          bool         `db:"ignore_alert"`
	IgnoreExpired        bool         `db:"ignore_expired"`
	EmailSent            bool         `db:"email_sent"`
	EmailSent16h         bool         `db:"email_sent_16h"`
	EmailSent48h         bool         `db:"email_sent_48h"`
}

func (r *jobRow) toDomain() *domain.Job {
	job := &domain.Job{
		ID:                   r.ID,
		UserID:               r.UserID,
		FromLanguageID:       r.FromLanguageID,
		Immediate:            r.Immediate,
		Duration:             r.Duration,
		Status:               r.Status,
		Gender:               domain.Gender(r.Gender),
		Certified:            domain.Certified(r.Certified),
		Due:                  r.Due,
		JobType:              domain.JobType(r.JobType),
		CustomerPhoneType:    r.CustomerPhoneType,
		CustomerPhysicalType: r.CustomerPhysicalType,
		Town:                 r.Town,
		UserEmail:            r.UserEmail,
		Reference:            r.Reference,
		Address:              r.Address,
		Instructions:         r.Instructions,
		AdminComments:        r.AdminComments,
		SessionTime:          r.SessionTime,
		CreatedAt:            r.CreatedAt,
		WillExpireAt:         r.WillExpireAt,
		Ignore:               r.IgnoreAlert,
		IgnoreExpired:        r.IgnoreExpired,
		EmailSent:            r.EmailSent,
		EmailSent16h:         r.EmailSent16h,
		EmailSent48h:         r.EmailSent48h,
	}
	if r.EndAt.Valid {
		t := r.EndAt.Time
		job.EndAt = &t
	}
	if r.WithdrawAt.Valid {
		t := r.WithdrawAt.Time
		job.WithdrawAt = &t
	}
	return job
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func (s *Storage) CreateJob(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO jobs (
			user_id, from_language_id, immediate, duration, status,
			gender, certified, due, job_type,
			customer_phone_type, customer_physical_type,
			town, user_email, reference, address, instructions, admin_comments,
			session_time, created_at, will_expire_at, end_at, withdraw_at,
			ignore_alert, ignore_expired, email_sent, email_sent_16h, email_sent_48h
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11,
			$12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22,
			$23, $24, $25, $26, $27
		)
		RETURNING id
	`

	err := s.db.QueryRowContext(
		ctx,
		query,
		job.UserID,
		job.FromLanguageID,
		job.Immediate,
		job.Duration,
		job.Status,
		string(job.Gender),
		string(job.Certified),
		job.Due,
		string(job.JobType),
		job.CustomerPhoneType,
		job.CustomerPhysicalType,
		job.Town,
		job.UserEmail,
		job.Reference,
		job.Address,
		job.Instructions,
		job.AdminComments,
		job.SessionTime,
		job.CreatedAt,
		job.WillExpireAt,
		nullTime(job.EndAt),
		nullTime(job.WithdrawAt),
		job.Ignore,
		job.IgnoreExpired,
		job.EmailSent,
		job.EmailSent16h,
		job.EmailSent48h,
	).Scan(&job.ID)

	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

func (s *Storage) GetJob(ctx context.Context, id int64) (*domain.Job, error) {
	var row jobRow
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	err := s.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return row.toDomain(), nil
}

// UpdateJob writes the job row and its audit entries in one transaction.
func (s *Storage) UpdateJob(ctx context.Context, job *domain.Job, audit []domain.AuditEntry) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE jobs
		SET user_id = $1,
		    from_language_id = $2,
		    immediate = $3,
		    duration = $4,
		    status = $5,
		    gender = $6,
		    certified = $7,
		    due = $8,
		    job_type = $9,
		    customer_phone_type = $10,
		    customer_physical_type = $11,
		    town = $12,
		    user_email = $13,
		    reference = $14,
		    address = $15,
		    instructions = $16,
		    admin_comments = $17,
		    session_time = $18,
		    created_at = $19,
		    will_expire_at = $20,
		    end_at = $21,
		    withdraw_at = $22,
		    ignore_alert = $23,
		    ignore_expired = $24,
		    email_sent = $25,
		    email_sent_16h = $26,
		    email_sent_48h = $27,
		    updated_at = NOW()
		WHERE id = $28
	`

	result, err := tx.ExecContext(
		ctx,
		query,
		job.UserID,
		job.FromLanguageID,
		job.Immediate,
		job.Duration,
		job.Status,
		string(job.Gender),
		string(job.Certified),
		job.Due,
		string(job.JobType),
		job.CustomerPhoneType,
		job.CustomerPhysicalType,
		job.Town,
		job.UserEmail,
		job.Reference,
		job.Address,
		job.Instructions,
		job.AdminComments,
		job.SessionTime,
		job.CreatedAt,
		job.WillExpireAt,
		nullTime(job.EndAt),
		nullTime(job.WithdrawAt),
		job.Ignore,
		job.IgnoreExpired,
		job.EmailSent,
		job.EmailSent16h,
		job.EmailSent48h,
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrJobNotFound
	}

	for _, entry := range audit {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO job_audit (job_id, field, old_value, new_value, created_at)
			VALUES ($1, $2, $3, $4, NOW())
		`, job.ID, entry.Field, entry.OldValue, entry.NewValue)
		if err != nil {
			return fmt.Errorf("failed to write audit entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit job update: %w", err)
	}
	return nil
}

func (s *Storage) ListJobs(ctx context.Context, filter booking.JobFilter) ([]domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	// Filters
	if len(filter.IDs) > 0 {
		query += fmt.Sprintf(" AND id = ANY($%d)", argIdx)
		args = append(args, pq.Array(filter.IDs))
		argIdx++
	}

	if len(filter.LanguageIDs) > 0 {
		query += fmt.Sprintf(" AND from_language_id = ANY($%d)", argIdx)
		args = append(args, pq.Array(filter.LanguageIDs))
		argIdx++
	}

	if len(filter.Statuses) > 0 {
		query += fmt.Sprintf(" AND status = ANY($%d)", argIdx)
		args = append(args, pq.Array(filter.Statuses))
		argIdx++
	}

	if len(filter.JobTypes) > 0 {
		types := make([]string, len(filter.JobTypes))
		for i, t := range filter.JobTypes {
			types[i] = string(t)
		}
		query += fmt.Sprintf(" AND job_type = ANY($%d)", argIdx)
		args = append(args, pq.Array(types))
		argIdx++
	}

	if len(filter.CustomerEmails) > 0 {
		query += fmt.Sprintf(" AND user_id IN (SELECT id FROM users WHERE email = ANY($%d))", argIdx)
		args = append(args, pq.Array(filter.CustomerEmails))
		argIdx++
	}

	if len(filter.TranslatorEmails) > 0 {
		query += fmt.Sprintf(` AND id IN (
			SELECT a.job_id FROM assignments a
			JOIN users u ON u.id = a.user_id
			WHERE u.email = ANY($%d)
		)`, argIdx)
		args = append(args, pq.Array(filter.TranslatorEmails))
		argIdx++
	}

	if filter.CustomerID != 0 {
		query += fmt.Sprintf(" AND user_id = $%d", argIdx)
		args = append(args, filter.CustomerID)
		argIdx++
	}

	if filter.TranslatorID != 0 {
		query += fmt.Sprintf(` AND id IN (
			SELECT a.job_id FROM assignments a WHERE a.user_id = $%d
		)`, argIdx)
		args = append(args, filter.TranslatorID)
		argIdx++
	}

	if filter.ConsumerType != "" {
		query += fmt.Sprintf(" AND user_id IN (SELECT id FROM users WHERE consumer_type = $%d)", argIdx)
		args = append(args, filter.ConsumerType)
		argIdx++
	}

	timeColumn := "created_at"
	if filter.TimeType == booking.TimeFieldDue {
		timeColumn = "due"
	}
	if !filter.From.IsZero() {
		query += fmt.Sprintf(" AND %s >= $%d", timeColumn, argIdx)
		args = append(args, filter.From)
		argIdx++
	}
	if !filter.To.IsZero() {
		query += fmt.Sprintf(" AND %s <= $%d", timeColumn, argIdx)
		args = append(args, filter.To)
		argIdx++
	}

	if filter.Physical != nil {
		query += fmt.Sprintf(" AND customer_physical_type = $%d", argIdx)
		args = append(args, *filter.Physical)
		argIdx++
	}
	if filter.Phone != nil {
		query += fmt.Sprintf(" AND customer_phone_type = $%d", argIdx)
		args = append(args, *filter.Phone)
		argIdx++
	}

	if !filter.WillExpireFrom.IsZero() {
		query += fmt.Sprintf(" AND will_expire_at >= $%d", argIdx)
		args = append(args, filter.WillExpireFrom)
		argIdx++
	}
	if filter.ExpiringOnly {
		query += " AND due >= NOW() AND ignore_expired = FALSE"
	}
	if filter.WithSession {
		query += " AND session_time <> ''"
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.JobID)
		argIdx += 2
	}

	// Order by created_at DESC, id DESC for consistent pagination
	query += " ORDER BY created_at DESC, id DESC"

	pageSize := filter.PageSize
	if pageSize > 0 {
		// Fetch one extra to determine if there are more results
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, pageSize+1)
	}

	var rows []jobRow
	err := s.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	jobs := make([]domain.Job, 0, len(rows))
	for i := range rows {
		jobs = append(jobs, *rows[i].toDomain())
	}
	return jobs, nil
}

// PotentialJobs returns the pending jobs matching one translator's profile,
// soonest first. Customers who blacklisted the translator are excluded here;
// the town rule for on-site jobs is applied by the caller.
func (s *Storage) PotentialJobs(ctx context.Context, c booking.JobCriteria) ([]domain.Job, error) {
	genders := make([]string, len(c.Genders))
	for i, g := range c.Genders {
		genders[i] = string(g)
	}
	certified := make([]string, len(c.Certified))
	for i, cert := range c.Certified {
		certified[i] = string(cert)
	}

	query := `SELECT ` + jobColumns + ` FROM jobs
		WHERE status = $1
		  AND job_type = $2
		  AND from_language_id = ANY($3)
		  AND gender = ANY($4)
		  AND certified = ANY($5)
		  AND user_id NOT IN (SELECT user_id FROM blacklist WHERE translator_id = $6)
		ORDER BY due ASC`

	var rows []jobRow
	err := s.db.SelectContext(ctx, &rows, query,
		domain.StatusPending,
		string(c.JobType),
		pq.Array(c.LanguageIDs),
		pq.Array(genders),
		pq.Array(certified),
		c.TranslatorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list potential jobs: %w", err)
	}

	jobs := make([]domain.Job, 0, len(rows))
	for i := range rows {
		jobs = append(jobs, *rows[i].toDomain())
	}
	return jobs, nil
}

func (s *Storage) ExpiredPendingJobs(ctx context.Context, now time.Time) ([]domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs
		WHERE status = $1 AND will_expire_at <= $2
		ORDER BY will_expire_at ASC`

	var rows []jobRow
	err := s.db.SelectContext(ctx, &rows, query, domain.StatusPending, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired jobs: %w", err)
	}

	jobs := make([]domain.Job, 0, len(rows))
	for i := range rows {
		jobs = append(jobs, *rows[i].toDomain())
	}
	return jobs, nil
}

func (s *Storage) SetIgnore(ctx context.Context, jobID int64, value bool) error {
	return s.setFlag(ctx, jobID, "ignore_alert", value)
}

func (s *Storage) SetIgnoreExpired(ctx context.Context, jobID int64, value bool) error {
	return s.setFlag(ctx, jobID, "ignore_expired", value)
}

func (s *Storage) setFlag(ctx context.Context, jobID int64, column string, value bool) error {
	query := fmt.Sprintf("UPDATE jobs SET %s = $1, updated_at = NOW() WHERE id = $2", column)
	result, err := s.db.ExecContext(ctx, query, value, jobID)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", column, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}
