package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/tolkmarket/booking-be/internal/booking"
	"github.com/tolkmarket/booking-be/internal/booking/domain"
)

const userColumns = `
	u.id, u.role, u.name, u.email, u.mobile,
	u.consumer_type, u.customer_type, u.town, u.address, u.instructions,
	u.translator_type, u.gender, u.translator_level,
	u.not_get_notification, u.not_get_nighttime, u.not_get_emergency,
	COALESCE((SELECT array_agg(l.language_id) FROM user_languages l WHERE l.user_id = u.id), '{}') AS languages,
	COALESCE((SELECT array_agg(t.town) FROM user_towns t WHERE t.user_id = u.id), '{}') AS towns
`

type userRow struct {
	ID                 int64          `db:"id"`
	Role               string         `db:"role"`
	Name               string         `db:"name"`
	Email              string         `db:"email"`
	Mobile             string         `db:"mobile"`
	ConsumerType       string         `db:"consumer_type"`
	CustomerType       string         `db:"customer_type"`
	Town               string         `db:"town"`
	Address            string         `db:"address"`
	Instructions       string         `db:"instructions"`
	TranslatorType     string         `db:"translator_type"`
	Gender             string         `db:"gender"`
	TranslatorLevel    string         `db:"translator_level"`
	NotGetNotification bool           `db:"not_get_notification"`
	NotGetNighttime    bool           `db:"not_get_nighttime"`
	NotGetEmergency    bool           `db:"not_get_emergency"`
	Languages          pq.Int64Array  `db:"languages"`
	Towns              pq.StringArray `db:"towns"`
}

func (r *userRow) toDomain() *domain.User {
	return &domain.User{
		ID:     r.ID,
		Role:   domain.Role(r.Role),
		Name:   r.Name,
		Email:  r.Email,
		Mobile: r.Mobile,
		Meta: domain.UserMeta{
			ConsumerType:       r.ConsumerType,
			CustomerType:       r.CustomerType,
			Town:               r.Town,
			Address:            r.Address,
			Instructions:       r.Instructions,
			TranslatorType:     domain.TranslatorType(r.TranslatorType),
			Gender:             domain.Gender(r.Gender),
			TranslatorLevel:    r.TranslatorLevel,
			Languages:          []int64(r.Languages),
			Towns:              []string(r.Towns),
			NotGetNotification: r.NotGetNotification,
			NotGetNighttime:    r.NotGetNighttime,
			NotGetEmergency:    r.NotGetEmergency,
		},
	}
}

func (s *Storage) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var row userRow
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`

	err := s.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return row.toDomain(), nil
}

func (s *Storage) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var row userRow
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.email = $1`

	err := s.db.GetContext(ctx, &row, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return row.toDomain(), nil
}

// EligibleTranslators matches active translators on type, language, level and
// gender. Town coverage for on-site jobs is filtered by the caller, who has
// the per-translator town list in hand.
func (s *Storage) EligibleTranslators(ctx context.Context, c booking.Criteria) ([]domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u
		WHERE u.role = $1
		  AND u.active = TRUE
		  AND u.translator_type = $2
		  AND u.translator_level = ANY($3)
		  AND EXISTS (
			SELECT 1 FROM user_languages l
			WHERE l.user_id = u.id AND l.language_id = $4
		  )
	`
	args := []interface{}{
		string(domain.RoleTranslator),
		string(c.TranslatorType),
		pq.Array(c.Levels),
		c.LanguageID,
	}
	argIdx := 5

	if c.Gender != "" {
		query += fmt.Sprintf(" AND u.gender = $%d", argIdx)
		args = append(args, string(c.Gender))
		argIdx++
	}
	if len(c.ExcludeUserIDs) > 0 {
		query += fmt.Sprintf(" AND u.id <> ALL($%d)", argIdx)
		args = append(args, pq.Array(c.ExcludeUserIDs))
		argIdx++
	}

	query += " ORDER BY u.id"

	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query translators: %w", err)
	}

	users := make([]domain.User, 0, len(rows))
	for i := range rows {
		users = append(users, *rows[i].toDomain())
	}
	return users, nil
}

// Blacklist returns the translator ids a customer has excluded.
func (s *Storage) Blacklist(ctx context.Context, customerID int64) ([]int64, error) {
	var ids []int64
	query := `SELECT translator_id FROM blacklist WHERE user_id = $1`

	if err := s.db.SelectContext(ctx, &ids, query, customerID); err != nil {
		return nil, fmt.Errorf("failed to load blacklist: %w", err)
	}
	return ids, nil
}

func (s *Storage) LanguageName(ctx context.Context, id int64) (string, error) {
	var name string
	query := `SELECT name FROM languages WHERE id = $1`

	err := s.db.GetContext(ctx, &name, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("language %d not found", id)
		}
		return "", fmt.Errorf("failed to get language: %w", err)
	}
	return name, nil
}
