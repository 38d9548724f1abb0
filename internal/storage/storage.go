package storage

import (
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/tolkmarket/booking-be/shared/postgresql"
)

// Storage is the sqlx-backed persistence layer. It satisfies
// booking.Repository.
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewStorage(pg *postgresql.Client, logger *slog.Logger) *Storage {
	return &Storage{
		db:     pg.GetDB(),
		logger: logger,
	}
}
