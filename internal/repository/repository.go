package repository

import (
	"context"
	"database/sql"
	"time"

	"supercycler"
)

// StateRepo persists the single cycle-state row.
type StateRepo interface {
	Load(ctx context.Context) (supercycler.CycleState, error)
	Save(ctx context.Context, s supercycler.CycleState) error
}

// EventRepo is the append-only cycle event log.
type EventRepo interface {
	Append(ctx context.Context, e supercycler.CycleEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]supercycler.CycleEvent, error)
}

// UserRepo stores API users.
type UserRepo interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*supercycler.User, error)
}

type Repository struct {
	State  StateRepo
	Events EventRepo
	Users  UserRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		State:  NewStateSQLite(db),
		Events: NewEventSQLite(db),
		Users:  NewUserSQLite(db),
	}
}
