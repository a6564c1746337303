package repository_test

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"supercycler"
	"supercycler/internal/repository"
)

func TestEventSQLite_Append_FillsIDAndTimestamp(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewEventSQLite(db)

	nonEmptyString := argFunc(func(v driver.Value) bool {
		s, ok := v.(string)
		return ok && s != ""
	})

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO cycle_events")).
		WithArgs(nonEmptyString, nonEmptyString, "COMMAND", "light on", nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Append(context.Background(), supercycler.CycleEvent{
		Type:        "command",
		Description: "light on",
	})
	if err != nil {
		t.Fatalf("Append(): %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEventSQLite_List_FiltersByRangeAndType(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewEventSQLite(db)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	occurred := from.Add(6 * time.Hour)

	rows := sqlmock.NewRows([]string{"id", "occurred_at", "type", "message", "meta"}).
		AddRow("ev-1", occurred, "COMMAND", "light on", `{"phase":"ON"}`)

	mock.ExpectQuery(regexp.QuoteMeta("occurred_at >= ? AND occurred_at <= ? AND type = ?")).
		WithArgs(from, to, "COMMAND").
		WillReturnRows(rows)

	events, err := repo.List(context.Background(), from, to, "command")
	if err != nil {
		t.Fatalf("List(): %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.EventID != "ev-1" || ev.Type != "COMMAND" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	meta, ok := ev.Metadata.(map[string]any)
	if !ok || meta["phase"] != "ON" {
		t.Fatalf("metadata not decoded: %#v", ev.Metadata)
	}
}

func TestEventSQLite_List_NoFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewEventSQLite(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, occurred_at, type, message, meta FROM cycle_events ORDER BY occurred_at ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "occurred_at", "type", "message", "meta"}))

	events, err := repo.List(context.Background(), time.Time{}, time.Time{}, "")
	if err != nil {
		t.Fatalf("List(): %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("got %d events, want 0", len(events))
	}
}
