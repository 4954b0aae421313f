package payments

import (
	"context"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestProcessedStoreAlreadyProcessed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := newProcessedStoreWithExec(mock)

	mock.ExpectQuery("SELECT 1 FROM processed_webhook_events").
		WithArgs("square", "evt-1").
		WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(1))

	seen, err := store.AlreadyProcessed(context.Background(), "square", "evt-1")
	if err != nil {
		t.Fatalf("AlreadyProcessed: %v", err)
	}
	if !seen {
		t.Fatal("expected event to be reported as processed")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProcessedStoreMarkProcessedIdempotent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := newProcessedStoreWithExec(mock)

	mock.ExpectExec("INSERT INTO processed_webhook_events").
		WithArgs("square", "evt-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO processed_webhook_events").
		WithArgs("square", "evt-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	first, err := store.MarkProcessed(context.Background(), "square", "evt-1")
	if err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}
	second, err := store.MarkProcessed(context.Background(), "square", "evt-1")
	if err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}
	if !first || second {
		t.Fatalf("got first=%v second=%v, want true then false", first, second)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
