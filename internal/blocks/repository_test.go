package blocks

import (
	"context"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/lunanails/booking-api/internal/schedule"
)

func mustDate(t *testing.T, s string) schedule.Date {
	t.Helper()
	d, err := schedule.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func TestBlockIsIdempotent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := newRepositoryWithQuerier(mock)
	d := mustDate(t, "2025-03-03")

	// Duplicate insert hits ON CONFLICT DO NOTHING and affects zero rows.
	mock.ExpectExec("INSERT INTO blocked_schedule").
		WithArgs("2025-03-03", nil).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	if err := repo.Block(context.Background(), d, nil); err != nil {
		t.Fatalf("Block: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUnblockWholeDayKeepsSlotBlocks(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := newRepositoryWithQuerier(mock)
	d := mustDate(t, "2025-03-03")

	// Whole-day unblock must target only the NULL-time row.
	mock.ExpectExec(`DELETE FROM blocked_schedule WHERE blocked_date = \$1::date AND blocked_time IS NULL`).
		WithArgs("2025-03-03").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	if err := repo.Unblock(context.Background(), d, nil); err != nil {
		t.Fatalf("Unblock: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListBlocksSplitsWholeDayAndSlot(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := newRepositoryWithQuerier(mock)
	slotTime := "09:30:00"

	mock.ExpectQuery("SELECT blocked_date").
		WithArgs("2025-03-01", "2025-03-31").
		WillReturnRows(pgxmock.NewRows([]string{"blocked_date", "to_char"}).
			AddRow("2025-03-03", nil).
			AddRow("2025-03-04", &slotTime))

	got, err := repo.ListBlocks(context.Background(), mustDate(t, "2025-03-01"), mustDate(t, "2025-03-31"))
	if err != nil {
		t.Fatalf("ListBlocks: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(got))
	}
	if got[0].Time != nil {
		t.Fatalf("first block should be whole-day, got time %v", *got[0].Time)
	}
	if got[1].Time == nil || *got[1].Time != schedule.TimeOfDay("09:30:00") {
		t.Fatalf("second block should target 09:30:00, got %+v", got[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
