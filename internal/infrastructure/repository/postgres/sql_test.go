package postgres

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/riskibarqy/gift-exchange/internal/domain/game"
)

func TestIsConstraintViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "unique", err: &pq.Error{Code: "23505"}, want: true},
		{name: "check", err: &pq.Error{Code: "23514"}, want: true},
		{name: "foreign key", err: &pq.Error{Code: "23503"}, want: true},
		{name: "wrapped unique", err: fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), want: true},
		{name: "serialization failure", err: &pq.Error{Code: "40001"}, want: false},
		{name: "plain error", err: fakeErr("pq: relation assignments does not exist"), want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := isConstraintViolation(tc.err); got != tc.want {
				t.Fatalf("isConstraintViolation() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(fmt.Errorf("get game: %w", sql.ErrNoRows)) {
		t.Fatalf("expected wrapped sql.ErrNoRows to be not found")
	}
	if isNotFound(fakeErr("boom")) {
		t.Fatalf("expected unrelated error to not be not found")
	}
}

func TestDateOnly(t *testing.T) {
	if dateOnly(nil) != nil {
		t.Fatalf("expected nil for nil input")
	}
	in := time.Date(2026, 12, 24, 18, 30, 0, 0, time.FixedZone("WIB", 7*3600))
	got := dateOnly(&in)
	want := time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("dateOnly() = %s, want %s", got, want)
	}
}

func TestGameFromRow(t *testing.T) {
	delivery := time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC)
	row := gameTableModel{
		PublicID:     "g1",
		Name:         "Office",
		Mode:         "classic",
		DeliveryDate: &delivery,
		Status:       "active",
	}
	ids := []string{"a", "b", "c"}

	g := gameFromRow(row, ids)
	if g.ID != "g1" || g.Mode != game.ModeClassic || g.Status != game.StatusActive {
		t.Fatalf("unexpected game: %+v", g)
	}
	ids[0] = "mutated"
	if g.ParticipantIDs[0] != "a" {
		t.Fatalf("gameFromRow must copy participant ids")
	}
}

func TestGameParticipantRowsKeepOrder(t *testing.T) {
	rows := gameParticipantRows("g1", []string{"c", "a", "b"})
	for i, want := range []string{"c", "a", "b"} {
		row := rows[i].(gameParticipantModel)
		if row.ParticipantID != want || row.Position != i {
			t.Fatalf("row %d = %+v", i, row)
		}
	}
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
