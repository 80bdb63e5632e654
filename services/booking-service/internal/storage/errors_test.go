package storage

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsConflict(t *testing.T) {
	if !IsConflict(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("expected unique violation to be a conflict")
	}
	if !IsConflict(fmt.Errorf("create: %w", ErrSlotTaken)) {
		t.Fatal("expected ErrSlotTaken to be a conflict")
	}
	if IsConflict(ErrSlotFull) {
		t.Fatal("expected ErrSlotFull not to be a conflict")
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(ErrNotFound) || !IsNotFound(pgx.ErrNoRows) {
		t.Fatal("expected not found")
	}
}

func TestNullableInt(t *testing.T) {
	if nullableInt(0) != nil {
		t.Fatal("expected nil for zero")
	}
	if p := nullableInt(15); p == nil || *p != 15 {
		t.Fatalf("expected 15, got %v", p)
	}
}
