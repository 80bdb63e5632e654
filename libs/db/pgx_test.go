package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "bookings_single_slot"})
	if !IsUniqueViolation(err) {
		t.Fatal("expected unique violation")
	}
	if !IsUniqueViolation(err, "bookings_single_slot") {
		t.Fatal("expected match on constraint name")
	}
	if IsUniqueViolation(err, "other") {
		t.Fatal("expected no match on other constraint")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("expected foreign key violation not to match")
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(fmt.Errorf("get: %w", pgx.ErrNoRows)) {
		t.Fatal("expected wrapped ErrNoRows to match")
	}
	if IsNotFound(errors.New("other")) {
		t.Fatal("expected other error not to match")
	}
}

func TestReadyCheckUnconfigured(t *testing.T) {
	if err := ReadyCheck(nil)(context.Background()); err == nil {
		t.Fatal("expected error for nil pool")
	}
}
