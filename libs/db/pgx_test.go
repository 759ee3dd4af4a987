package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert shop: %w", &pgconn.PgError{Code: "23505", ConstraintName: "shops_email_key"})
	if !IsUniqueViolation(err, "") {
		t.Fatalf("expected wrapped 23505 to match")
	}
	if !IsUniqueViolation(err, "shops_email_key") {
		t.Fatalf("expected named constraint to match")
	}
	if IsUniqueViolation(err, "customers_email_key") {
		t.Fatalf("expected other constraint not to match")
	}
	if IsUniqueViolation(errors.New("boom"), "") {
		t.Fatalf("expected plain error not to match")
	}
}

func TestIsExclusionViolation(t *testing.T) {
	if !IsExclusionViolation(&pgconn.PgError{Code: "23P01"}) {
		t.Fatalf("expected 23P01 to match")
	}
	if IsExclusionViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatalf("expected 23505 not to match")
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	if !IsForeignKeyViolation(fmt.Errorf("upsert: %w", &pgconn.PgError{Code: "23503"})) {
		t.Fatalf("expected 23503 to match")
	}
}
