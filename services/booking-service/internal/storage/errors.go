package storage

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/barberbook/libs/db"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already in use")
	ErrSlotTaken  = errors.New("time slot already booked")
)

// IsConflict reports an overlapping appointment rejected by appointments_no_overlap.
func IsConflict(err error) bool {
	return errors.Is(err, ErrSlotTaken) || db.IsExclusionViolation(err)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, pgx.ErrNoRows)
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
