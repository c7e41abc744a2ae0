package booking

import (
	"context"
	"fmt"

	"rentalhub/internal/database"

	"gorm.io/gorm"
)

// OverlapConstraint is the postgres exclusion constraint that backs the
// accepted-overlap rule at the storage level.
const OverlapConstraint = "bookings_no_accepted_overlap"

// Migrate creates the bookings table and, on postgres, its constraints.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := database.Migrate(db, &Booking{}); err != nil {
		return err
	}
	return EnsureOverlapConstraint(ctx, db)
}

// EnsureOverlapConstraint is a no-op on SQLite.
func EnsureOverlapConstraint(ctx context.Context, db *gorm.DB) error {
	if !database.IsPostgres(db) {
		return nil
	}

	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS btree_gist`,
		`DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'bookings_dates_ordered') THEN
		ALTER TABLE bookings ADD CONSTRAINT bookings_dates_ordered CHECK (start_date < end_date);
	END IF;
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '` + OverlapConstraint + `') THEN
		ALTER TABLE bookings ADD CONSTRAINT ` + OverlapConstraint + `
			EXCLUDE USING gist (property_id WITH =, daterange(start_date, end_date, '[)') WITH &&)
			WHERE (status = 'ACCEPTED');
	END IF;
END $$`,
	}
	for _, stmt := range stmts {
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("ensure booking constraints: %w", err)
		}
	}
	return nil
}
