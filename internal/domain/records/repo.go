package records

import "context"

// RecordRepository defines storage operations for patient records.
//
// EnsureSchema and SeedIfEmpty are both idempotent so initialization can be
// re-run safely; SeedIfEmpty inserts rows only when the store holds none.
// Create assigns the next unique id and fills it on the passed record; the
// insert is atomic, so readers either see the whole row or none of it.
// List returns records in ascending id order. GetByID returns ErrNotFound
// for an id that was never assigned. Any driver-level failure surfaces as
// *StorageError, never as a not-found.
type RecordRepository interface {
	EnsureSchema(ctx context.Context) error
	SeedIfEmpty(ctx context.Context, rows []SeedRecord) (int, error)
	Create(ctx context.Context, rec *PatientRecord) error
	GetByID(ctx context.Context, id int64) (*PatientRecord, error)
	List(ctx context.Context) ([]*PatientRecord, error)
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}
