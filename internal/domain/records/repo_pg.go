package records

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type recordRepoPG struct{ pool *pgxpool.Pool }

// NewRecordRepoPG returns a RecordRepository backed by a Postgres pool.
func NewRecordRepoPG(pool *pgxpool.Pool) RecordRepository {
	return &recordRepoPG{pool: pool}
}

const recordCols = `id, name, age, condition, admission_date`

const recordSchema = `
	CREATE TABLE IF NOT EXISTS patient_records (
		id             BIGSERIAL PRIMARY KEY,
		name           TEXT    NOT NULL,
		age            INTEGER NOT NULL CHECK (age BETWEEN 0 AND 120),
		condition      TEXT    NOT NULL,
		admission_date TEXT    NOT NULL
	)`

func scanRecord(row pgx.Row) (*PatientRecord, error) {
	var rec PatientRecord
	err := row.Scan(&rec.ID, &rec.Name, &rec.Age, &rec.Condition, &rec.AdmissionDate)
	return &rec, err
}

func (r *recordRepoPG) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, recordSchema); err != nil {
		return &StorageError{Op: "ensure schema", Err: err}
	}
	return nil
}

func (r *recordRepoPG) SeedIfEmpty(ctx context.Context, rows []SeedRecord) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, &StorageError{Op: "seed records", Err: err}
	}
	defer tx.Rollback(ctx)

	// Serialize against concurrent seeders so an empty store is populated
	// exactly once.
	if _, err := tx.Exec(ctx, `LOCK TABLE patient_records IN EXCLUSIVE MODE`); err != nil {
		return 0, &StorageError{Op: "seed records", Err: err}
	}
	n, err := r.count(ctx, tx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	for _, row := range rows {
		_, err := tx.Exec(ctx, `
			INSERT INTO patient_records (name, age, condition, admission_date)
			VALUES ($1, $2, $3, $4)`,
			row.Name, row.Age, row.Condition, row.AdmissionDate)
		if err != nil {
			return 0, &StorageError{Op: "seed records", Err: err}
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, &StorageError{Op: "seed records", Err: err}
	}
	return len(rows), nil
}

func (r *recordRepoPG) Create(ctx context.Context, rec *PatientRecord) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO patient_records (name, age, condition, admission_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		rec.Name, rec.Age, rec.Condition, rec.AdmissionDate).Scan(&rec.ID)
	if err != nil {
		return &StorageError{Op: "insert record", Err: err}
	}
	return nil
}

func (r *recordRepoPG) GetByID(ctx context.Context, id int64) (*PatientRecord, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx,
		`SELECT `+recordCols+` FROM patient_records WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, &StorageError{Op: "get record", Err: err}
	}
	return rec, nil
}

func (r *recordRepoPG) List(ctx context.Context) ([]*PatientRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordCols+` FROM patient_records ORDER BY id ASC`)
	if err != nil {
		return nil, &StorageError{Op: "list records", Err: err}
	}
	defer rows.Close()

	items := []*PatientRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, &StorageError{Op: "list records", Err: err}
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list records", Err: err}
	}
	return items, nil
}

func (r *recordRepoPG) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, r.pool)
}

func (r *recordRepoPG) count(ctx context.Context, q queryable) (int64, error) {
	var n int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM patient_records`).Scan(&n); err != nil {
		return 0, &StorageError{Op: "count records", Err: err}
	}
	return n, nil
}

func (r *recordRepoPG) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return &StorageError{Op: "ping store", Err: err}
	}
	return nil
}
