package records

import (
	"context"
	"encoding/binary"

	"github.com/fxamacker/cbor/v2"
	"go.etcd.io/bbolt"
)

var recordBucket = []byte("patient_records")

type recordRepoBolt struct{ db *bbolt.DB }

// NewRecordRepoBolt returns a RecordRepository backed by an embedded bbolt
// file. Ids come from the bucket sequence; values are CBOR-encoded and keyed
// big-endian so a forward cursor walk yields ascending id order.
func NewRecordRepoBolt(db *bbolt.DB) RecordRepository {
	return &recordRepoBolt{db: db}
}

func recordKey(id int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(id))
	return key
}

func (r *recordRepoBolt) EnsureSchema(ctx context.Context) error {
	err := r.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(recordBucket)
		return err
	})
	if err != nil {
		return &StorageError{Op: "ensure schema", Err: err}
	}
	return nil
}

func (r *recordRepoBolt) SeedIfEmpty(ctx context.Context, rows []SeedRecord) (int, error) {
	inserted := 0
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(recordBucket)
		if b == nil {
			return bbolt.ErrBucketNotFound
		}
		if b.Stats().KeyN > 0 {
			return nil
		}
		for _, row := range rows {
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			rec := PatientRecord{
				ID:            int64(seq),
				Name:          row.Name,
				Age:           row.Age,
				Condition:     row.Condition,
				AdmissionDate: row.AdmissionDate,
			}
			val, err := cbor.Marshal(&rec)
			if err != nil {
				return err
			}
			if err := b.Put(recordKey(rec.ID), val); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, &StorageError{Op: "seed records", Err: err}
	}
	return inserted, nil
}

func (r *recordRepoBolt) Create(ctx context.Context, rec *PatientRecord) error {
	var id int64
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(recordBucket)
		if b == nil {
			return bbolt.ErrBucketNotFound
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		stored := *rec
		stored.ID = int64(seq)
		val, err := cbor.Marshal(&stored)
		if err != nil {
			return err
		}
		if err := b.Put(recordKey(stored.ID), val); err != nil {
			return err
		}
		id = stored.ID
		return nil
	})
	if err != nil {
		return &StorageError{Op: "insert record", Err: err}
	}
	rec.ID = id
	return nil
}

func (r *recordRepoBolt) GetByID(ctx context.Context, id int64) (*PatientRecord, error) {
	var rec *PatientRecord
	err := r.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(recordBucket)
		if b == nil {
			return bbolt.ErrBucketNotFound
		}
		val := b.Get(recordKey(id))
		if val == nil {
			return nil
		}
		var decoded PatientRecord
		if err := cbor.Unmarshal(val, &decoded); err != nil {
			return err
		}
		rec = &decoded
		return nil
	})
	if err != nil {
		return nil, &StorageError{Op: "get record", Err: err}
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (r *recordRepoBolt) List(ctx context.Context) ([]*PatientRecord, error) {
	items := []*PatientRecord{}
	err := r.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(recordBucket)
		if b == nil {
			return bbolt.ErrBucketNotFound
		}
		return b.ForEach(func(k, v []byte) error {
			var rec PatientRecord
			if err := cbor.Unmarshal(v, &rec); err != nil {
				return err
			}
			items = append(items, &rec)
			return nil
		})
	})
	if err != nil {
		return nil, &StorageError{Op: "list records", Err: err}
	}
	return items, nil
}

func (r *recordRepoBolt) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(recordBucket)
		if b == nil {
			return bbolt.ErrBucketNotFound
		}
		n = int64(b.Stats().KeyN)
		return nil
	})
	if err != nil {
		return 0, &StorageError{Op: "count records", Err: err}
	}
	return n, nil
}

func (r *recordRepoBolt) Ping(ctx context.Context) error {
	err := r.db.View(func(tx *bbolt.Tx) error { return nil })
	if err != nil {
		return &StorageError{Op: "ping store", Err: err}
	}
	return nil
}
