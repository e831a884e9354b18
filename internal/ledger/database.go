package ledger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.etcd.io/bbolt"
)

// columnsBucket holds the title columns of every table, keyed by table name
const columnsBucket = "_columns"

// BoltDB implements the Table interface using BoltDB. Each table is a bucket
// whose keys are big-endian sequence numbers, so iteration is append order.
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(columnsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// Append adds rows to a table bucket
func (b *BoltDB) Append(ctx context.Context, table string, columns []string, rows [][]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if table == columnsBucket {
		return fmt.Errorf("reserved table name: %s", table)
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(table))
		if err != nil {
			return fmt.Errorf("creating table %s: %w", table, err)
		}

		meta := tx.Bucket([]byte(columnsBucket))
		if meta.Get([]byte(table)) == nil {
			data, err := json.Marshal(columns)
			if err != nil {
				return fmt.Errorf("marshaling columns: %w", err)
			}
			if err := meta.Put([]byte(table), data); err != nil {
				return err
			}
		}

		for _, row := range rows {
			seq, err := bucket.NextSequence()
			if err != nil {
				return err
			}
			data, err := json.Marshal(row)
			if err != nil {
				return fmt.Errorf("marshaling row: %w", err)
			}
			if err := bucket.Put(itob(seq), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Columns returns the title columns of a table
func (b *BoltDB) Columns(ctx context.Context, table string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var columns []string
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(columnsBucket)).Get([]byte(table))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &columns)
	})
	if err != nil {
		return nil, err
	}
	return columns, nil
}

// Rows returns every row of a table
func (b *BoltDB) Rows(ctx context.Context, table string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows := make([][]string, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(table))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			var cells []any
			if err := json.Unmarshal(v, &cells); err != nil {
				return fmt.Errorf("unmarshaling row: %w", err)
			}
			row := make([]string, len(cells))
			for i, c := range cells {
				row[i] = formatCell(c)
			}
			rows = append(rows, row)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// formatCell renders a cell the way a spreadsheet displays it
func formatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	default:
		return fmt.Sprint(c)
	}
}
