// Package buckets maps an organization snapshot onto the rows of the SQL
// stores' state(bucket, payload) table. The node arena and the membership
// registry are kept in separate JSON payloads.
package buckets

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"famiglia/pkg/domain"
)

const (
	Nodes    = "nodes"
	Registry = "registry"
)

// SelectSQL reads every bucket. It is portable across the SQL backends.
const SelectSQL = `SELECT bucket, payload FROM state`

// Order is the order buckets are written in.
var Order = []string{Nodes, Registry}

type registry struct {
	Godfather domain.MemberID   `json:"godfather"`
	Members   []domain.MemberID `json:"members"`
	Prison    []domain.MemberID `json:"prison"`
}

// Encode splits snap into one payload per bucket.
func Encode(snap domain.Snapshot) (map[string][]byte, error) {
	out := make(map[string][]byte, len(Order))
	for bucket, value := range map[string]any{
		Nodes:    snap.Nodes,
		Registry: registry{Godfather: snap.Godfather, Members: snap.Members, Prison: snap.Prison},
	} {
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", bucket, err)
		}
		out[bucket] = data
	}
	return out, nil
}

// Decoder reassembles a snapshot from bucket rows read in any order.
type Decoder struct {
	snap domain.Snapshot
	reg  registry
	seen bool
}

// Add decodes one bucket row. Unknown buckets and empty payloads are skipped.
func (d *Decoder) Add(bucket string, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	var target any
	switch bucket {
	case Nodes:
		target = &d.snap.Nodes
	case Registry:
		target = &d.reg
	default:
		return nil
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("decode %s: %w", bucket, err)
	}
	d.seen = true
	return nil
}

// Snapshot returns the assembled snapshot and whether any bucket was decoded.
func (d *Decoder) Snapshot() (domain.Snapshot, bool) {
	snap := d.snap
	snap.Godfather = d.reg.Godfather
	snap.Members = d.reg.Members
	snap.Prison = d.reg.Prison
	return snap, d.seen
}

// Load reads all buckets through q.
func Load(ctx context.Context, q interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}) (domain.Snapshot, bool, error) {
	rows, err := q.QueryContext(ctx, SelectSQL)
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var dec Decoder
	for rows.Next() {
		var (
			bucket  string
			payload []byte
		)
		if err := rows.Scan(&bucket, &payload); err != nil {
			return domain.Snapshot{}, false, fmt.Errorf("scan state: %w", err)
		}
		if err := dec.Add(bucket, payload); err != nil {
			return domain.Snapshot{}, false, err
		}
	}
	if err := rows.Err(); err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("iterate state: %w", err)
	}
	snap, ok := dec.Snapshot()
	return snap, ok, nil
}

// Save writes every bucket of snap inside tx using upsertSQL, which takes the
// bucket name and payload as its two parameters.
func Save(ctx context.Context, tx *sql.Tx, upsertSQL string, snap domain.Snapshot) error {
	payloads, err := Encode(snap)
	if err != nil {
		return err
	}
	for _, bucket := range Order {
		if _, err := tx.ExecContext(ctx, upsertSQL, bucket, payloads[bucket]); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	return nil
}
