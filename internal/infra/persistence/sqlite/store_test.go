package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"famiglia/internal/infra/persistence/buckets"
	"famiglia/pkg/domain"
)

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	store, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStorePersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store := openStore(t, path)
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.Found(domain.NewMember(1, 70)); err != nil {
			return err
		}
		if _, err := tx.AddMember(domain.NewMember(2, 50).ReportingTo(1)); err != nil {
			return err
		}
		if _, err := tx.AddMember(domain.NewMember(3, 40).ReportingTo(1)); err != nil {
			return err
		}
		if _, err := tx.AddMember(domain.NewMember(4, 20).ReportingTo(2)); err != nil {
			return err
		}
		return tx.SendToPrison(2)
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	want := store.ExportState()

	reloaded := openStore(t, path)
	got := reloaded.ExportState()
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("reloaded state differs:\n%+v\n%+v", want, got)
	}
	if _, err := reloaded.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		return tx.ReleaseFromPrison(2)
	}); err != nil {
		t.Fatalf("release after reload: %v", err)
	}
	if reloaded.Path() != path {
		t.Fatalf("unexpected path %s", reloaded.Path())
	}
}

func TestSQLiteStoreWritesBuckets(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "nested", "state.db"))
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.Found(domain.NewMember(1, 70))
		return err
	}); err != nil {
		t.Fatalf("found: %v", err)
	}
	rows, err := store.DB().Query(`SELECT bucket FROM state ORDER BY bucket`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer func() { _ = rows.Close() }()
	var names []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			t.Fatalf("scan: %v", err)
		}
		names = append(names, b)
	}
	if !reflect.DeepEqual(names, buckets.Order) {
		t.Fatalf("unexpected buckets %v", names)
	}
}

func TestSQLiteStoreDoesNotPersistFailedTransactions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store := openStore(t, path)
	sentinel := errors.New("abort")
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.Found(domain.NewMember(1, 70)); err != nil {
			return err
		}
		return sentinel
	}); !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}
	var count int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM state`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no persisted rows, got %d", count)
	}
}

func TestSQLiteStoreRejectsCorruptPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store := openStore(t, path)
	if _, err := store.DB().Exec(`INSERT INTO state(bucket,payload) VALUES(?,?)`, buckets.Nodes, []byte("{")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := NewStore(path, nil); err == nil {
		t.Fatalf("expected decode error")
	}
}
