package integration

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"famiglia/internal/blob"
	"famiglia/internal/config"
	"famiglia/internal/core"
	"famiglia/internal/infra/blob/fs"
	"famiglia/internal/infra/blob/s3"
	"famiglia/pkg/domain"
)

// TestIntegrationSmoke runs a short succession scenario against every
// in-process store and archives the result into every blob adapter.
func TestIntegrationSmoke(t *testing.T) {
	ctx := context.Background()

	storeVariants := []struct {
		name string
		cfg  func(t *testing.T) config.Storage
	}{
		{
			name: "memory-store",
			cfg:  func(*testing.T) config.Storage { return config.Storage{Driver: "memory"} },
		},
		{
			name: "sqlite-store",
			cfg: func(t *testing.T) config.Storage {
				return config.Storage{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "famiglia.db")}
			},
		},
	}

	blobVariants := []struct {
		name string
		open func(t *testing.T) blob.Store
	}{
		{
			name: "memory-blob",
			open: func(*testing.T) blob.Store { return blob.NewMemory() },
		},
		{
			name: "filesystem-blob",
			open: func(t *testing.T) blob.Store {
				store, err := fs.New(t.TempDir())
				if err != nil {
					t.Fatalf("new filesystem blob: %v", err)
				}
				return store
			},
		},
		{
			name: "mock-s3-blob",
			open: func(*testing.T) blob.Store { return s3.NewMockForTests(1) },
		},
	}

	for _, sv := range storeVariants {
		for _, bv := range blobVariants {
			t.Run(sv.name+"/"+bv.name, func(t *testing.T) {
				store, err := core.OpenPersistentStore(sv.cfg(t), core.NewDefaultRulesEngine(false))
				if err != nil {
					t.Fatalf("open store: %v", err)
				}
				if closer, ok := store.(io.Closer); ok {
					t.Cleanup(func() { _ = closer.Close() })
				}
				metrics := core.NewExpvarMetricsRecorder("")
				var traces bytes.Buffer
				tracer := core.NewJSONTracer(&traces)
				svc := core.NewService(store,
					core.WithMetricsRecorder(metrics),
					core.WithTracer(tracer),
					core.WithArchive(bv.open(t)),
				)

				if _, _, err := svc.Found(ctx, domain.NewMember(1, 70)); err != nil {
					t.Fatalf("found: %v", err)
				}
				for _, m := range []domain.Member{
					domain.NewMember(2, 50).ReportingTo(1),
					domain.NewMember(3, 45).ReportingTo(1),
					domain.NewMember(4, 30).ReportingTo(2),
					domain.NewMember(5, 25).ReportingTo(2),
				} {
					if _, _, err := svc.AddMember(ctx, m); err != nil {
						t.Fatalf("add %d: %v", m.ID, err)
					}
				}
				res, err := svc.SendToPrison(ctx, 2)
				if err != nil {
					t.Fatalf("imprison: %v", err)
				}
				if res.HasBlocking() {
					t.Fatalf("unexpected blocking violations: %+v", res.Violations)
				}
				if _, err := svc.ReleaseFromPrison(ctx, 2); err != nil {
					t.Fatalf("release: %v", err)
				}

				bosses, err := svc.FindBigBosses(ctx, 1)
				if err != nil {
					t.Fatalf("big bosses: %v", err)
				}
				if len(bosses) == 0 || bosses[0].ID != 1 {
					t.Fatalf("expected godfather among big bosses, got %+v", bosses)
				}

				info, err := svc.ExportSnapshot(ctx, "")
				if err != nil {
					t.Fatalf("export: %v", err)
				}
				if !strings.HasPrefix(info.Key, core.ArchivePrefix) || info.Size <= 0 {
					t.Fatalf("unexpected archive info %+v", info)
				}
				if _, err := svc.ExportSnapshot(ctx, info.Key); !errors.Is(err, blob.ErrExists) {
					t.Fatalf("expected existing key rejection, got %v", err)
				}
				listed, err := svc.ListArchives(ctx)
				if err != nil || len(listed) != 1 || listed[0].Key != info.Key {
					t.Fatalf("unexpected archive listing %+v err=%v", listed, err)
				}

				live, err := svc.Snapshot(ctx)
				if err != nil {
					t.Fatalf("snapshot: %v", err)
				}
				loaded, err := svc.LoadArchive(ctx, info.Key)
				if err != nil {
					t.Fatalf("load archive: %v", err)
				}
				if !reflect.DeepEqual(live, loaded) {
					t.Fatalf("archive differs from live state:\n%+v\n%+v", live, loaded)
				}

				if metrics.Count("send_to_prison", true) != 1 || metrics.Count("export_snapshot", false) != 1 {
					t.Fatalf("unexpected metrics in %s", metrics.Name())
				}
				if traces.Len() == 0 {
					t.Fatalf("expected trace output")
				}
				var sawRelease bool
				for _, entry := range tracer.Entries() {
					if entry.Operation == "release_from_prison" && entry.Status == "success" {
						sawRelease = true
					}
				}
				if !sawRelease {
					t.Fatalf("expected release span, entries=%+v", tracer.Entries())
				}
			})
		}
	}
}
