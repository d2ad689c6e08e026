package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"famiglia/internal/blob"
	"famiglia/pkg/domain"
)

// ArchivePrefix is the key prefix under which snapshots are exported.
const ArchivePrefix = "snapshots/"

// ErrNoArchive is returned by archive operations on a service without a blob store.
var ErrNoArchive = errors.New("no archive store configured")

// ExportSnapshot writes the current organization as JSON to the archive. An
// empty key generates snapshots/<uuid>.json. Existing keys are never overwritten.
func (s *Service) ExportSnapshot(ctx context.Context, key string) (blob.Info, error) {
	var info blob.Info
	err := s.read(ctx, opExportSnapshot, 0, func(v TransactionView) error {
		if s.archive == nil {
			return ErrNoArchive
		}
		snap := v.Export()
		if snap.Empty() {
			return domain.ErrNoOrganization
		}
		payload, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		if key == "" {
			key = ArchivePrefix + uuid.NewString() + ".json"
		}
		info, err = s.archive.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
			ContentType: "application/json",
			Metadata: map[string]string{
				"godfather": strconv.Itoa(int(snap.Godfather)),
				"members":   strconv.Itoa(len(snap.Members)),
				"prisoners": strconv.Itoa(len(snap.Prison)),
			},
		})
		if err != nil {
			return fmt.Errorf("put %s: %w", key, err)
		}
		return nil
	})
	return info, err
}

// LoadArchive reads and validates an exported snapshot without touching the live store.
func (s *Service) LoadArchive(ctx context.Context, key string) (Snapshot, error) {
	var snap Snapshot
	err := s.guarded(ctx, opLoadArchive, 0, func(ctx context.Context) error {
		if s.archive == nil {
			return ErrNoArchive
		}
		_, rc, err := s.archive.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		defer func() { _ = rc.Close() }()
		var decoded Snapshot
		if err := json.NewDecoder(rc).Decode(&decoded); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		if _, err := domain.RestoreOrganization(decoded); err != nil {
			return fmt.Errorf("validate %s: %w", key, err)
		}
		snap = decoded
		return nil
	})
	return snap, err
}

// ListArchives lists exported snapshots.
func (s *Service) ListArchives(ctx context.Context) ([]blob.Info, error) {
	var out []blob.Info
	err := s.guarded(ctx, opListArchives, 0, func(ctx context.Context) error {
		if s.archive == nil {
			return ErrNoArchive
		}
		var err error
		out, err = s.archive.List(ctx, ArchivePrefix)
		return err
	})
	return out, err
}
