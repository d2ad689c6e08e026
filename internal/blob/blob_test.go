package blob

import (
	"context"
	"path/filepath"
	"testing"

	"famiglia/internal/config"
)

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		cfg  config.Blob
		want Driver
	}{
		{"default fs", config.Blob{FSRoot: filepath.Join(t.TempDir(), "a")}, DriverFilesystem},
		{"memory", config.Blob{Driver: "memory"}, DriverMemory},
		{"s3", config.Blob{Driver: "s3", S3: config.S3{Bucket: "archives", Region: "eu-west-1"}}, DriverS3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, err := Open(ctx, tc.cfg)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			if store.Driver() != tc.want {
				t.Fatalf("got %s want %s", store.Driver(), tc.want)
			}
		})
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), config.Blob{Driver: "gcs"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
	if _, err := Open(context.Background(), config.Blob{Driver: "s3"}); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}
