package database

import (
	"slices"
	"testing"
	"testing/fstest"
)

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_add_index.up.sql":           {Data: []byte("CREATE INDEX ...")},
		"001_balance_snapshots.up.sql":   {Data: []byte("CREATE TABLE ...")},
		"001_balance_snapshots.down.sql": {Data: []byte("DROP TABLE ...")},
		"README.md":                      {Data: []byte("notes")},
		"archive/000_old.up.sql":         {Data: []byte("old")},
	}

	tests := []struct {
		name    string
		applied []string
		want    []string
	}{
		{"fresh database", nil, []string{"001_balance_snapshots.up.sql", "002_add_index.up.sql"}},
		{"one applied", []string{"001_balance_snapshots.up.sql"}, []string{"002_add_index.up.sql"}},
		{"all applied", []string{"001_balance_snapshots.up.sql", "002_add_index.up.sql"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PendingMigrations(fsys, tt.applied)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("pending = %v, want %v", got, tt.want)
			}
		})
	}
}
