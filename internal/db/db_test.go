// Copyright (c) 2026 Warden Team
// Warden - application control policy toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"errors"
	"testing"
)

// newTestStore opens a fresh in-memory SQLite store with migrations applied.
func newTestStore(t *testing.T) Store {
	t.Helper()
	s, err := NewStoreFromDSN("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("NewStoreFromDSN: %v", err)
	}
	return s
}

func TestBaselineLifecycle(t *testing.T) {
	s := newTestStore(t)

	id, err := s.SaveBaseline("prod", `{"rules":{}}`, 3)
	if err != nil {
		t.Fatalf("SaveBaseline: %v", err)
	}
	if id == 0 {
		t.Fatal("SaveBaseline returned id 0")
	}

	got, err := s.GetBaselineByName("prod")
	if err != nil {
		t.Fatalf("GetBaselineByName: %v", err)
	}
	if got.Name != "prod" || got.Document != `{"rules":{}}` || got.RuleCount != 3 {
		t.Fatalf("baseline = %+v, want stored values back", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	all, err := s.GetAllBaselines()
	if err != nil {
		t.Fatalf("GetAllBaselines: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("got %d baselines, want 1", len(all))
	}

	if err := s.DeleteBaseline("prod"); err != nil {
		t.Fatalf("DeleteBaseline: %v", err)
	}
	if _, err := s.GetBaselineByName("prod"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetBaselineByName after delete = %v, want ErrNotFound", err)
	}
}

func TestSaveBaselineReplacesByName(t *testing.T) {
	s := newTestStore(t)

	first, err := s.SaveBaseline("prod", `{"v":1}`, 1)
	if err != nil {
		t.Fatalf("SaveBaseline: %v", err)
	}
	second, err := s.SaveBaseline("prod", `{"v":2}`, 2)
	if err != nil {
		t.Fatalf("SaveBaseline (replace): %v", err)
	}
	if first != second {
		t.Errorf("replacement changed the row id: %d -> %d", first, second)
	}

	got, err := s.GetBaselineByName("prod")
	if err != nil {
		t.Fatalf("GetBaselineByName: %v", err)
	}
	if got.Document != `{"v":2}` || got.RuleCount != 2 {
		t.Fatalf("baseline = %+v, want replaced document", got)
	}

	all, err := s.GetAllBaselines()
	if err != nil {
		t.Fatalf("GetAllBaselines: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("got %d baselines, want 1 after in-place replace", len(all))
	}
}

func TestDeleteBaselineMissing(t *testing.T) {
	s := newTestStore(t)
	if err := s.DeleteBaseline("no-such"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("DeleteBaseline = %v, want ErrNotFound", err)
	}
}

func TestAuditLog(t *testing.T) {
	s := newTestStore(t)

	if err := s.LogAction("SYNTHESIZE", "artifact: host1.csv"); err != nil {
		t.Fatalf("LogAction: %v", err)
	}
	// Store operations audit themselves too.
	if _, err := s.SaveBaseline("prod", "{}", 0); err != nil {
		t.Fatalf("SaveBaseline: %v", err)
	}

	entries, err := s.GetAllAuditLogEntries()
	if err != nil {
		t.Fatalf("GetAllAuditLogEntries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d audit entries, want 2", len(entries))
	}
	// Newest first.
	if entries[0].Action != "SAVE_BASELINE" || entries[1].Action != "SYNTHESIZE" {
		t.Fatalf("entries = %+v, want newest first", entries)
	}
	if entries[1].Details != "artifact: host1.csv" {
		t.Errorf("Details = %q", entries[1].Details)
	}
	if entries[0].Username == "" {
		t.Error("audit entry missing username")
	}
}

func TestBackupRoundTrip(t *testing.T) {
	source := newTestStore(t)
	if _, err := source.SaveBaseline("prod", `{"v":1}`, 5); err != nil {
		t.Fatalf("SaveBaseline: %v", err)
	}
	if _, err := source.SaveBaseline("staging", `{"v":2}`, 2); err != nil {
		t.Fatalf("SaveBaseline: %v", err)
	}

	backup, err := source.ExportDataForBackup()
	if err != nil {
		t.Fatalf("ExportDataForBackup: %v", err)
	}
	if backup.SchemaVersion != 1 {
		t.Errorf("SchemaVersion = %d, want 1", backup.SchemaVersion)
	}
	if len(backup.Baselines) != 2 {
		t.Fatalf("backup has %d baselines, want 2", len(backup.Baselines))
	}
	if len(backup.AuditLogEntries) == 0 {
		t.Fatal("backup has no audit entries, want the save actions")
	}

	target := newTestStore(t)
	if _, err := target.SaveBaseline("stale", "{}", 0); err != nil {
		t.Fatalf("SaveBaseline: %v", err)
	}
	if err := target.ImportDataFromBackup(backup); err != nil {
		t.Fatalf("ImportDataFromBackup: %v", err)
	}

	restored, err := target.GetAllBaselines()
	if err != nil {
		t.Fatalf("GetAllBaselines: %v", err)
	}
	names := map[string]bool{}
	for _, b := range restored {
		names[b.Name] = true
	}
	if !names["prod"] || !names["staging"] || names["stale"] {
		t.Fatalf("restored baselines = %v, want exactly the backup contents", names)
	}
}

func TestSaveBaselineAfterRestore(t *testing.T) {
	source := newTestStore(t)
	if _, err := source.SaveBaseline("prod", `{"v":1}`, 5); err != nil {
		t.Fatalf("SaveBaseline: %v", err)
	}
	backup, err := source.ExportDataForBackup()
	if err != nil {
		t.Fatalf("ExportDataForBackup: %v", err)
	}

	target := newTestStore(t)
	if err := target.ImportDataFromBackup(backup); err != nil {
		t.Fatalf("ImportDataFromBackup: %v", err)
	}

	// Restored rows carry their original ids; a fresh insert right after
	// must not collide with them.
	if _, err := target.SaveBaseline("post-restore", `{"v":2}`, 1); err != nil {
		t.Fatalf("SaveBaseline after restore: %v", err)
	}
	baselines, err := target.GetAllBaselines()
	if err != nil {
		t.Fatalf("GetAllBaselines: %v", err)
	}
	if len(baselines) != 2 {
		t.Fatalf("got %d baselines, want 2", len(baselines))
	}
}

func TestInitDBSetsPackageStore(t *testing.T) {
	prev := store
	store = nil
	defer func() { store = prev }()

	if IsInitialized() {
		t.Fatal("IsInitialized() = true before InitDB")
	}
	if err := InitDB("sqlite", ":memory:"); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	if !IsInitialized() {
		t.Fatal("IsInitialized() = false after InitDB")
	}
	if _, err := SaveBaseline("prod", "{}", 0); err != nil {
		t.Fatalf("package-level SaveBaseline: %v", err)
	}
	got, err := GetBaselineByName("prod")
	if err != nil || got.Name != "prod" {
		t.Fatalf("package-level GetBaselineByName = %+v, %v", got, err)
	}
}

func TestNewStoreFromDSNUnsupportedType(t *testing.T) {
	if _, err := NewStoreFromDSN("oracle", "whatever"); err == nil {
		t.Fatal("NewStoreFromDSN accepted an unsupported db type")
	}
}

func TestMapDBError(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{name: "nil passes through", in: nil, want: nil},
		{name: "sqlite unique", in: errors.New("constraint failed: UNIQUE constraint failed: baselines.name"), want: ErrDuplicate},
		{name: "postgres 23505", in: errors.New(`ERROR: duplicate key value violates unique constraint "baselines_name_key" (SQLSTATE 23505)`), want: ErrDuplicate},
		{name: "mysql 1062", in: errors.New("Error 1062: Duplicate entry 'prod' for key 'name'"), want: ErrDuplicate},
		{name: "other error unchanged", in: errors.New("connection refused"), want: nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MapDBError(tc.in)
			if tc.want != nil {
				if !errors.Is(got, tc.want) {
					t.Fatalf("MapDBError(%v) = %v, want %v", tc.in, got, tc.want)
				}
				return
			}
			if got != tc.in {
				t.Fatalf("MapDBError(%v) = %v, want the input back", tc.in, got)
			}
		})
	}
}
