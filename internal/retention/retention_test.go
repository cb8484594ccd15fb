// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package retention

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bomrepo/bom-repo-server/internal/bom"
	"github.com/bomrepo/bom-repo-server/internal/bomstore"
	"github.com/bomrepo/bom-repo-server/lib/clock"
)

const testSerial = "urn:uuid:3e671687-395b-41f5-a30f-a58921a69b79"

func newTestStore(t *testing.T) *bomstore.Store {
	t.Helper()
	store, err := bomstore.Open(filepath.Join(t.TempDir(), "repo"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return store
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSweepEnforcesMaxVersionsPerSerial(t *testing.T) {
	store := newTestStore(t)
	for i := 0; i < 5; i++ {
		if _, err := store.Store(bomstore.Entry{SerialNumber: testSerial, Format: bom.FormatXML, Original: []byte("<bom/>")}); err != nil {
			t.Fatalf("Store: %v", err)
		}
	}

	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	sweeper := New(store, Policy{MaxVersionsPerSerial: 2}, fake, testLogger())

	if err := sweeper.Sweep(); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	versions, err := store.List(testSerial)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("versions = %v, want 2", versions)
	}
	if versions[0] != 4 || versions[1] != 5 {
		t.Errorf("versions = %v, want [4 5] (highest kept)", versions)
	}
}

func TestSweepEnforcesMaxAgeDays(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := store.Store(bomstore.Entry{SerialNumber: testSerial, Version: 1, Format: bom.FormatXML, Original: []byte("<bom/>"), StoredAt: base}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if _, err := store.Store(bomstore.Entry{SerialNumber: testSerial, Version: 2, Format: bom.FormatXML, Original: []byte("<bom/>"), StoredAt: base.AddDate(0, 0, 10)}); err != nil {
		t.Fatalf("Store: %v", err)
	}

	fake := clock.Fake(base.AddDate(0, 0, 20))
	sweeper := New(store, Policy{MaxAgeDays: 5}, fake, testLogger())

	if err := sweeper.Sweep(); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	versions, err := store.List(testSerial)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(versions) != 1 || versions[0] != 2 {
		t.Errorf("versions = %v, want [2]", versions)
	}
}

func TestSweepNeverPrunesLastVersion(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := store.Store(bomstore.Entry{SerialNumber: testSerial, Version: 1, Format: bom.FormatXML, Original: []byte("<bom/>"), StoredAt: base}); err != nil {
		t.Fatalf("Store: %v", err)
	}

	fake := clock.Fake(base.AddDate(10, 0, 0))
	sweeper := New(store, Policy{MaxAgeDays: 1}, fake, testLogger())

	if err := sweeper.Sweep(); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	versions, err := store.List(testSerial)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(versions) != 1 {
		t.Errorf("versions = %v, want last version retained", versions)
	}
}

func TestSweepReapsStaleStagingDirectories(t *testing.T) {
	store := newTestStore(t)
	tmpDir := filepath.Join(store.Root(), ".tmp", "abandoned")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	old := time.Now().Add(-30 * time.Minute)
	if err := os.Chtimes(tmpDir, old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	sweeper := New(store, Policy{}, clock.Real(), testLogger())
	if err := sweeper.Sweep(); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if _, err := os.Stat(tmpDir); !os.IsNotExist(err) {
		t.Error("stale staging directory should have been reaped")
	}
}
