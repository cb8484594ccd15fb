// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package repository implements the long-lived metadata service: it
// starts the retention GC sweeper and tracks repository-wide metadata
// (per-serial first-seen timestamp, highest schema version submitted,
// version counts) for operational visibility, persisted as
// deterministic CBOR records.
package repository

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bomrepo/bom-repo-server/internal/bom"
	"github.com/bomrepo/bom-repo-server/internal/bomstore"
	"github.com/bomrepo/bom-repo-server/internal/retention"
	"github.com/bomrepo/bom-repo-server/lib/codec"
)

// SerialStats is the per-serial tracking record the metadata service
// maintains, persisted as CBOR under <root>/.metadata/<escapedSerial>.
type SerialStats struct {
	SerialNumber       string        `cbor:"serial_number"`
	FirstSeen          time.Time     `cbor:"first_seen"`
	HighestSchemaSeen  bom.SchemaVersion `cbor:"highest_schema_seen"`
	VersionCount       int           `cbor:"version_count"`
}

// Service is the background metadata-tracking component. It wraps a
// Store and a retention.Sweeper, persisting per-serial statistics
// across process restarts.
type Service struct {
	store    *bomstore.Store
	sweeper  *retention.Sweeper
	logger   *slog.Logger
	metaRoot string

	mu    sync.Mutex
	stats map[string]*SerialStats
}

// New constructs the metadata service. metaRoot is the directory
// tracking records are persisted under; it is created if absent.
func New(store *bomstore.Store, sweeper *retention.Sweeper, metaRoot string, logger *slog.Logger) (*Service, error) {
	if err := os.MkdirAll(metaRoot, 0o755); err != nil {
		return nil, fmt.Errorf("creating metadata directory: %w", err)
	}

	service := &Service{
		store:    store,
		sweeper:  sweeper,
		logger:   logger,
		metaRoot: metaRoot,
		stats:    make(map[string]*SerialStats),
	}

	if err := service.load(); err != nil {
		return nil, fmt.Errorf("loading metadata: %w", err)
	}

	return service, nil
}

// Run starts the retention sweeper and blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	s.sweeper.Run(ctx)
}

// RecordSubmission updates the tracking record for serialNumber after
// a successful Store. Call this from the POST /bom handler.
func (s *Service) RecordSubmission(serialNumber string, schemaVersion bom.SchemaVersion, storedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, ok := s.stats[serialNumber]
	if !ok {
		stats = &SerialStats{SerialNumber: serialNumber, FirstSeen: storedAt}
		s.stats[serialNumber] = stats
	}
	stats.VersionCount++
	if stats.HighestSchemaSeen == "" || stats.HighestSchemaSeen.Before(schemaVersion) {
		stats.HighestSchemaSeen = schemaVersion
	}

	return s.persist(stats)
}

// Stats returns a snapshot of the tracking record for serialNumber, or
// false if the serial has never been submitted.
func (s *Service) Stats(serialNumber string) (SerialStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, ok := s.stats[serialNumber]
	if !ok {
		return SerialStats{}, false
	}
	return *stats, true
}

// AllStats returns a snapshot of every tracked serial's statistics.
func (s *Service) AllStats() []SerialStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SerialStats, 0, len(s.stats))
	for _, stats := range s.stats {
		out = append(out, *stats)
	}
	return out
}

func (s *Service) persist(stats *SerialStats) error {
	data, err := codec.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshaling stats for %s: %w", stats.SerialNumber, err)
	}
	path := s.recordPath(stats.SerialNumber)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing stats for %s: %w", stats.SerialNumber, err)
	}
	return nil
}

func (s *Service) load() error {
	entries, err := os.ReadDir(s.metaRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.metaRoot, entry.Name()))
		if err != nil {
			s.logger.Warn("skipping unreadable metadata record", "file", entry.Name(), "error", err)
			continue
		}
		var stats SerialStats
		if err := codec.Unmarshal(data, &stats); err != nil {
			s.logger.Warn("skipping malformed metadata record", "file", entry.Name(), "error", err)
			continue
		}
		s.stats[stats.SerialNumber] = &stats
	}

	return nil
}

func (s *Service) recordPath(serialNumber string) string {
	return filepath.Join(s.metaRoot, url.PathEscape(serialNumber))
}
