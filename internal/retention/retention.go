// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package retention implements the background sweeper that prunes old
// BOM versions per the configured retention policy and reaps abandoned
// .tmp staging directories left by crashed writers.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bomrepo/bom-repo-server/internal/bomstore"
	"github.com/bomrepo/bom-repo-server/lib/clock"
)

// staleStagingAge is how long a .tmp/<random> staging directory can
// sit unrenamed before the sweeper treats it as abandoned.
const staleStagingAge = 15 * time.Minute

// Policy configures the sweeper. Both bounds are optional; zero means
// unlimited. When both are set, an entry is pruned if it violates
// either bound (union, not intersection), but at least one version per
// serial is always kept.
type Policy struct {
	MaxVersionsPerSerial int
	MaxAgeDays           int
	Interval             time.Duration
}

// DefaultInterval is the sweep cadence when Policy.Interval is unset.
const DefaultInterval = time.Hour

// Sweeper periodically prunes bomstore.Store according to Policy.
type Sweeper struct {
	store  *bomstore.Store
	policy Policy
	clock  clock.Clock
	logger *slog.Logger
}

// New constructs a Sweeper. clk defaults to clock.Real() if nil.
func New(store *bomstore.Store, policy Policy, clk clock.Clock, logger *slog.Logger) *Sweeper {
	if clk == nil {
		clk = clock.Real()
	}
	if policy.Interval <= 0 {
		policy.Interval = DefaultInterval
	}
	return &Sweeper{store: store, policy: policy, clock: clk, logger: logger}
}

// Run executes sweeps on the configured interval until ctx is
// cancelled. Blocks until cancellation; call from its own goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(s.policy.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweep(); err != nil {
				s.logger.Error("retention sweep failed", "error", err)
			}
		}
	}
}

// Sweep runs a single pruning pass plus .tmp reaping. Exported so
// callers (and tests) can trigger a deterministic sweep without
// waiting on the ticker.
func (s *Sweeper) Sweep() error {
	serials, err := s.store.ListAll()
	if err != nil {
		return fmt.Errorf("listing serials: %w", err)
	}

	now := s.clock.Now()
	var sweepErr error
	for _, serial := range serials {
		if err := s.sweepSerial(serial, now); err != nil {
			s.logger.Warn("retention sweep failed for serial", "serial", serial, "error", err)
			sweepErr = err
		}
	}

	if err := s.reapStaleStaging(now); err != nil {
		s.logger.Warn("reaping stale staging directories failed", "error", err)
		sweepErr = err
	}

	return sweepErr
}

func (s *Sweeper) sweepSerial(serial string, now time.Time) error {
	versions, err := s.store.List(serial)
	if err != nil {
		return err
	}
	if len(versions) <= 1 {
		return nil
	}

	keep := make(map[int]bool, len(versions))
	for _, v := range versions {
		keep[v] = true
	}

	if s.policy.MaxVersionsPerSerial > 0 && len(versions) > s.policy.MaxVersionsPerSerial {
		excess := len(versions) - s.policy.MaxVersionsPerSerial
		for i := 0; i < excess; i++ {
			keep[versions[i]] = false
		}
	}

	if s.policy.MaxAgeDays > 0 {
		cutoff := now.Add(-time.Duration(s.policy.MaxAgeDays) * 24 * time.Hour)
		for _, v := range versions {
			entry, err := s.store.RetrieveOriginal(serial, v)
			if err != nil {
				continue
			}
			if entry.StoredAt.Before(cutoff) {
				keep[v] = false
			}
		}
	}

	// Never prune the last remaining version, even if it violates
	// both bounds.
	if !anyKept(keep, versions) {
		keep[versions[len(versions)-1]] = true
	}

	for _, v := range versions {
		if keep[v] {
			continue
		}
		if err := s.store.Delete(serial, v); err != nil {
			return err
		}
		s.logger.Info("retention pruned entry", "serial", serial, "version", v)
	}

	return nil
}

func anyKept(keep map[int]bool, versions []int) bool {
	for _, v := range versions {
		if keep[v] {
			return true
		}
	}
	return false
}

func (s *Sweeper) reapStaleStaging(now time.Time) error {
	tmpRoot := filepath.Join(s.store.Root(), ".tmp")
	entries, err := os.ReadDir(tmpRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading staging directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < staleStagingAge {
			continue
		}
		path := filepath.Join(tmpRoot, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("removing stale staging directory %s: %w", path, err)
		}
		s.logger.Info("reaped abandoned staging directory", "path", path)
	}

	return nil
}
