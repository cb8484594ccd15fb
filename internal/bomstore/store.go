// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bomstore implements the content-addressed, filesystem-backed
// persistence layer for BOM entries. Entries are keyed by
// (serialNumber, version) and committed via atomic directory rename,
// giving at-most-one-writer-wins semantics per entry without explicit
// locking.
package bomstore

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bomrepo/bom-repo-server/internal/bom"
	"github.com/zeebo/blake3"
)

const tmpDir = ".tmp"

// serialNumberPattern matches the canonical CycloneDX serial number
// form: urn:uuid:XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX with lowercase
// hex digits only. No leading/trailing whitespace, no brace-form GUID.
var serialNumberPattern = regexp.MustCompile(
	`^urn:uuid:[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// integrityDomainKey domain-separates the store's checksum sidecar
// from any other BLAKE3 use in the process.
var integrityDomainKey = [32]byte{
	'b', 'o', 'm', 'r', 'e', 'p', 'o', '.', 's', 't', 'o', 'r', 'e', '.',
	'c', 'h', 'e', 'c', 'k', 's', 'u', 'm', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Store manages the on-disk BOM repository rooted at a configured
// directory. Safe for concurrent use: readers never block on writers,
// writers to distinct entries never block each other, and writers to
// the same entry serialize via the atomic-rename commit point.
type Store struct {
	root string
}

// Open creates a Store rooted at dir. The root and its .tmp staging
// directory are created if absent.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &Error{Kind: StorageFailure, Err: fmt.Errorf("creating store root: %w", err)}
	}
	if err := os.MkdirAll(filepath.Join(dir, tmpDir), 0o755); err != nil {
		return nil, &Error{Kind: StorageFailure, Err: fmt.Errorf("creating tmp directory: %w", err)}
	}
	return &Store{root: dir}, nil
}

// Root returns the store's root directory, for use by the retention
// sweeper's .tmp reaping pass.
func (s *Store) Root() string {
	return s.root
}

// Entry is the unit of persistence: a BOM's identity, its original
// submitted bytes exactly as received, the format those bytes are in,
// and the time the entry was committed.
type Entry struct {
	SerialNumber  string
	Version       int
	Format        bom.Format
	SchemaVersion bom.SchemaVersion
	StoredAt      time.Time
	Original      []byte
}

// Store commits a new entry. If entry.Version is zero, it is assigned
// max(existing versions for the serial)+1, or 1 if the serial has no
// existing versions. Returns the version actually committed.
func (s *Store) Store(entry Entry) (int, error) {
	if err := validateSerialNumber(entry.SerialNumber); err != nil {
		return 0, err
	}

	serialDir := s.serialDir(entry.SerialNumber)

	version := entry.Version
	if version == 0 {
		existing, err := s.versionsOnDisk(entry.SerialNumber)
		if err != nil {
			return 0, err
		}
		version = 1
		if len(existing) > 0 {
			version = existing[len(existing)-1] + 1
		}
	} else if version < 0 {
		return 0, &Error{Kind: InvalidVersion, SerialNumber: entry.SerialNumber,
			Err: fmt.Errorf("version %d must be positive", version)}
	}

	ext := entry.Format.Extension()
	if ext == "" {
		return 0, &Error{Kind: StorageFailure, SerialNumber: entry.SerialNumber,
			Err: fmt.Errorf("unknown format %q", entry.Format)}
	}

	staging, err := s.newStagingDir()
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			os.RemoveAll(staging)
		}
	}()

	checksum := checksumOf(entry.Original)
	storedAt := entry.StoredAt
	if storedAt.IsZero() {
		storedAt = time.Now().UTC()
	}

	if err := os.WriteFile(filepath.Join(staging, "bom."+ext), entry.Original, 0o644); err != nil {
		return 0, &Error{Kind: StorageFailure, SerialNumber: entry.SerialNumber, Version: version,
			Err: fmt.Errorf("writing entry file: %w", err)}
	}
	if err := os.WriteFile(filepath.Join(staging, "stored-at"), []byte(storedAt.Format(time.RFC3339)), 0o644); err != nil {
		return 0, &Error{Kind: StorageFailure, SerialNumber: entry.SerialNumber, Version: version,
			Err: fmt.Errorf("writing stored-at sidecar: %w", err)}
	}
	if err := os.WriteFile(filepath.Join(staging, "checksum"), []byte(checksum), 0o644); err != nil {
		return 0, &Error{Kind: StorageFailure, SerialNumber: entry.SerialNumber, Version: version,
			Err: fmt.Errorf("writing checksum sidecar: %w", err)}
	}
	if err := os.WriteFile(filepath.Join(staging, "schema-version"), []byte(entry.SchemaVersion), 0o644); err != nil {
		return 0, &Error{Kind: StorageFailure, SerialNumber: entry.SerialNumber, Version: version,
			Err: fmt.Errorf("writing schema-version sidecar: %w", err)}
	}

	if err := os.MkdirAll(serialDir, 0o755); err != nil {
		return 0, &Error{Kind: StorageFailure, SerialNumber: entry.SerialNumber, Version: version,
			Err: fmt.Errorf("creating serial directory: %w", err)}
	}

	finalPath := s.versionDir(entry.SerialNumber, version)
	if _, err := os.Stat(finalPath); err == nil {
		return 0, &Error{Kind: AlreadyExists, SerialNumber: entry.SerialNumber, Version: version}
	}

	if err := os.Rename(staging, finalPath); err != nil {
		if os.IsExist(err) {
			return 0, &Error{Kind: AlreadyExists, SerialNumber: entry.SerialNumber, Version: version}
		}
		return 0, &Error{Kind: StorageFailure, SerialNumber: entry.SerialNumber, Version: version,
			Err: fmt.Errorf("committing entry: %w", err)}
	}

	committed = true
	return version, nil
}

// Retrieve returns the same Entry as RetrieveOriginal for (serial,
// version): the original bytes, format, schema version and stored-at
// time, with the integrity checksum verified. It does not decode the
// bytes into the canonical model; handlers decode via bomcodec.Decode.
func (s *Store) Retrieve(serialNumber string, version int) (Entry, error) {
	return s.RetrieveOriginal(serialNumber, version)
}

// RetrieveOriginal returns the exact bytes submitted for (serial,
// version), verifying the integrity checksum sidecar.
func (s *Store) RetrieveOriginal(serialNumber string, version int) (Entry, error) {
	if err := validateSerialNumber(serialNumber); err != nil {
		return Entry{}, err
	}
	if version <= 0 {
		return Entry{}, &Error{Kind: InvalidVersion, SerialNumber: serialNumber,
			Err: fmt.Errorf("version %d must be positive", version)}
	}

	dir := s.versionDir(serialNumber, version)
	ext, original, err := readEntryFile(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, &Error{Kind: NotFound, SerialNumber: serialNumber, Version: version}
		}
		return Entry{}, &Error{Kind: StorageFailure, SerialNumber: serialNumber, Version: version, Err: err}
	}

	format, ok := bom.FormatFromExtension(ext)
	if !ok {
		return Entry{}, &Error{Kind: StorageFailure, SerialNumber: serialNumber, Version: version,
			Err: fmt.Errorf("unrecognized entry extension %q", ext)}
	}

	if err := verifyChecksum(dir, original); err != nil {
		return Entry{}, &Error{Kind: StorageFailure, SerialNumber: serialNumber, Version: version, Err: err}
	}

	storedAt, err := readStoredAt(dir)
	if err != nil {
		return Entry{}, &Error{Kind: StorageFailure, SerialNumber: serialNumber, Version: version, Err: err}
	}

	schemaVersion := readSchemaVersion(dir)

	return Entry{SerialNumber: serialNumber, Version: version, Format: format, SchemaVersion: schemaVersion,
		StoredAt: storedAt, Original: original}, nil
}

// RetrieveLatest returns the entry at the highest existing version for
// serialNumber.
func (s *Store) RetrieveLatest(serialNumber string) (Entry, error) {
	versions, err := s.List(serialNumber)
	if err != nil {
		return Entry{}, err
	}
	if len(versions) == 0 {
		return Entry{}, &Error{Kind: NotFound, SerialNumber: serialNumber}
	}
	return s.RetrieveOriginal(serialNumber, versions[len(versions)-1])
}

// List returns the known versions of serialNumber in ascending order.
// Returns an empty (not nil) slice, with no error, if the serial is
// unknown.
func (s *Store) List(serialNumber string) ([]int, error) {
	if err := validateSerialNumber(serialNumber); err != nil {
		return nil, err
	}
	versions, err := s.versionsOnDisk(serialNumber)
	if err != nil {
		return nil, err
	}
	if versions == nil {
		versions = []int{}
	}
	return versions, nil
}

// ListAll returns every serial number currently present in the store.
func (s *Store) ListAll() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, &Error{Kind: StorageFailure, Err: fmt.Errorf("listing store root: %w", err)}
	}

	var serials []string
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == tmpDir {
			continue
		}
		serial, err := url.PathUnescape(entry.Name())
		if err != nil {
			continue
		}
		if serialNumberPattern.MatchString(serial) {
			serials = append(serials, serial)
		}
	}
	sort.Strings(serials)
	return serials, nil
}

// Exists reports whether (serial, version) has a committed entry.
func (s *Store) Exists(serialNumber string, version int) bool {
	_, err := os.Stat(s.versionDir(serialNumber, version))
	return err == nil
}

// Delete removes a single version. Deleting the last remaining
// version of a serial also removes the now-empty serial directory.
func (s *Store) Delete(serialNumber string, version int) error {
	if err := validateSerialNumber(serialNumber); err != nil {
		return err
	}

	dir := s.versionDir(serialNumber, version)
	if err := os.RemoveAll(dir); err != nil {
		return &Error{Kind: StorageFailure, SerialNumber: serialNumber, Version: version, Err: err}
	}

	remaining, err := s.versionsOnDisk(serialNumber)
	if err != nil {
		return err
	}
	if len(remaining) == 0 {
		os.Remove(s.serialDir(serialNumber))
	}
	return nil
}

// DeleteAll removes every version of serialNumber.
func (s *Store) DeleteAll(serialNumber string) error {
	if err := validateSerialNumber(serialNumber); err != nil {
		return err
	}
	if err := os.RemoveAll(s.serialDir(serialNumber)); err != nil {
		return &Error{Kind: StorageFailure, SerialNumber: serialNumber, Err: err}
	}
	return nil
}

func (s *Store) serialDir(serialNumber string) string {
	return filepath.Join(s.root, url.PathEscape(serialNumber))
}

func (s *Store) versionDir(serialNumber string, version int) string {
	return filepath.Join(s.serialDir(serialNumber), strconv.Itoa(version))
}

func (s *Store) versionsOnDisk(serialNumber string) ([]int, error) {
	entries, err := os.ReadDir(s.serialDir(serialNumber))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &Error{Kind: StorageFailure, SerialNumber: serialNumber, Err: err}
	}

	var versions []int
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		v, err := strconv.Atoi(entry.Name())
		if err != nil || v <= 0 {
			continue
		}
		versions = append(versions, v)
	}
	sort.Ints(versions)
	return versions, nil
}

func (s *Store) newStagingDir() (string, error) {
	var random [16]byte
	if _, err := rand.Read(random[:]); err != nil {
		return "", &Error{Kind: StorageFailure, Err: fmt.Errorf("generating staging directory name: %w", err)}
	}
	staging := filepath.Join(s.root, tmpDir, hex.EncodeToString(random[:]))
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return "", &Error{Kind: StorageFailure, Err: fmt.Errorf("creating staging directory: %w", err)}
	}
	return staging, nil
}

func validateSerialNumber(serialNumber string) error {
	if !serialNumberPattern.MatchString(serialNumber) {
		return &Error{Kind: InvalidSerialNumber, SerialNumber: serialNumber,
			Err: fmt.Errorf("does not match urn:uuid: form")}
	}
	return nil
}

func readEntryFile(dir string) (ext string, data []byte, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", nil, err
	}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "bom.") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return "", nil, err
		}
		return strings.TrimPrefix(filepath.Ext(name), "."), data, nil
	}
	return "", nil, os.ErrNotExist
}

func readStoredAt(dir string) (time.Time, error) {
	data, err := os.ReadFile(filepath.Join(dir, "stored-at"))
	if err != nil {
		return time.Time{}, fmt.Errorf("reading stored-at sidecar: %w", err)
	}
	storedAt, err := time.Parse(time.RFC3339, strings.TrimSpace(string(data)))
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored-at sidecar: %w", err)
	}
	return storedAt, nil
}

// readSchemaVersion reads the schema-version sidecar, written
// starting with the schema-version-aware Store. Entries committed
// before that sidecar existed have no file to read; callers treat the
// resulting empty SchemaVersion as "unknown, use the format's highest
// supported version" rather than an error.
func readSchemaVersion(dir string) bom.SchemaVersion {
	data, err := os.ReadFile(filepath.Join(dir, "schema-version"))
	if err != nil {
		return ""
	}
	return bom.SchemaVersion(strings.TrimSpace(string(data)))
}

func checksumOf(data []byte) string {
	hasher, err := blake3.NewKeyed(integrityDomainKey[:])
	if err != nil {
		panic("bomstore: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}

func verifyChecksum(dir string, data []byte) error {
	want, err := os.ReadFile(filepath.Join(dir, "checksum"))
	if err != nil {
		return fmt.Errorf("reading checksum sidecar: %w", err)
	}
	if got := checksumOf(data); got != strings.TrimSpace(string(want)) {
		return fmt.Errorf("checksum mismatch: entry is corrupt")
	}
	return nil
}
