// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for the repository
// server's packages.
//
// [RequireReceive], [RequireSend] and [RequireClosed] encapsulate the
// timeout safety valve pattern (select with time.After fallback) so
// that individual tests do not need direct time.After calls.
// cmd/bom-repo-server's real-listener test uses RequireReceive and
// RequireClosed.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation, such as distinct serial numbers or temp-directory
// names.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no dependencies on the rest of the repository.
package testutil
