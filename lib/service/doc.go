// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides shared process scaffolding for the
// repository server binary: a structured logger installed as the
// slog default, and an HTTPServer that binds a TCP listener and
// drains in-flight requests on context cancellation.
//
// The package provides building blocks, not a runtime — the cmd
// binary composes them in its own main().
package service
