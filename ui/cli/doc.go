// Copyright (c) 2026 Warden Team
// Warden - application control policy toolkit
// This source code is licensed under the MIT license found in the LICENSE file.
//
// Package cli implements the command-line interface for Warden using Cobra.
// It wires configuration, default services, and provides commands that
// delegate to the deterministic core engine. CLI code should remain thin
// and delegate business logic to core and the db package.
package cli
