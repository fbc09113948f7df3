// Copyright (c) 2026 Warden Team
// Warden - application control policy toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// Package core implements the policy synthesis engine: normalizing raw
// scan artifacts into inventory records, synthesizing publisher/hash rules
// from them, grouping and deduplicating rules, merging rule sets from
// multiple sources, computing incremental deltas against a deployed
// baseline, and scoring policy health.
//
// Every operation in this package is a pure, synchronous transformation
// over in-memory data. The engine performs no I/O and holds no global
// state; callers pass in already-loaded artifacts, registries and prior
// policies, and are responsible for persisting or serializing the results.
package core // import "github.com/wardenhq/warden/core"
