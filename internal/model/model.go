// Copyright (c) 2026 Warden Team
// Warden - application control policy toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// Package model holds the persistence-level records Warden stores between
// runs: named policy baselines and the audit trail. The policy engine's own
// domain types live in core/model and never depend on this package.
package model

import (
	"fmt"
	"time"
)

// Baseline is a named, persisted policy document snapshot. The document
// itself is stored as serialized JSON so the schema stays stable across
// engine changes.
type Baseline struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Document  string    `json:"document"` // policy document JSON
	RuleCount int       `json:"rule_count"`
	CreatedAt time.Time `json:"created_at"`
}

// String returns the name plus rule count representation.
func (b Baseline) String() string {
	return fmt.Sprintf("%s (%d rules)", b.Name, b.RuleCount)
}

// AuditLogEntry represents a single record in the audit trail.
type AuditLogEntry struct {
	ID        int    `json:"id"`
	Timestamp string `json:"timestamp"`
	Username  string `json:"username"`
	Action    string `json:"action"`
	Details   string `json:"details"`
}

// BackupData is the serializable snapshot of everything Warden persists.
type BackupData struct {
	// SchemaVersion helps in handling migrations during restore.
	SchemaVersion int `json:"schema_version"`

	// Data from each table.
	Baselines       []Baseline      `json:"baselines"`
	AuditLogEntries []AuditLogEntry `json:"audit_log_entries"`
}
