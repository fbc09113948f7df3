// Copyright (c) 2026 Warden Team
// Warden - application control policy toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"github.com/wardenhq/warden/internal/model"
)

// Store defines the interface for all database operations in Warden.
// This allows for multiple database backends to be implemented.
type Store interface {
	// Baseline methods
	SaveBaseline(name, document string, ruleCount int) (int, error)
	GetBaselineByName(name string) (*model.Baseline, error)
	GetAllBaselines() ([]model.Baseline, error)
	DeleteBaseline(name string) error

	// Audit Log methods
	GetAllAuditLogEntries() ([]model.AuditLogEntry, error)
	LogAction(action string, details string) error

	// Backup methods
	ExportDataForBackup() (*model.BackupData, error)
	ImportDataFromBackup(backup *model.BackupData) error
}
