// Copyright (c) 2026 Warden Team
// Warden - application control policy toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// This file contains the PostgreSQL implementation of the database store.
package db

import (
	"fmt"

	"github.com/uptrace/bun"

	"github.com/wardenhq/warden/internal/model"
)

// PostgresStore is the PostgreSQL implementation of the Store interface.
type PostgresStore struct {
	bun *bun.DB
}

// SaveBaseline stores or replaces a named baseline.
func (s *PostgresStore) SaveBaseline(name, document string, ruleCount int) (int, error) {
	id, err := SaveBaselineBun(s.bun, name, document, ruleCount)
	if err == nil {
		_ = s.LogAction("SAVE_BASELINE", fmt.Sprintf("baseline: %s (%d rules)", name, ruleCount))
	}
	return id, err
}

// GetBaselineByName retrieves a baseline by its unique name.
func (s *PostgresStore) GetBaselineByName(name string) (*model.Baseline, error) {
	return GetBaselineByNameBun(s.bun, name)
}

// GetAllBaselines retrieves all stored baselines.
func (s *PostgresStore) GetAllBaselines() ([]model.Baseline, error) {
	return GetAllBaselinesBun(s.bun)
}

// DeleteBaseline removes a baseline by name.
func (s *PostgresStore) DeleteBaseline(name string) error {
	err := DeleteBaselineBun(s.bun, name)
	if err == nil {
		_ = s.LogAction("DELETE_BASELINE", fmt.Sprintf("baseline: %s", name))
	}
	return err
}

// GetAllAuditLogEntries retrieves the audit trail.
func (s *PostgresStore) GetAllAuditLogEntries() ([]model.AuditLogEntry, error) {
	return GetAllAuditLogEntriesBun(s.bun)
}

// LogAction records an action in the audit log.
func (s *PostgresStore) LogAction(action string, details string) error {
	return LogActionBun(s.bun, action, details)
}

// ExportDataForBackup exports all data for a backup.
func (s *PostgresStore) ExportDataForBackup() (*model.BackupData, error) {
	return ExportDataForBackupBun(s.bun)
}

// ImportDataFromBackup restores all data from a backup.
func (s *PostgresStore) ImportDataFromBackup(backup *model.BackupData) error {
	err := ImportDataFromBackupBun(s.bun, backup)
	if err == nil {
		_ = s.LogAction("RESTORE_BACKUP", fmt.Sprintf("baselines: %d", len(backup.Baselines)))
	}
	return err
}
