// Copyright (c) 2026 Warden Team
// Warden - application control policy toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os/user"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/wardenhq/warden/internal/model"
	"github.com/wardenhq/warden/util/slicest"
)

// BaselineModel maps the `baselines` table for Bun queries.
type BaselineModel struct {
	bun.BaseModel `bun:"table:baselines"`
	ID            int       `bun:"id,pk,autoincrement"`
	Name          string    `bun:"name"`
	Document      string    `bun:"document"`
	RuleCount     int       `bun:"rule_count"`
	CreatedAt     time.Time `bun:"created_at"`
}

// AuditLogModel maps the audit_log table.
type AuditLogModel struct {
	bun.BaseModel `bun:"table:audit_log"`
	ID            int    `bun:"id,pk,autoincrement"`
	Timestamp     string `bun:"timestamp"`
	Username      string `bun:"username"`
	Action        string `bun:"action"`
	Details       string `bun:"details"`
}

func baselineModelToModel(b BaselineModel) model.Baseline {
	return model.Baseline{
		ID:        b.ID,
		Name:      b.Name,
		Document:  b.Document,
		RuleCount: b.RuleCount,
		CreatedAt: b.CreatedAt,
	}
}

func auditLogModelToModel(a AuditLogModel) model.AuditLogEntry {
	return model.AuditLogEntry{
		ID:        a.ID,
		Timestamp: a.Timestamp,
		Username:  a.Username,
		Action:    a.Action,
		Details:   a.Details,
	}
}

// SaveBaselineBun inserts a named baseline, or replaces the stored document
// when a baseline with that name already exists. It returns the row id.
func SaveBaselineBun(bdb *bun.DB, name, document string, ruleCount int) (int, error) {
	ctx := context.Background()

	var existing BaselineModel
	err := bdb.NewSelect().Model(&existing).Where("name = ?", name).Limit(1).Scan(ctx)
	switch {
	case err == nil:
		_, err = bdb.NewUpdate().Model(&BaselineModel{}).
			Set("document = ?", document).
			Set("rule_count = ?", ruleCount).
			Set("created_at = ?", time.Now().UTC()).
			Where("id = ?", existing.ID).
			Exec(ctx)
		if err != nil {
			return 0, MapDBError(err)
		}
		return existing.ID, nil
	case errors.Is(err, sql.ErrNoRows):
		// fall through to insert
	default:
		return 0, MapDBError(err)
	}

	row := BaselineModel{
		Name:      name,
		Document:  document,
		RuleCount: ruleCount,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := bdb.NewInsert().Model(&row).Exec(ctx); err != nil {
		return 0, MapDBError(err)
	}
	return row.ID, nil
}

// GetBaselineByNameBun returns the named baseline, or ErrNotFound.
func GetBaselineByNameBun(bdb *bun.DB, name string) (*model.Baseline, error) {
	ctx := context.Background()

	var b BaselineModel
	err := bdb.NewSelect().Model(&b).Where("name = ?", name).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, MapDBError(err)
	}
	m := baselineModelToModel(b)
	return &m, nil
}

// GetAllBaselinesBun lists every stored baseline, newest first.
func GetAllBaselinesBun(bdb *bun.DB) ([]model.Baseline, error) {
	ctx := context.Background()

	var rows []BaselineModel
	if err := bdb.NewSelect().Model(&rows).Order("created_at DESC").Scan(ctx); err != nil {
		return nil, MapDBError(err)
	}
	return slicest.Map(rows, baselineModelToModel), nil
}

// DeleteBaselineBun removes the named baseline; deleting a missing baseline
// reports ErrNotFound.
func DeleteBaselineBun(bdb *bun.DB, name string) error {
	ctx := context.Background()

	res, err := bdb.NewDelete().Model(&BaselineModel{}).Where("name = ?", name).Exec(ctx)
	if err != nil {
		return MapDBError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// LogActionBun appends one entry to the audit trail, attributed to the
// current OS user.
func LogActionBun(bdb *bun.DB, action string, details string) error {
	ctx := context.Background()
	curUser, err := user.Current()
	username := "unknown"
	if err == nil {
		if parts := strings.Split(curUser.Username, `\`); len(parts) > 1 {
			username = parts[1]
		} else {
			username = curUser.Username
		}
	}
	_, err = ExecRaw(ctx, bdb, "INSERT INTO audit_log (username, action, details) VALUES (?, ?, ?)", username, action, details)
	return MapDBError(err)
}

// GetAllAuditLogEntriesBun returns the audit trail, newest first.
func GetAllAuditLogEntriesBun(bdb *bun.DB) ([]model.AuditLogEntry, error) {
	ctx := context.Background()

	var rows []AuditLogModel
	if err := bdb.NewSelect().Model(&rows).Order("id DESC").Scan(ctx); err != nil {
		return nil, MapDBError(err)
	}
	return slicest.Map(rows, auditLogModelToModel), nil
}

// ExportDataForBackupBun exports all tables' data into a model.BackupData
// using a Bun transaction.
func ExportDataForBackupBun(bdb *bun.DB) (*model.BackupData, error) {
	ctx := context.Background()
	var backup *model.BackupData
	err := WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		backup = &model.BackupData{SchemaVersion: 1}

		var baselines []BaselineModel
		if err := tx.NewSelect().Model(&baselines).Order("id ASC").Scan(ctx); err != nil {
			return err
		}
		backup.Baselines = slicest.Map(baselines, baselineModelToModel)

		var entries []AuditLogModel
		if err := tx.NewSelect().Model(&entries).Order("id ASC").Scan(ctx); err != nil {
			return err
		}
		backup.AuditLogEntries = slicest.Map(entries, auditLogModelToModel)
		return nil
	})
	if err != nil {
		return nil, MapDBError(err)
	}
	return backup, nil
}

// ImportDataFromBackupBun replaces the database contents with the backup's.
// The wipe and the inserts run in one transaction so a failed restore
// leaves the previous contents intact.
func ImportDataFromBackupBun(bdb *bun.DB, backup *model.BackupData) error {
	ctx := context.Background()
	return WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		tables := []string{"audit_log", "baselines"}
		for _, t := range tables {
			if _, err := ExecRaw(ctx, tx, fmt.Sprintf("DELETE FROM %s", t)); err != nil {
				return err
			}
		}

		for _, b := range backup.Baselines {
			if _, err := ExecRaw(ctx, tx, "INSERT INTO baselines (id, name, document, rule_count, created_at) VALUES (?, ?, ?, ?, ?)", b.ID, b.Name, b.Document, b.RuleCount, b.CreatedAt); err != nil {
				return MapDBError(err)
			}
		}
		// Audit log: convert RFC3339 timestamps to time.Time when possible
		// so MySQL accepts them.
		for _, ale := range backup.AuditLogEntries {
			var ts interface{} = ale.Timestamp
			if ale.Timestamp != "" {
				if parsed, err := time.Parse(time.RFC3339, ale.Timestamp); err == nil {
					ts = parsed
				} else {
					s := strings.Replace(ale.Timestamp, "T", " ", 1)
					ts = strings.TrimSuffix(s, "Z")
				}
			}
			if _, err := ExecRaw(ctx, tx, "INSERT INTO audit_log (id, timestamp, username, action, details) VALUES (?, ?, ?, ?, ?)", ale.ID, ts, ale.Username, ale.Action, ale.Details); err != nil {
				return MapDBError(err)
			}
		}

		// Explicit-id inserts leave PostgreSQL sequences behind the
		// restored rows; resync them so the next insert does not collide.
		if bdb.Dialect().Name() == dialect.PG {
			for _, t := range tables {
				stmt := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE(MAX(id), 0) + 1, false) FROM %s", t, t)
				if _, err := ExecRaw(ctx, tx, stmt); err != nil {
					return MapDBError(err)
				}
			}
		}
		return nil
	})
}
