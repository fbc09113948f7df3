// Copyright (c) 2026 Warden Team
// Warden - application control policy toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// backup.go implements database-level commands: backup, restore,
// db-maintain and migrate.

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/internal/db"
	"github.com/wardenhq/warden/internal/i18n"
	"github.com/wardenhq/warden/internal/model"
)

var fullRestore bool // Flag for the restore command

// readCompressedBackup handles reading and decoding a zstd-compressed JSON backup file.
func readCompressedBackup(filename string) (*model.BackupData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	zstdReader, err := zstd.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("could not create zstd reader: %w", err)
	}
	defer zstdReader.Close()

	var backupData model.BackupData
	if err := json.NewDecoder(zstdReader).Decode(&backupData); err != nil {
		return nil, fmt.Errorf("could not decode json from zstd reader: %w", err)
	}

	return &backupData, nil
}

// writeCompressedBackup handles the process of writing the backup data to a
// zstd-compressed file. It streams the JSON encoding directly to the zstd
// writer for memory efficiency.
func writeCompressedBackup(filename string, data *model.BackupData) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	defer func() { _ = file.Close() }()

	zstdWriter, err := zstd.NewWriter(file)
	if err != nil {
		return fmt.Errorf("could not create zstd writer: %w", err)
	}
	defer func() { _ = zstdWriter.Close() }()

	encoder := json.NewEncoder(zstdWriter)
	encoder.SetIndent("", "  ") // Pretty-print the JSON inside the compressed file

	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("could not encode json to zstd writer: %w", err)
	}

	return nil
}

// backupCmd represents the 'backup' command.
// It dumps all data from the database into a single compressed JSON file.
var backupCmd = &cobra.Command{
	Use:   "backup [output-file]",
	Short: "Create a compressed (zstd) JSON backup of the database",
	Long: `Dumps the entire contents of the Warden database (baselines and audit log)
into a single, Zstandard-compressed JSON file.

If an output file is specified, '.zst' will be appended to the name if it's
not already present. If no output file is specified, a default filename
'warden-backup-YYYY-MM-DD.json.zst' is used.

This file can be used for disaster recovery or for migrating to a different
database backend.`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		var backupFile string
		if len(args) == 0 {
			backupFile = fmt.Sprintf("warden-backup-%s.json.zst", time.Now().Format("2006-01-02"))
		} else {
			backupFile = args[0]
			if !strings.HasSuffix(backupFile, ".zst") {
				backupFile += ".zst"
			}
		}
		fmt.Println(i18n.T("backup.cli_starting"))
		data, err := db.ExportDataForBackup()
		if err != nil {
			log.Fatalf("%s", i18n.T("backup.cli_error_export", err))
		}
		if err := writeCompressedBackup(backupFile, data); err != nil {
			log.Fatalf("%s", i18n.T("backup.cli_error_write", err))
		}
		fmt.Println(i18n.T("backup.cli_success", backupFile))
	},
}

// restoreCmd represents the 'restore' command.
var restoreCmd = &cobra.Command{
	Use:   "restore <backup-file>",
	Short: "Restore the database from a zstd backup",
	Long: `Restores baselines from a Zstandard-compressed JSON backup file.

By default existing data is kept and baselines from the backup are saved
over any baseline with the same name. With --full the entire database
(baselines and audit log) is wiped first and replaced by the backup.

Example (Full Restore):
  warden restore --full ./warden-backup-2026-08-26.json.zst`,
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		inputFile := args[0]
		fmt.Println(i18n.T("restore.cli_starting", inputFile))
		backup, err := readCompressedBackup(inputFile)
		if err != nil {
			log.Fatalf("%s", i18n.T("restore.cli_error_read", err))
		}

		if fullRestore {
			if err := db.ImportDataFromBackup(backup); err != nil {
				log.Fatalf("%s", i18n.T("restore.cli_error_import", err))
			}
		} else {
			for _, b := range backup.Baselines {
				if _, err := db.SaveBaseline(b.Name, b.Document, b.RuleCount); err != nil {
					log.Fatalf("%s", i18n.T("restore.cli_error_import", err))
				}
			}
		}
		fmt.Println(i18n.T("restore.cli_success"))
	},
}

// dbMaintainCmd represents the 'db-maintain' command.
var dbMaintainCmd = &cobra.Command{
	Use:   "db-maintain",
	Short: "Run routine database maintenance",
	Long: `Runs backend-specific maintenance on the configured database: PRAGMA
optimize, VACUUM and integrity_check for SQLite, VACUUM ANALYZE for
PostgreSQL, OPTIMIZE TABLE for MySQL.`,
	Args:    cobra.NoArgs,
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(i18n.T("maintain.cli_starting", appConfig.Database.Type))
		if err := db.RunDBMaintenance(appConfig.Database.Type, appConfig.Database.Dsn); err != nil {
			log.Fatalf("%s", i18n.T("maintain.cli_error", err))
		}
		fmt.Println(i18n.T("maintain.cli_success"))
	},
}

// migrateCmd represents the 'migrate' command.
var migrateCmd = &cobra.Command{
	Use:   "migrate --target-type <db-type> --target-dsn <target-dsn>",
	Short: "Migrate data from the current database to a new one",
	Long: `Performs a database migration by exporting all data from the current
database (configured in warden.yaml) and importing it into a new target
database.

This command automates the following steps:
1. Exports data from the source database in-memory.
2. Connects to the target database specified by --target-type and --target-dsn.
3. Applies all necessary database schema migrations to the target.
4. Performs a full, destructive restore into the target database.

Example:
  warden migrate --target-type postgres --target-dsn "host=localhost user=warden dbname=warden"`,
	Args:    cobra.NoArgs,
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		targetType, _ := cmd.Flags().GetString("target-type")
		targetDsn, _ := cmd.Flags().GetString("target-dsn")
		if targetType == "" || targetDsn == "" {
			return fmt.Errorf("%s", i18n.T("migrate.cli_error_flags"))
		}

		fmt.Println(i18n.T("migrate.cli_starting_backup"))
		data, err := db.ExportDataForBackup()
		if err != nil {
			log.Fatalf("%s", i18n.T("migrate.cli_error_backup", err))
		}

		target, err := db.NewStoreFromDSN(targetType, targetDsn)
		if err != nil {
			log.Fatalf("%s", i18n.T("migrate.cli_error_target", err))
		}
		if err := target.ImportDataFromBackup(data); err != nil {
			log.Fatalf("%s", i18n.T("migrate.cli_error_import", err))
		}

		fmt.Println(i18n.T("migrate.cli_success"))
		fmt.Println(i18n.T("migrate.cli_next_steps", targetType, targetDsn))
		return nil
	},
}
