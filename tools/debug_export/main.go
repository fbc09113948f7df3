// Copyright (c) 2026 Warden Team
// Warden - application control policy toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// debug_export seeds an in-memory database with sample baselines and
// prints the backup export, useful for eyeballing the store wiring
// without touching a real database.
package main

import (
	"fmt"

	"github.com/wardenhq/warden/internal/db"
	"github.com/wardenhq/warden/internal/i18n"
)

func main() {
	dsn := "file:debprobe?mode=memory&cache=shared"
	i18n.Init("en")
	if err := db.InitDB("sqlite", dsn); err != nil {
		panic(err)
	}

	if _, err := db.SaveBaseline("pilot", `{"rules":{},"enforcement":{}}`, 0); err != nil {
		panic(err)
	}
	if _, err := db.SaveBaseline("production", `{"rules":{},"enforcement":{}}`, 0); err != nil {
		panic(err)
	}

	baselines, err := db.GetAllBaselines()
	if err != nil {
		panic(err)
	}
	fmt.Printf("baselines: %d\n", len(baselines))
	for _, b := range baselines {
		fmt.Printf("baseline: %s\n", b.String())
	}

	backup, err := db.ExportDataForBackup()
	if err != nil {
		panic(err)
	}
	fmt.Printf("backup schema version: %d\n", backup.SchemaVersion)
	fmt.Printf("backup baselines: %d\n", len(backup.Baselines))
	fmt.Printf("backup audit entries: %d\n", len(backup.AuditLogEntries))
}
