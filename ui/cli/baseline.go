// Copyright (c) 2026 Warden Team
// Warden - application control policy toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// baseline.go implements the 'baseline' command group for storing and
// retrieving named policy snapshots in the database.

package cli

import (
	"encoding/json"
	"fmt"
	"os"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/internal/db"
	"github.com/wardenhq/warden/internal/i18n"
)

// baselineCmd is the root 'baseline' command.
var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Manage stored policy baselines",
	Long: `Baselines are named policy snapshots stored in the database. They serve
as the reference point for 'warden diff' and as rollback targets.`,
}

// baselineSaveCmd stores a policy file under a name, replacing any
// baseline previously saved under the same name.
var baselineSaveCmd = &cobra.Command{
	Use:     "save <name> <policy-file>",
	Short:   "Save a policy file as a named baseline",
	Args:    cobra.ExactArgs(2),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]
		doc, err := readPolicyDocument(args[1])
		if err != nil {
			log.Fatalf("%s", i18n.T("baseline.error_read", err))
		}

		// Store the canonical serialization, not the input bytes.
		data, err := json.Marshal(doc)
		if err != nil {
			log.Fatalf("%s", i18n.T("baseline.error_save", err))
		}
		if _, err := db.SaveBaseline(name, string(data), doc.RuleCount()); err != nil {
			log.Fatalf("%s", i18n.T("baseline.error_save", err))
		}
		fmt.Println(i18n.T("baseline.saved", name, doc.RuleCount()))
	},
}

// baselineListCmd lists all stored baselines, newest first.
var baselineListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List stored baselines",
	Args:    cobra.NoArgs,
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		baselines, err := db.GetAllBaselines()
		if err != nil {
			log.Fatalf("%s", i18n.T("baseline.error_list", err))
		}
		if len(baselines) == 0 {
			fmt.Println(i18n.T("baseline.none"))
			return
		}
		for _, b := range baselines {
			fmt.Printf("%s\t%s\n", b.CreatedAt.Format("2006-01-02 15:04"), b.String())
		}
	},
}

// baselineShowCmd prints a stored baseline's policy document as JSON.
var baselineShowCmd = &cobra.Command{
	Use:     "show <name>",
	Short:   "Print a stored baseline as JSON",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		baseline, err := db.GetBaselineByName(args[0])
		if err != nil {
			log.Fatalf("%s", i18n.T("baseline.error_not_found", args[0], err))
		}

		// Re-indent so the output is readable regardless of how the
		// document was stored.
		var buf any
		if err := json.Unmarshal([]byte(baseline.Document), &buf); err != nil {
			log.Fatalf("%s", i18n.T("baseline.error_corrupt", args[0], err))
		}
		out, err := json.MarshalIndent(buf, "", "  ")
		if err != nil {
			log.Fatalf("%s", i18n.T("baseline.error_corrupt", args[0], err))
		}
		out = append(out, '\n')
		_, _ = os.Stdout.Write(out)
	},
}

// baselineDeleteCmd removes a stored baseline.
var baselineDeleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Short:   "Delete a stored baseline",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		if err := db.DeleteBaseline(args[0]); err != nil {
			log.Fatalf("%s", i18n.T("baseline.error_delete", args[0], err))
		}
		fmt.Println(i18n.T("baseline.deleted", args[0]))
	},
}

func init() {
	baselineCmd.AddCommand(
		baselineSaveCmd,
		baselineListCmd,
		baselineShowCmd,
		baselineDeleteCmd,
	)
}
