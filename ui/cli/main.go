// Copyright (c) 2026 Warden Team
// Warden - application control policy toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface (CLI) for Warden using the
// Cobra library. It defines the root command, configuration bootstrap,
// and the version plumbing shared by every subcommand.

package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wardenhq/warden/buildvars"
	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/db"
	"github.com/wardenhq/warden/internal/i18n"
	"github.com/wardenhq/warden/internal/logging"
)

var version = "dev"   // this will be set by the linker
var gitCommit = "dev" // set at build time with the short commit SHA
var buildDate = ""    // set at build time (RFC3339)
var cfgFile string
var verbose bool
var showVersionFlag bool

var appConfig config.Config

// setupDefaultServices loads configuration and brings up i18n and the
// baseline store. It runs as PersistentPreRunE so every subcommand sees
// the same environment.
func setupDefaultServices(cmd *cobra.Command, args []string) error {
	optionalConfigPath, err := getConfigPathFromCli(cmd)
	if err != nil {
		return err
	}

	defaults := map[string]any{
		"database.type":                "sqlite",
		"database.dsn":                 "./warden.db",
		"language":                     "en",
		"health.hash_rule_threshold":   0.5,
		"health.duplicate_penalty_cap": 25,
	}

	appConfig, err = config.LoadConfig[config.Config](cmd, defaults, optionalConfigPath)
	// A "file not found" error is expected on first run, so we handle it
	// specifically: persist a default config for subsequent runs.
	if errors.As(err, &viper.ConfigFileNotFoundError{}) {
		if writeErr := config.WriteConfigFile(&appConfig, false); writeErr != nil {
			// The app runs fine on defaults, so only warn.
			log.Warnf("Warning: could not write default config file: %v", writeErr)
		}
	} else if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	// Guard against a config file with empty values for critical fields.
	if appConfig.Database.Type == "" {
		appConfig.Database.Type = defaults["database.type"].(string)
	}
	if appConfig.Database.Dsn == "" {
		appConfig.Database.Dsn = defaults["database.dsn"].(string)
	}
	if appConfig.Language == "" {
		appConfig.Language = defaults["language"].(string)
	}

	i18n.Init(appConfig.Language)

	// Initialize the database if not already initialized by tests or
	// earlier setup.
	if !db.IsInitialized() {
		if err := db.InitDB(appConfig.Database.Type, appConfig.Database.Dsn); err != nil {
			return errors.New(i18n.T("config.error_init_db", err))
		}
	}

	return nil
}

// Execute runs the CLI entrypoint. The root main package should call this
// function and handle process exit.
func Execute() error {
	rootCmd := NewRootCmd()
	return rootCmd.Execute()
}

func applyDefaultFlags(cmd *cobra.Command) {
	// Avoid redefining flags if they already exist (NewRootCmd may be
	// called multiple times in tests which creates a new root but uses
	// package-level subcommands). pflag will panic on duplicate flag
	// definitions, so check first.
	if cmd.Flags().Lookup("database.type") == nil {
		cmd.Flags().String("database.type", "sqlite", "Database type (e.g., sqlite, postgres)")
	}
	if cmd.Flags().Lookup("database.dsn") == nil {
		cmd.Flags().String("database.dsn", "./warden.db", "Database connection string (DSN)")
	}
}

func getConfigPathFromCli(cmd *cobra.Command) (*string, error) {
	// Only proceed if the user has explicitly set the --config flag.
	if cmd.Flags().Changed("config") {
		path, err := cmd.Flags().GetString("config")
		if err != nil {
			// This is unlikely if Changed() is true, but good practice.
			return nil, fmt.Errorf("could not read --config flag: %w", err)
		}

		// If the flag is set but the value is empty, do nothing.
		if path == "" {
			return nil, nil
		}

		// Make sure the user-provided file exists to avoid unwanted behavior.
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
		}
		return &path, nil
	}
	return nil, nil
}

// NewRootCmd creates and configures a new root cobra command.
// This function is used to create the main application command as well as
// fresh instances for isolated testing.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warden",
		Short: "Warden turns software inventory scans into application-control policies.",
		Long: `Warden converts raw software-inventory artifacts (CSV exports, JSON
inventories, comprehensive scan reports) into deduplicated, prioritized
application-control rule sets. It synthesizes rules, collapses them by
publisher, merges policies from multiple sources, diffs against stored
baselines, and scores policy health.

Baselines live in a database (SQLite by default) so rollouts can be
compared and rolled back.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if showVersionFlag {
				v, c, d := resolveBuildVersion(nil)
				compositeVersion := v
				if c != "" && c != "dev" {
					compositeVersion = compositeVersion + " (" + c + ")"
				}
				if d != "" {
					compositeVersion = compositeVersion + " built: " + d
				}
				fmt.Printf("%s\n", compositeVersion)
				os.Exit(0)
			}
			if verbose {
				logging.SetDebug(true)
				db.SetDebug(true)
			}
			return setupDefaultServices(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	v, c, d := resolveBuildVersion(nil)
	compositeVersion := v
	if c != "" && c != "dev" {
		compositeVersion = compositeVersion + " (" + c + ")"
	}
	if d != "" {
		compositeVersion = compositeVersion + " built: " + d
	}
	cmd.Version = compositeVersion

	// Define flags
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output (sets -v for DB logs)")
	cmd.PersistentFlags().BoolVarP(&showVersionFlag, "version", "V", false, "Print version and exit")
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	cmd.PersistentFlags().String("language", "en", `output language ("en", "de")`)
	applyDefaultFlags(cmd)

	// Add subcommand flags
	applyDefaultFlags(synthesizeCmd)
	if synthesizeCmd.Flags().Lookup("format") == nil {
		synthesizeCmd.Flags().StringVarP(&synthFormat, "format", "f", "csv", "Artifact format: 'csv', 'json' or 'scan'")
		synthesizeCmd.Flags().StringVarP(&synthAction, "action", "a", "Allow", "Action for synthesized rules: 'Allow' or 'Deny'")
		synthesizeCmd.Flags().StringVarP(&synthRegistry, "registry", "r", "", "Trusted-publisher registry YAML file")
		synthesizeCmd.Flags().StringVarP(&synthGroup, "group", "g", "", "Group target for synthesized rules")
		synthesizeCmd.Flags().StringVarP(&synthMode, "mode", "m", "AuditOnly", "Enforcement mode for populated collections: 'AuditOnly' or 'Enabled'")
		synthesizeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	}
	applyDefaultFlags(mergeCmd)
	if mergeCmd.Flags().Lookup("enforce") == nil {
		mergeCmd.Flags().StringSliceVar(&mergeEnforce, "enforce", nil, "Enforcement override, e.g. 'Exe=Enabled' (repeatable)")
		mergeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	}
	applyDefaultFlags(diffCmd)
	applyDefaultFlags(scoreCmd)
	if scoreCmd.Flags().Lookup("strict") == nil {
		scoreCmd.Flags().BoolVar(&scoreStrict, "strict", false, "Exit with an error when critical issues are found")
	}
	applyDefaultFlags(dedupeCmd)
	if dedupeCmd.Flags().Lookup("resolve") == nil {
		dedupeCmd.Flags().BoolVar(&dedupeResolve, "resolve", false, "Write a deduplicated policy instead of only reporting")
		dedupeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	}
	applyDefaultFlags(baselineCmd)
	applyDefaultFlags(dbMaintainCmd)
	if dbMaintainCmd.Flags().Lookup("skip-integrity") == nil {
		dbMaintainCmd.Flags().Bool("skip-integrity", false, "Skip integrity_check (SQLite) during maintenance")
	}
	applyDefaultFlags(restoreCmd)
	if restoreCmd.Flags().Lookup("full") == nil {
		restoreCmd.Flags().BoolVar(&fullRestore, "full", false, "Perform a full, destructive restore (wipes all existing data first)")
	}
	applyDefaultFlags(migrateCmd)
	if migrateCmd.Flags().Lookup("target-type") == nil {
		migrateCmd.Flags().String("target-type", "", "Target database type")
		migrateCmd.Flags().String("target-dsn", "", "Target database connection string")
	}

	// Add a lightweight `version` subcommand so users and CI can run
	// `warden version`.
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			resolvedVersion, resolvedCommit, resolvedDate := resolveBuildVersion(nil)
			fmt.Printf("version: %s\n", resolvedVersion)
			fmt.Printf("commit: %s\n", resolvedCommit)
			if resolvedDate != "" {
				fmt.Printf("built: %s\n", resolvedDate)
			}
		},
	}

	cmd.AddCommand(
		synthesizeCmd,
		mergeCmd,
		diffCmd,
		scoreCmd,
		dedupeCmd,
		baselineCmd,
		dbMaintainCmd,
		backupCmd,
		restoreCmd,
		migrateCmd,
		versionCmd,
	)

	return cmd
}

// resolveBuildVersion computes the best-available version, commit and build
// date for the running binary. If `info` is nil, it reads build info from
// the runtime. This helper is separated to make unit testing straightforward.
func resolveBuildVersion(info *debug.BuildInfo) (versionOut, commitOut, dateOut string) {
	resolvedVersion := buildvars.VersionOrDefault(version)
	resolvedCommit := gitCommit
	resolvedDate := buildDate

	var ok bool
	if info == nil {
		if infoLocal, found := debug.ReadBuildInfo(); found {
			info = infoLocal
			ok = true
		}
	} else {
		ok = true
	}

	if ok && info != nil {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			resolvedVersion = info.Main.Version
		}
		// If Main doesn't contain the version (some build paths), try to
		// find our module in the dependencies and use that version.
		if (resolvedVersion == "dev" || resolvedVersion == "(devel)") && info.Deps != nil {
			for _, dep := range info.Deps {
				if dep.Path == "github.com/wardenhq/warden" && dep.Version != "" {
					resolvedVersion = dep.Version
					break
				}
			}
		}

		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if s.Value != "" {
					resolvedCommit = s.Value
				}
			case "vcs.time":
				if s.Value != "" {
					resolvedDate = s.Value
				}
			}
		}
	}

	// As a last resort, if no version was discovered, but a gitCommit was
	// provided via ldflags, show that to aid support.
	if resolvedVersion == "dev" && gitCommit != "dev" && gitCommit != "" {
		resolvedVersion = gitCommit
	}

	return resolvedVersion, resolvedCommit, resolvedDate
}
