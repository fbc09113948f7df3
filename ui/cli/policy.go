// Copyright (c) 2026 Warden Team
// Warden - application control policy toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// policy.go implements the policy pipeline commands: synthesize, merge,
// diff, score and dedupe. All heavy lifting is delegated to the core
// engine; this file only moves bytes in and out.

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/charmbracelet/log"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/core"
	"github.com/wardenhq/warden/core/model"
	"github.com/wardenhq/warden/internal/db"
	"github.com/wardenhq/warden/internal/i18n"
	"github.com/wardenhq/warden/util/mapst"
	"github.com/wardenhq/warden/util/slicest"
)

var synthFormat string
var synthAction string
var synthRegistry string
var synthGroup string
var synthMode string
var outputFile string
var mergeEnforce []string
var scoreStrict bool
var dedupeResolve bool

// readPolicyDocument loads a policy document from a JSON file and
// validates its structural invariants.
func readPolicyDocument(path string) (*model.PolicyDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read policy file: %w", err)
	}
	var doc model.PolicyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("could not parse policy file %s: %w", path, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("policy file %s is invalid: %w", path, err)
	}
	return &doc, nil
}

// writePolicyDocument marshals a policy document as indented JSON. An
// empty path writes to stdout.
func writePolicyDocument(doc *model.PolicyDocument, path string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" || path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// resolvePolicyArg treats the argument as a file path when such a file
// exists, and as the name of a stored baseline otherwise.
func resolvePolicyArg(arg string) (*model.PolicyDocument, error) {
	if _, err := os.Stat(arg); err == nil {
		return readPolicyDocument(arg)
	}
	baseline, err := db.GetBaselineByName(arg)
	if err != nil {
		return nil, fmt.Errorf("%s is neither a file nor a stored baseline: %w", arg, err)
	}
	var doc model.PolicyDocument
	if err := json.Unmarshal([]byte(baseline.Document), &doc); err != nil {
		return nil, fmt.Errorf("stored baseline %s is corrupt: %w", arg, err)
	}
	return &doc, nil
}

// loadRegistry parses a trusted-publisher registry YAML file.
func loadRegistry(path string) (*core.PublisherRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read registry file: %w", err)
	}
	var entries []core.PublisherRegistryEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("could not parse registry file %s: %w", path, err)
	}
	return core.NewPublisherRegistry(entries), nil
}

// parseEnforceOverrides turns "Exe=Enabled" style flags into an
// enforcement override map.
func parseEnforceOverrides(specs []string) (map[model.CollectionType]model.EnforcementMode, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	override := make(map[model.CollectionType]model.EnforcementMode, len(specs))
	for _, spec := range specs {
		parts := strings.SplitN(spec, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid --enforce value %q, expected Collection=Mode", spec)
		}
		ct, err := parseCollection(parts[0])
		if err != nil {
			return nil, err
		}
		mode, err := parseEnforcementMode(parts[1])
		if err != nil {
			return nil, err
		}
		override[ct] = mode
	}
	return override, nil
}

func parseCollection(s string) (model.CollectionType, error) {
	for _, ct := range model.AllCollections {
		if strings.EqualFold(s, string(ct)) {
			return ct, nil
		}
	}
	return "", fmt.Errorf("unknown collection type %q", s)
}

func parseEnforcementMode(s string) (model.EnforcementMode, error) {
	switch {
	case strings.EqualFold(s, string(model.ModeAuditOnly)):
		return model.ModeAuditOnly, nil
	case strings.EqualFold(s, string(model.ModeEnabled)):
		return model.ModeEnabled, nil
	default:
		return "", fmt.Errorf("unknown enforcement mode %q", s)
	}
}

func parseAction(s string) (model.RuleAction, error) {
	switch {
	case strings.EqualFold(s, string(model.ActionAllow)):
		return model.ActionAllow, nil
	case strings.EqualFold(s, string(model.ActionDeny)):
		return model.ActionDeny, nil
	default:
		return "", fmt.Errorf("unknown rule action %q", s)
	}
}

// synthesizeCmd represents the 'synthesize' command.
// It runs the full artifact-to-policy pipeline: normalize, synthesize,
// group by publisher, assemble a policy document.
var synthesizeCmd = &cobra.Command{
	Use:   "synthesize <artifact-file>",
	Short: "Synthesize an application-control policy from a scan artifact",
	Long: `Parses a software-inventory artifact and synthesizes a policy document.

The artifact format is selected with --format: 'csv' for delimited
exports with a header row, 'json' for flat JSON inventories, and 'scan'
for comprehensive scan reports. Rules prefer publisher conditions over
hash conditions; records without a usable identity are reported and
skipped. Rules sharing a publisher identity are collapsed into one.

Example:
  warden synthesize --format csv --registry publishers.yaml -o policy.json inventory.csv`,
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		artifactFile := args[0]

		action, err := parseAction(synthAction)
		if err != nil {
			log.Fatalf("%s", i18n.T("synth.error_flags", err))
		}
		mode, err := parseEnforcementMode(synthMode)
		if err != nil {
			log.Fatalf("%s", i18n.T("synth.error_flags", err))
		}

		var registry *core.PublisherRegistry
		if synthRegistry != "" {
			registry, err = loadRegistry(synthRegistry)
			if err != nil {
				log.Fatalf("%s", i18n.T("synth.error_registry", err))
			}
		}

		data, err := os.ReadFile(artifactFile)
		if err != nil {
			log.Fatalf("%s", i18n.T("synth.error_read", err))
		}

		normalized, err := core.NormalizeArtifact(data, core.ArtifactFormat(synthFormat), artifactFile)
		if err != nil {
			log.Fatalf("%s", i18n.T("synth.error_parse", err))
		}
		for _, s := range normalized.Skipped {
			fmt.Println(i18n.T("synth.skipped_record", s.String()))
		}

		synth := core.SynthesizeRules(normalized.Records, core.SynthesisOptions{
			Action:      action,
			GroupTarget: synthGroup,
			Registry:    registry,
		})
		for _, s := range synth.Skipped {
			fmt.Println(i18n.T("synth.skipped_record", s.String()))
		}

		grouped := core.GroupByPublisher(synth.Rules)

		doc := model.NewPolicyDocument()
		doc.GeneratedAt = time.Now().UTC()
		for _, rule := range grouped.Rules {
			doc.Rules[rule.Collection] = append(doc.Rules[rule.Collection], rule)
		}
		for ct := range doc.Rules {
			doc.Enforcement[ct] = mode
		}
		if err := doc.Validate(); err != nil {
			log.Fatalf("%s", i18n.T("synth.error_invalid", err))
		}

		if err := writePolicyDocument(doc, outputFile); err != nil {
			log.Fatalf("%s", i18n.T("synth.error_write", err))
		}

		fmt.Println(i18n.T("synth.summary",
			len(normalized.Records), doc.RuleCount(),
			len(normalized.Skipped)+len(synth.Skipped)))
		if outputFile != "" {
			fmt.Println(i18n.T("synth.written", outputFile))
		}

		details := fmt.Sprintf("artifact: %s, rules: %d", artifactFile, doc.RuleCount())
		if err := db.LogAction("SYNTHESIZE_POLICY", details); err != nil {
			log.Warnf("could not write audit log entry: %v", err)
		}
	},
}

// mergeCmd represents the 'merge' command.
var mergeCmd = &cobra.Command{
	Use:   "merge <policy-file>...",
	Short: "Merge multiple policy documents into one",
	Long: `Merges two or more policy documents into a single deduplicated policy.

Rules are concatenated in argument order and deduplicated per collection;
allow/deny conflicts on the same condition abort the merge. Enforcement
is merged conservatively (Enabled wins) unless overridden with --enforce.

Example:
  warden merge -o merged.json --enforce Exe=Enabled site-a.json site-b.json`,
	Args:    cobra.MinimumNArgs(2),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		override, err := parseEnforceOverrides(mergeEnforce)
		if err != nil {
			log.Fatalf("%s", i18n.T("merge.error_flags", err))
		}

		docs := make([]*model.PolicyDocument, 0, len(args))
		for _, path := range args {
			doc, err := readPolicyDocument(path)
			if err != nil {
				log.Fatalf("%s", i18n.T("merge.error_read", err))
			}
			docs = append(docs, doc)
		}

		merged, report, err := core.MergePolicies(docs, core.MergeOptions{EnforcementOverride: override})
		if err != nil {
			log.Fatalf("%s", i18n.T("merge.error_conflict", err))
		}

		if err := writePolicyDocument(merged, outputFile); err != nil {
			log.Fatalf("%s", i18n.T("merge.error_write", err))
		}

		fmt.Println(i18n.T("merge.summary",
			len(args), merged.RuleCount(), report.DuplicatesRemoved, report.IDCollisionsRenamed))

		details := fmt.Sprintf("sources: %d, rules: %d", len(args), merged.RuleCount())
		if err := db.LogAction("MERGE_POLICIES", details); err != nil {
			log.Warnf("could not write audit log entry: %v", err)
		}
	},
}

// diffCmd represents the 'diff' command.
var diffCmd = &cobra.Command{
	Use:   "diff <new-policy> <baseline>",
	Short: "Diff a policy against a baseline",
	Long: `Compares a new policy document against a baseline and reports added,
removed and unchanged rules. Rules are matched by semantic identity
(collection, action and condition), not by rule id or name.

Both arguments may be JSON files; the baseline may also name a stored
baseline from the database.

Example:
  warden diff new-policy.json production-2026-08`,
	Args:    cobra.ExactArgs(2),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		newDoc, err := resolvePolicyArg(args[0])
		if err != nil {
			log.Fatalf("%s", i18n.T("diff.error_read", err))
		}
		baseline, err := resolvePolicyArg(args[1])
		if err != nil {
			log.Fatalf("%s", i18n.T("diff.error_read", err))
		}

		delta := core.DiffPolicies(newDoc.AllRules(), baseline)

		for _, r := range delta.Added {
			fmt.Printf("+ %s\n", r.String())
		}
		for _, r := range delta.Removed {
			fmt.Printf("- %s\n", r.String())
		}
		fmt.Println(delta.Summary())
	},
}

// scoreCmd represents the 'score' command.
var scoreCmd = &cobra.Command{
	Use:   "score <policy>",
	Short: "Score the health of a policy",
	Long: `Validates a policy document and scores its health on a 0-100 scale.

Deductions cover wildcard allow rules, hash-heavy policies, enforced
collections without rules, duplicates and wildcard deny rules. The
hash-rule threshold and duplicate penalty cap come from the config file
(health.hash_rule_threshold, health.duplicate_penalty_cap).

The argument may be a JSON file or the name of a stored baseline.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := resolvePolicyArg(args[0])
		if err != nil {
			log.Fatalf("%s", i18n.T("score.error_read", err))
		}

		report := core.ScorePolicy(doc, core.HealthOptions{
			HashRuleThreshold:   appConfig.Health.HashRuleThreshold,
			DuplicatePenaltyCap: appConfig.Health.DuplicatePenaltyCap,
		})

		for _, issue := range report.Issues {
			fmt.Printf("[%s] %s: %s\n", issue.Severity, issue.Code, issue.Message)
		}
		fmt.Println(report.Summary())

		if scoreStrict && report.HasCritical() {
			return fmt.Errorf("%s", i18n.T("score.error_critical", args[0]))
		}
		return nil
	},
}

// dedupeCmd represents the 'dedupe' command.
var dedupeCmd = &cobra.Command{
	Use:   "dedupe <policy-file>",
	Short: "Report or resolve duplicate rules in a policy",
	Long: `Detects rules with identical conditions within the same collection and
action. Without --resolve only a report is printed; with --resolve a
deduplicated policy keeping the first occurrence of each duplicate set
is written.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		doc, err := readPolicyDocument(args[0])
		if err != nil {
			log.Fatalf("%s", i18n.T("dedupe.error_read", err))
		}

		if !dedupeResolve {
			report := core.DetectDuplicates(doc.AllRules())
			for _, group := range report.Groups {
				ids := slicest.Map(group.Rules, func(r model.Rule) string { return r.ID })
				fmt.Println(i18n.T("dedupe.group", group.Reason, strings.Join(ids, ", ")))
			}
			fmt.Println(report.Summary())
			return
		}

		resolved := model.NewPolicyDocument()
		resolved.GeneratedAt = doc.GeneratedAt
		mapst.Each(doc.Enforcement, func(ct model.CollectionType, mode model.EnforcementMode) {
			resolved.Enforcement[ct] = mode
		})
		kept, report := core.ResolveDuplicates(doc.AllRules())
		for _, rule := range kept {
			resolved.Rules[rule.Collection] = append(resolved.Rules[rule.Collection], rule)
		}

		if err := writePolicyDocument(resolved, outputFile); err != nil {
			log.Fatalf("%s", i18n.T("dedupe.error_write", err))
		}
		fmt.Println(report.Summary())

		details := fmt.Sprintf("policy: %s, removed: %d", args[0], report.DuplicateCount)
		if err := db.LogAction("DEDUPE_POLICY", details); err != nil {
			log.Warnf("could not write audit log entry: %v", err)
		}
	},
}
