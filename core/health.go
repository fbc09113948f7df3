// Copyright (c) 2026 Warden Team
// Warden - application control policy toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"fmt"
	"strings"

	"github.com/wardenhq/warden/core/model"
)

// Health issue codes emitted by ScorePolicy.
const (
	IssueDefaultAllowAll  = "default-allow-all"
	IssueHashRatio        = "hash-ratio"
	IssueEmptyEnforced    = "empty-enforced-collection"
	IssueDuplicateRules   = "duplicates"
	IssueDenyWildcardPath = "deny-wildcard-path"
)

// Score deductions per finding.
const (
	penaltyDefaultAllowAll  = 40
	penaltyHashRatio        = 10
	penaltyEmptyEnforced    = 20
	penaltyPerDuplicate     = 5
	penaltyDenyWildcardPath = 15
)

// HealthOptions configures policy scoring.
type HealthOptions struct {
	// HashRuleThreshold is the hash-rule share above which a warning is
	// raised. Zero means the default of 0.5.
	HashRuleThreshold float64

	// DuplicatePenaltyCap bounds the total deduction for duplicate rules.
	// Zero means the default of 25.
	DuplicatePenaltyCap int
}

const (
	defaultHashRuleThreshold   = 0.5
	defaultDuplicatePenaltyCap = 25
)

// ScorePolicy validates a policy document and scores its health on a
// 0-100 scale through weighted deductions. Scoring is deterministic:
// identical input always yields the identical score and issue list.
func ScorePolicy(doc *model.PolicyDocument, opts HealthOptions) *model.HealthReport {
	if opts.HashRuleThreshold <= 0 {
		opts.HashRuleThreshold = defaultHashRuleThreshold
	}
	if opts.DuplicatePenaltyCap <= 0 {
		opts.DuplicatePenaltyCap = defaultDuplicatePenaltyCap
	}

	report := &model.HealthReport{
		RuleTypeCounts: make(map[model.ConditionKind]int),
	}
	allRules := doc.AllRules()
	for _, r := range allRules {
		if r.Condition != nil {
			report.RuleTypeCounts[r.Condition.Kind()]++
		}
	}

	deductions := 0

	// An unmodified default "allow all files" rule defeats the whole
	// policy regardless of what else is in it.
	if ids := wildcardAllowRuleIDs(allRules); len(ids) > 0 {
		deductions += penaltyDefaultAllowAll
		report.Issues = append(report.Issues, model.HealthIssue{
			Severity: model.SeverityCritical,
			Code:     IssueDefaultAllowAll,
			Message:  fmt.Sprintf("default allow-all path rule present (%s)", strings.Join(ids, ", ")),
		})
	}

	// Hash rules break on every file update; a policy dominated by them
	// rots quickly.
	hashCount := report.RuleTypeCounts[model.KindHash]
	if len(allRules) > 0 {
		ratio := float64(hashCount) / float64(len(allRules))
		if ratio > opts.HashRuleThreshold {
			deductions += penaltyHashRatio
			report.Issues = append(report.Issues, model.HealthIssue{
				Severity: model.SeverityWarning,
				Code:     IssueHashRatio,
				Message:  fmt.Sprintf("%.0f%% of rules are hash rules (threshold %.0f%%)", ratio*100, opts.HashRuleThreshold*100),
			})
		}
	}

	// An enforced collection with no rules blocks everything in it.
	for _, ct := range model.AllCollections {
		if doc.Enforcement[ct] == model.ModeEnabled && len(doc.Rules[ct]) == 0 {
			deductions += penaltyEmptyEnforced
			report.Issues = append(report.Issues, model.HealthIssue{
				Severity: model.SeverityCritical,
				Code:     IssueEmptyEnforced,
				Message:  fmt.Sprintf("collection %s is enforced but contains zero rules", ct),
			})
		}
	}

	// Duplicates: each redundant rule costs a little, capped so a noisy
	// import cannot zero out the score by itself.
	if dupReport := DetectDuplicates(allRules); dupReport.HasDuplicates() {
		penalty := dupReport.DuplicateCount * penaltyPerDuplicate
		if penalty > opts.DuplicatePenaltyCap {
			penalty = opts.DuplicatePenaltyCap
		}
		deductions += penalty
		report.Issues = append(report.Issues, model.HealthIssue{
			Severity: model.SeverityWarning,
			Code:     IssueDuplicateRules,
			Message:  dupReport.Summary(),
		})
	}

	// A deny rule on a wildcard-only path is trivially bypassed by
	// relocating the file.
	for _, r := range allRules {
		pc, ok := r.Condition.(model.PathCondition)
		if !ok || r.Action != model.ActionDeny || !pc.IsWildcardOnly() {
			continue
		}
		deductions += penaltyDenyWildcardPath
		report.Issues = append(report.Issues, model.HealthIssue{
			Severity: model.SeverityCritical,
			Code:     IssueDenyWildcardPath,
			Message:  fmt.Sprintf("deny rule %s uses a wildcard-only path pattern %q", r.ID, pc.Pattern),
		})
	}

	report.Score = 100 - deductions
	if report.Score < 0 {
		report.Score = 0
	}
	if report.Score > 100 {
		report.Score = 100
	}
	return report
}

// wildcardAllowRuleIDs returns the ids of allow rules whose path pattern
// matches everything.
func wildcardAllowRuleIDs(rules []model.Rule) []string {
	var ids []string
	for _, r := range rules {
		pc, ok := r.Condition.(model.PathCondition)
		if ok && r.Action == model.ActionAllow && pc.IsWildcardOnly() {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

