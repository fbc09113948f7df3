// Copyright (c) 2026 Warden Team
// Warden - application control policy toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"fmt"
	"strings"
)

// DuplicateGroup is a set of rules that match the same files according to
// one detection key.
type DuplicateGroup struct {
	Rules  []Rule
	Reason string // which key matched, e.g. "identical file hash"
}

// DuplicateReport is the non-destructive output of duplicate detection.
type DuplicateReport struct {
	Groups         []DuplicateGroup
	UniqueCount    int // rules that would survive resolution
	DuplicateCount int // rules that resolution would eliminate
}

// HasDuplicates reports whether any duplicate group was found.
func (r *DuplicateReport) HasDuplicates() bool { return r.DuplicateCount > 0 }

// Summary returns a one-line human-readable account of the report.
func (r *DuplicateReport) Summary() string {
	if !r.HasDuplicates() {
		return "No duplicate rules detected"
	}
	return fmt.Sprintf("%d duplicate rules in %d groups (%d unique)",
		r.DuplicateCount, len(r.Groups), r.UniqueCount)
}

// Delta is the incremental difference between freshly synthesized rules and
// a previously deployed baseline. Unchanged rules keep the baseline's id
// and name so downstream consumers see no churn.
type Delta struct {
	Added     []Rule
	Removed   []Rule
	Unchanged []Rule
}

// IsEmpty reports whether the delta contains no additions or removals.
func (d *Delta) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// Summary returns a one-line human-readable account of the delta.
func (d *Delta) Summary() string {
	return fmt.Sprintf("%d added, %d removed, %d unchanged",
		len(d.Added), len(d.Removed), len(d.Unchanged))
}

// IssueSeverity classifies health scorer findings.
type IssueSeverity string

const (
	// SeverityCritical marks findings that undermine the policy outright,
	// like a default allow-all rule.
	SeverityCritical IssueSeverity = "critical"

	// SeverityWarning marks findings worth fixing that do not defeat the
	// policy on their own.
	SeverityWarning IssueSeverity = "warning"
)

// HealthIssue is a single scored finding in a policy document.
type HealthIssue struct {
	Severity IssueSeverity
	Code     string
	Message  string
}

// HealthReport is the result of validating and scoring a policy document.
// Identical input always yields an identical report.
type HealthReport struct {
	Score          int // 0..100
	Issues         []HealthIssue
	RuleTypeCounts map[ConditionKind]int
}

// HasCritical reports whether any critical issue was found.
func (r *HealthReport) HasCritical() bool {
	for _, is := range r.Issues {
		if is.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// Summary returns a human-readable account of the health report.
func (r *HealthReport) Summary() string {
	if len(r.Issues) == 0 {
		return fmt.Sprintf("Score %d/100, no issues", r.Score)
	}
	var parts []string
	for _, is := range r.Issues {
		parts = append(parts, fmt.Sprintf("[%s] %s", is.Severity, is.Message))
	}
	return fmt.Sprintf("Score %d/100: %s", r.Score, strings.Join(parts, "; "))
}

// MergeReport accounts for everything the policy merger did. Every input
// rule is represented: it either survived into the output, was removed as
// a duplicate, or was renamed after an id collision.
type MergeReport struct {
	RulesPerSource      []int
	DuplicatesRemoved   int
	IDCollisionsRenamed int
}

// GroupingAudit maps each collapsed group rule id to the ids of the rules
// it replaced, so broadened rules stay traceable to their origins.
type GroupingAudit map[string][]string
