// Copyright (c) 2026 Warden Team
// Warden - application control policy toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"strconv"
	"time"

	"github.com/wardenhq/warden/core/model"
)

// MergeOptions configures a policy merge.
type MergeOptions struct {
	// EnforcementOverride forces the enforcement mode for specific
	// collections regardless of what the inputs declare.
	EnforcementOverride map[model.CollectionType]model.EnforcementMode

	// GeneratedAt stamps the merged document; zero means time.Now().UTC().
	GeneratedAt time.Time
}

// MergePolicies combines N policy documents into one. Rules are
// concatenated in source order, checked for allow/deny conflicts, then
// deduplicated per collection; surviving rules whose id collides with an
// earlier source are renamed with a disambiguating suffix rather than
// dropped. A hard conflict (identical condition, opposite action, same
// collection) aborts the merge with a *model.ConflictError and no partial
// output.
func MergePolicies(docs []*model.PolicyDocument, opts MergeOptions) (*model.PolicyDocument, *model.MergeReport, error) {
	report := &model.MergeReport{RulesPerSource: make([]int, len(docs))}
	for i, doc := range docs {
		report.RulesPerSource[i] = doc.RuleCount()
	}

	// Conflict scan runs before any mutation so a failed merge has no
	// partial effects.
	if err := findConflicts(docs); err != nil {
		return nil, nil, err
	}

	merged := model.NewPolicyDocument()
	seenIDs := make(map[string]bool)
	for _, ct := range model.AllCollections {
		var concat []model.Rule
		for _, doc := range docs {
			concat = append(concat, doc.Rules[ct]...)
		}
		if len(concat) == 0 {
			continue
		}
		kept, dupReport := ResolveDuplicates(concat)
		report.DuplicatesRemoved += dupReport.DuplicateCount

		for _, r := range kept {
			if seenIDs[r.ID] {
				r.ID = renameCollidingID(r.ID, seenIDs)
				report.IDCollisionsRenamed++
			}
			seenIDs[r.ID] = true
			merged.Rules[ct] = append(merged.Rules[ct], r)
		}
	}

	merged.Enforcement = mergeEnforcement(docs, opts.EnforcementOverride)
	merged.GeneratedAt = opts.GeneratedAt
	if merged.GeneratedAt.IsZero() {
		merged.GeneratedAt = time.Now().UTC()
	}
	if err := merged.Validate(); err != nil {
		return nil, nil, err
	}
	return merged, report, nil
}

// findConflicts looks for rules with identical condition keys but opposite
// actions within one collection across all sources. Both rule ids are
// reported so the caller can act; the merge never auto-picks a side.
func findConflicts(docs []*model.PolicyDocument) error {
	for _, ct := range model.AllCollections {
		byCondition := make(map[string]model.Rule)
		for _, doc := range docs {
			for _, r := range doc.Rules[ct] {
				if r.Condition == nil {
					continue
				}
				key := r.Condition.Key()
				prev, ok := byCondition[key]
				if ok && prev.Action != r.Action {
					return &model.ConflictError{
						Collection:   ct,
						ConditionKey: key,
						RuleIDs:      []string{prev.ID, r.ID},
					}
				}
				if !ok {
					byCondition[key] = r
				}
			}
		}
	}
	return nil
}

// renameCollidingID appends the smallest numeric suffix that makes the id
// unique among those already emitted.
func renameCollidingID(id string, seen map[string]bool) string {
	for n := 2; ; n++ {
		candidate := id + "-" + strconv.Itoa(n)
		if !seen[candidate] {
			return candidate
		}
	}
}

// mergeEnforcement resolves the per-collection enforcement mode
// conservatively: Enabled wins over AuditOnly, and an explicit caller
// override always wins.
func mergeEnforcement(docs []*model.PolicyDocument, override map[model.CollectionType]model.EnforcementMode) map[model.CollectionType]model.EnforcementMode {
	out := make(map[model.CollectionType]model.EnforcementMode)
	for _, doc := range docs {
		for ct, mode := range doc.Enforcement {
			if mode == model.ModeEnabled || out[ct] == "" {
				out[ct] = mode
			}
		}
	}
	for ct, mode := range override {
		out[ct] = mode
	}
	return out
}
