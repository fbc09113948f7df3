// Copyright (c) 2026 Warden Team
// Warden - application control policy toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"github.com/wardenhq/warden/core/model"
)

// GroupingResult is the output of publisher grouping. Audit maps every
// collapsed group rule to the rules it replaced.
type GroupingResult struct {
	Rules []model.Rule
	Audit model.GroupingAudit
}

// groupKey identifies a grouping bucket. Rules are never merged across
// collection types or actions.
type groupKey struct {
	collection model.CollectionType
	action     model.RuleAction
	publisher  string // normalized
}

// GroupByPublisher merges publisher rules that share a normalized publisher
// identity within one collection type. Groups of two or more collapse into
// a single broadened rule that drops binary- and product-name specificity;
// singleton groups and non-publisher rules pass through unchanged, in their
// original order. Grouping an already-grouped list is a no-op.
func GroupByPublisher(rules []model.Rule) *GroupingResult {
	buckets := make(map[groupKey][]int, len(rules))
	for i, r := range rules {
		pc, ok := r.Condition.(model.PublisherCondition)
		if !ok {
			continue
		}
		key := groupKey{
			collection: r.Collection,
			action:     r.Action,
			publisher:  model.NormalizeIdentity(pc.PublisherName),
		}
		buckets[key] = append(buckets[key], i)
	}

	result := &GroupingResult{Audit: make(model.GroupingAudit)}
	emitted := make(map[groupKey]bool, len(buckets))
	for _, r := range rules {
		pc, ok := r.Condition.(model.PublisherCondition)
		if !ok {
			result.Rules = append(result.Rules, r)
			continue
		}
		key := groupKey{
			collection: r.Collection,
			action:     r.Action,
			publisher:  model.NormalizeIdentity(pc.PublisherName),
		}
		members := buckets[key]
		if len(members) < 2 {
			result.Rules = append(result.Rules, r)
			continue
		}
		if emitted[key] {
			continue // already collapsed at the first member's position
		}
		emitted[key] = true
		result.Rules = append(result.Rules, collapseGroup(rules, members, pc))
		groupRule := &result.Rules[len(result.Rules)-1]
		for _, idx := range members {
			result.Audit[groupRule.ID] = append(result.Audit[groupRule.ID], rules[idx].ID)
		}
	}
	return result
}

// collapseGroup builds the single broadened rule replacing a group of
// same-publisher rules. The broadening is intentional: dropping the binary
// name trades specificity for a much smaller rule count.
func collapseGroup(rules []model.Rule, members []int, first model.PublisherCondition) model.Rule {
	var sources []string
	for _, idx := range members {
		sources = append(sources, rules[idx].SourceRecordIDs...)
	}
	head := rules[members[0]]
	return model.Rule{
		ID:         NewRuleID(),
		Name:       "Publisher: " + first.PublisherName,
		Action:     head.Action,
		Collection: head.Collection,
		Condition: model.PublisherCondition{
			PublisherName: first.PublisherName,
		},
		GroupTarget:     head.GroupTarget,
		SourceRecordIDs: sources,
	}
}
