// Copyright (c) 2026 Warden Team
// Warden - application control policy toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"sort"
	"strings"

	"github.com/wardenhq/warden/core/model"
)

// Duplicate detection reasons, one per detection key. The keys apply in
// priority order: path first, then hash, then publisher+binary. A rule
// contributes exactly one key, derived from its condition kind; duplicates
// across different keys (say, the same hash declared under two different
// paths) are deliberately not unified and surface as separate groups.
const (
	ReasonSamePath      = "identical file path"
	ReasonSameHash      = "identical file hash"
	ReasonSamePublisher = "identical publisher and binary name"
)

// kindPriority orders duplicate groups in reports: path, hash, publisher.
var kindPriority = map[model.ConditionKind]int{
	model.KindPath:      0,
	model.KindHash:      1,
	model.KindPublisher: 2,
}

// duplicateKey derives the detection key and reason for one rule. Keys are
// scoped by collection and action: rules in different collections never
// shadow each other, and an allow/deny pair is a conflict, not a duplicate.
func duplicateKey(r model.Rule) (key, reason string) {
	if r.Condition == nil {
		return "", ""
	}
	switch c := r.Condition.(type) {
	case model.PathCondition:
		reason = ReasonSamePath
	case model.HashCondition:
		reason = ReasonSameHash
	case model.PublisherCondition:
		reason = ReasonSamePublisher
		key = string(r.Collection) + "/" + string(r.Action) + "/publisher:" +
			model.NormalizeIdentity(c.PublisherName) + "|" + strings.ToLower(c.BinaryName)
		return key, reason
	}
	return string(r.Collection) + "/" + string(r.Action) + "/" + r.Condition.Key(), reason
}

// DetectDuplicates finds redundant rules without modifying the input.
// The scan is hash-map based and deterministic: groups are reported by key
// priority, then by the position of their first member.
func DetectDuplicates(rules []model.Rule) *model.DuplicateReport {
	type bucket struct {
		first  int
		reason string
		rules  []model.Rule
	}
	buckets := make(map[string]*bucket, len(rules))
	uniq := 0
	for i, r := range rules {
		key, reason := duplicateKey(r)
		if key == "" {
			uniq++
			continue
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{first: i, reason: reason}
			buckets[key] = b
			uniq++
		}
		b.rules = append(b.rules, r)
	}

	var groups []*bucket
	for _, b := range buckets {
		if len(b.rules) >= 2 {
			groups = append(groups, b)
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		pi := kindPriority[groups[i].rules[0].Condition.Kind()]
		pj := kindPriority[groups[j].rules[0].Condition.Kind()]
		if pi != pj {
			return pi < pj
		}
		return groups[i].first < groups[j].first
	})

	report := &model.DuplicateReport{UniqueCount: uniq}
	for _, b := range groups {
		report.Groups = append(report.Groups, model.DuplicateGroup{Rules: b.rules, Reason: b.reason})
		report.DuplicateCount += len(b.rules) - 1
	}
	return report
}

// ResolveDuplicates removes redundant rules, keeping the first-encountered
// rule per detection key; original input order is the tie-break and is
// preserved in the output. Resolution is idempotent: resolving an
// already-resolved set returns it unchanged.
func ResolveDuplicates(rules []model.Rule) ([]model.Rule, *model.DuplicateReport) {
	report := DetectDuplicates(rules)
	if !report.HasDuplicates() {
		out := make([]model.Rule, len(rules))
		copy(out, rules)
		return out, report
	}
	seen := make(map[string]bool, len(rules))
	out := make([]model.Rule, 0, report.UniqueCount)
	for _, r := range rules {
		key, _ := duplicateKey(r)
		if key != "" {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, r)
	}
	return out, report
}
