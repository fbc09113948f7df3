// Copyright (c) 2026 Warden Team
// Warden - application control policy toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"github.com/wardenhq/warden/core/model"
)

// DiffPolicies computes the incremental delta between freshly synthesized
// rules and a previously deployed baseline. Rule identity is the condition
// value scoped by collection and action, never the rule id - ids are
// random per synthesis run. Rules present in both sides are reported
// unchanged and keep the baseline's id and name, so downstream consumers
// see no churn for rules that did not actually change. Matching is
// multiset-based: repeated identities on either side pair up one-for-one
// in input order, so Diff(X, X) is empty even before deduplication.
func DiffPolicies(newRules []model.Rule, baseline *model.PolicyDocument) *model.Delta {
	baselineRules := baseline.AllRules()
	baselineByKey := make(map[string][]model.Rule, len(baselineRules))
	for _, r := range baselineRules {
		key := r.IdentityKey()
		baselineByKey[key] = append(baselineByKey[key], r)
	}

	delta := &model.Delta{}
	for _, r := range newRules {
		key := r.IdentityKey()
		if pending := baselineByKey[key]; len(pending) > 0 {
			delta.Unchanged = append(delta.Unchanged, pending[0])
			baselineByKey[key] = pending[1:]
			continue
		}
		delta.Added = append(delta.Added, r)
	}
	for _, r := range baselineRules {
		if pending := baselineByKey[r.IdentityKey()]; len(pending) > 0 && pending[0].ID == r.ID {
			delta.Removed = append(delta.Removed, r)
			baselineByKey[r.IdentityKey()] = pending[1:]
		}
	}
	return delta
}
