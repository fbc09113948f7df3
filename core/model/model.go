// Copyright (c) 2026 Warden Team
// Warden - application control policy toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// Package model defines the core data structures for policy synthesis:
// inventory records collected from scanned hosts, the rules synthesized
// from them, and the policy documents handed to an external serializer.
package model // import "github.com/wardenhq/warden/core/model"

import (
	"fmt"
	"strings"
	"time"
)

// CollectionType identifies the file class a rule applies to.
type CollectionType string

const (
	CollectionExe    CollectionType = "Exe"
	CollectionMsi    CollectionType = "Msi"
	CollectionScript CollectionType = "Script"
	CollectionDll    CollectionType = "Dll"
	CollectionAppx   CollectionType = "Appx"
)

// AllCollections lists every collection type in canonical order. Iteration
// over policy documents uses this order so results are deterministic.
var AllCollections = []CollectionType{
	CollectionExe,
	CollectionMsi,
	CollectionScript,
	CollectionDll,
	CollectionAppx,
}

// RuleAction is the effect of a rule when its condition matches.
type RuleAction string

const (
	ActionAllow RuleAction = "Allow"
	ActionDeny  RuleAction = "Deny"
)

// EnforcementMode is the per-collection policy mode.
type EnforcementMode string

const (
	// ModeAuditOnly logs matches without blocking anything.
	ModeAuditOnly EnforcementMode = "AuditOnly"

	// ModeEnabled actively blocks files that no allow rule covers.
	ModeEnabled EnforcementMode = "Enabled"
)

// PublisherIdentity is the code-signing identity attached to an inventory
// record. Subject carries the raw certificate subject string (for example
// "O=Acme Corp, L=Springfield, C=US"); product and binary names are
// optional refinements taken from the signature metadata.
type PublisherIdentity struct {
	Subject     string
	ProductName string
	BinaryName  string
}

// InventoryRecord is one normalized entry from a scan artifact. Records are
// produced by the normalizer and consumed by the rule synthesizer; after
// synthesis they survive only through Rule.SourceRecordIDs.
type InventoryRecord struct {
	ID             string
	DisplayName    string
	Publisher      *PublisherIdentity // nil when the file is unsigned
	FilePath       string
	FileHash       string // SHA-256 hex, empty when not collected
	FileSize       int64  // bytes, 0 when not collected
	Collection     CollectionType
	SourceArtifact string
}

// ConditionKind tags the concrete type of a rule condition.
type ConditionKind string

const (
	KindPublisher ConditionKind = "publisher"
	KindHash      ConditionKind = "hash"
	KindPath      ConditionKind = "path"
)

// Condition is the matching predicate of a rule. Exactly one concrete
// condition type backs each rule. Key returns a canonical identity string
// used for duplicate detection, diffing and merge conflict checks; two
// conditions with equal keys match the same files.
type Condition interface {
	Kind() ConditionKind
	Key() string
}

// PublisherCondition matches files signed by a publisher, optionally
// narrowed to a product and binary name. File versions are deliberately
// not part of the match so rules survive software updates.
type PublisherCondition struct {
	PublisherName string
	ProductName   string
	BinaryName    string
}

// Kind implements Condition.
func (c PublisherCondition) Kind() ConditionKind { return KindPublisher }

// Key implements Condition. Publisher names compare case-insensitively
// with collapsed whitespace; product and binary names case-insensitively.
func (c PublisherCondition) Key() string {
	return "publisher:" + NormalizeIdentity(c.PublisherName) +
		"|" + strings.ToLower(c.ProductName) +
		"|" + strings.ToLower(c.BinaryName)
}

// HashCondition matches a file by its exact SHA-256 content hash.
type HashCondition struct {
	Hash       string
	FileLength int64
}

// Kind implements Condition.
func (c HashCondition) Kind() ConditionKind { return KindHash }

// Key implements Condition.
func (c HashCondition) Key() string {
	return "hash:" + strings.ToLower(c.Hash)
}

// PathCondition matches files by filesystem location. Path rules are never
// synthesized automatically; they only enter a policy through explicit
// manual creation or an imported baseline.
type PathCondition struct {
	Pattern string
}

// Kind implements Condition.
func (c PathCondition) Kind() ConditionKind { return KindPath }

// Key implements Condition.
func (c PathCondition) Key() string {
	return "path:" + NormalizePath(c.Pattern)
}

// IsWildcardOnly reports whether the pattern consists solely of wildcard
// characters (and path separators), i.e. matches everything.
func (c PathCondition) IsWildcardOnly() bool {
	trimmed := strings.TrimSpace(c.Pattern)
	if trimmed == "" {
		return false
	}
	for _, r := range trimmed {
		switch r {
		case '*', '?', '\\', '/', '.':
		default:
			return false
		}
	}
	return strings.ContainsRune(trimmed, '*')
}

// Rule is one allow/deny entry in a policy document.
type Rule struct {
	ID              string
	Name            string
	Action          RuleAction
	Collection      CollectionType
	Condition       Condition
	GroupTarget     string
	SourceRecordIDs []string
}

// IdentityKey is the rule identity used by the differencer and the merger:
// the condition value scoped by collection and action. Rule ids are random
// per synthesis run and deliberately excluded.
func (r Rule) IdentityKey() string {
	key := "<nil>"
	if r.Condition != nil {
		key = r.Condition.Key()
	}
	return string(r.Collection) + "/" + string(r.Action) + "/" + key
}

// String returns a short human-readable description of the rule.
func (r Rule) String() string {
	kind := ConditionKind("none")
	if r.Condition != nil {
		kind = r.Condition.Kind()
	}
	return fmt.Sprintf("%s %s rule %q (%s)", r.Action, kind, r.Name, r.ID)
}

// PolicyDocument is a full application-control rule set: rules keyed by
// collection type plus per-collection enforcement metadata. The engine
// produces and transforms these structures; serializing them to platform
// XML is the job of an external collaborator.
type PolicyDocument struct {
	Rules       map[CollectionType][]Rule
	Enforcement map[CollectionType]EnforcementMode
	GeneratedAt time.Time
}

// NewPolicyDocument returns an empty document with initialized maps.
func NewPolicyDocument() *PolicyDocument {
	return &PolicyDocument{
		Rules:       make(map[CollectionType][]Rule),
		Enforcement: make(map[CollectionType]EnforcementMode),
	}
}

// AllRules returns every rule in the document, ordered by the canonical
// collection order and by position within each collection.
func (d *PolicyDocument) AllRules() []Rule {
	var out []Rule
	for _, ct := range AllCollections {
		out = append(out, d.Rules[ct]...)
	}
	return out
}

// RuleCount returns the total number of rules across all collections.
func (d *PolicyDocument) RuleCount() int {
	n := 0
	for _, rules := range d.Rules {
		n += len(rules)
	}
	return n
}

// Validate checks document-level invariants. A duplicate rule id inside a
// single document signals a programming error upstream, never user input.
func (d *PolicyDocument) Validate() error {
	seen := make(map[string]string, d.RuleCount())
	for _, ct := range AllCollections {
		for _, r := range d.Rules[ct] {
			if r.ID == "" {
				return &InvariantError{Msg: fmt.Sprintf("rule %q has an empty id", r.Name)}
			}
			if prev, ok := seen[r.ID]; ok {
				return &InvariantError{Msg: fmt.Sprintf("duplicate rule id %s (rules %q and %q)", r.ID, prev, r.Name)}
			}
			if pc, ok := r.Condition.(PublisherCondition); ok && strings.TrimSpace(pc.PublisherName) == "" {
				return &InvariantError{Msg: fmt.Sprintf("rule %s has a publisher condition with an empty publisher name", r.ID)}
			}
			seen[r.ID] = r.Name
		}
	}
	return nil
}

// NormalizeIdentity canonicalizes a publisher identity string for
// comparison: case-insensitive with runs of whitespace collapsed.
func NormalizeIdentity(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// NormalizePath canonicalizes a file path for comparison. Paths compare
// case-insensitively and forward slashes are folded into backslashes since
// scan artifacts mix both separators for the same locations.
func NormalizePath(p string) string {
	p = strings.TrimSpace(strings.ToLower(p))
	return strings.ReplaceAll(p, "/", `\`)
}
