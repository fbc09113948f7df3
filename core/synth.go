// Copyright (c) 2026 Warden Team
// Warden - application control policy toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/wardenhq/warden/core/model"
)

// DefaultGroupTarget is the principal a synthesized rule applies to unless
// the caller overrides it.
const DefaultGroupTarget = "Everyone"

// SynthesisOptions configures rule synthesis.
type SynthesisOptions struct {
	// Action for every synthesized rule. Defaults to Allow.
	Action model.RuleAction

	// GroupTarget for every synthesized rule. Defaults to DefaultGroupTarget.
	GroupTarget string

	// Registry optionally maps known publishers to a category; rules for a
	// registered publisher carry the entry's category as their group target.
	Registry *PublisherRegistry
}

// SynthesisResult is the successful output of rule synthesis. Records with
// no usable identity are reported in Skipped, never raised as errors.
type SynthesisResult struct {
	Rules   []model.Rule
	Skipped []model.SkippedRecord
}

// SynthesizeRules converts inventory records into rules, one per record,
// choosing the condition type through the fixed priority policy: a valid
// publisher signature always wins over a hash, and path conditions are
// never generated automatically.
func SynthesizeRules(records []model.InventoryRecord, opts SynthesisOptions) *SynthesisResult {
	if opts.Action == "" {
		opts.Action = model.ActionAllow
	}
	if opts.GroupTarget == "" {
		opts.GroupTarget = DefaultGroupTarget
	}

	result := &SynthesisResult{}
	for i, rec := range records {
		rule, skip := synthesizeOne(rec, i, opts)
		if skip != nil {
			result.Skipped = append(result.Skipped, *skip)
			continue
		}
		result.Rules = append(result.Rules, rule)
	}
	return result
}

// synthesizeOne builds one rule from one record, or a skip note when the
// record carries no usable identity or fails validation.
func synthesizeOne(rec model.InventoryRecord, index int, opts SynthesisOptions) (model.Rule, *model.SkippedRecord) {
	if detail, bad := firstIllegalField(rec); bad {
		return model.Rule{}, &model.SkippedRecord{
			Index:  index,
			Source: rec.SourceArtifact,
			Reason: model.SkipValidation,
			Detail: detail,
		}
	}

	cond := chooseCondition(rec)
	if cond == nil {
		return model.Rule{}, &model.SkippedRecord{
			Index:  index,
			Source: rec.SourceArtifact,
			Reason: model.SkipNoIdentity,
			Detail: fmt.Sprintf("%q has neither a valid publisher signature nor a well-formed hash", rec.DisplayName),
		}
	}

	name := rec.DisplayName
	if name == "" {
		name = baseName(rec.FilePath)
	}
	// Registry entries hold the raw identity string, so the lookup must
	// happen before XML escaping rewrites the subject.
	target := opts.GroupTarget
	if _, ok := cond.(model.PublisherCondition); ok && opts.Registry != nil {
		if entry, found := opts.Registry.Lookup(rec.Publisher.Subject); found && entry.Category != "" {
			target = entry.Category
		}
	}

	return model.Rule{
		ID:              NewRuleID(),
		Name:            EscapeXMLText(name),
		Action:          opts.Action,
		Collection:      rec.Collection,
		Condition:       cond,
		GroupTarget:     EscapeXMLText(target),
		SourceRecordIDs: []string{rec.ID},
	}, nil
}

// chooseCondition is the single place the rule-type priority is defined:
// Publisher beats Hash, and Path is never chosen automatically. It returns
// nil when the record has no usable identity.
func chooseCondition(rec model.InventoryRecord) model.Condition {
	if hasValidPublisher(rec.Publisher) {
		return model.PublisherCondition{
			PublisherName: EscapeXMLText(rec.Publisher.Subject),
			ProductName:   EscapeXMLText(rec.Publisher.ProductName),
			BinaryName:    EscapeXMLText(publisherBinaryName(rec)),
		}
	}
	if isValidSHA256(rec.FileHash) {
		return model.HashCondition{
			Hash:       strings.ToLower(rec.FileHash),
			FileLength: rec.FileSize,
		}
	}
	return nil
}

// publisherBinaryName picks the binary name carried into a publisher
// condition: the signature metadata when present, the file name otherwise.
func publisherBinaryName(rec model.InventoryRecord) string {
	if rec.Publisher.BinaryName != "" {
		return rec.Publisher.BinaryName
	}
	return baseName(rec.FilePath)
}

// hasValidPublisher reports whether the identity is well-formed: a
// non-empty organization subject free of control characters.
func hasValidPublisher(p *model.PublisherIdentity) bool {
	if p == nil || strings.TrimSpace(p.Subject) == "" {
		return false
	}
	return !containsIllegalControl(p.Subject)
}

// isValidSHA256 reports whether s is a 64-character hex string.
func isValidSHA256(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// firstIllegalField scans every string field destined for serialization
// and reports the first one containing a control character outside
// tab/newline/carriage return. Such records are rejected outright rather
// than silently escaped.
func firstIllegalField(rec model.InventoryRecord) (string, bool) {
	fields := []struct {
		name  string
		value string
	}{
		{"displayName", rec.DisplayName},
		{"filePath", rec.FilePath},
		{"fileHash", rec.FileHash},
	}
	if rec.Publisher != nil {
		fields = append(fields,
			struct{ name, value string }{"publisher.productName", rec.Publisher.ProductName},
			struct{ name, value string }{"publisher.binaryName", rec.Publisher.BinaryName},
		)
	}
	for _, f := range fields {
		if containsIllegalControl(f.value) {
			return fmt.Sprintf("control character in %s", f.name), true
		}
	}
	return "", false
}

// containsIllegalControl reports whether s contains a control character
// other than tab, newline or carriage return.
func containsIllegalControl(s string) bool {
	for _, r := range s {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			return true
		}
		if r == 0x7f {
			return true
		}
	}
	return false
}

// xmlEscaper rewrites the five XML-significant characters so an external
// serializer can emit every engine-produced string verbatim.
var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// EscapeXMLText entity-escapes a string for later XML serialization.
func EscapeXMLText(s string) string {
	return xmlEscaper.Replace(s)
}

// NewRuleID returns a new random rule id. Ids come from a cryptographically
// secure source so external tooling keying decisions off them cannot guess
// or replay them; they are never derived from time or content.
func NewRuleID() string {
	return uuid.NewString()
}
