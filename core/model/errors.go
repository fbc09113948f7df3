// Copyright (c) 2026 Warden Team
// Warden - application control policy toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"fmt"
	"strings"
)

// ParseError reports a malformed top-level artifact. It is fatal to the
// call that received the artifact; individual bad records inside an
// otherwise well-formed artifact become SkippedRecord entries instead.
type ParseError struct {
	Format string // artifact format tag ("csv", "json", "scan")
	Line   int    // 1-based line, 0 when unknown
	Offset int64  // byte offset, 0 when unknown
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "parse %s artifact", e.Format)
	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	} else if e.Offset > 0 {
		fmt.Fprintf(&b, " (offset %d)", e.Offset)
	}
	b.WriteString(": ")
	b.WriteString(e.Msg)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError reports a field-level invariant violation, such as an
// empty publisher name or a control character in a value destined for
// serialization.
type ValidationError struct {
	Field       string
	Detail      string
	RecordIndex int // index of the offending record, -1 when not applicable
}

func (e *ValidationError) Error() string {
	if e.RecordIndex >= 0 {
		return fmt.Sprintf("invalid %s in record %d: %s", e.Field, e.RecordIndex, e.Detail)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Detail)
}

// ConflictError reports an irreconcilable merge conflict: two rules with
// identical conditions but opposite actions on the same collection. The
// merge that raised it produced no partial output.
type ConflictError struct {
	Collection   CollectionType
	ConditionKey string
	RuleIDs      []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicting allow/deny rules on %s collection (condition %s): %s",
		e.Collection, e.ConditionKey, strings.Join(e.RuleIDs, ", "))
}

// InvariantError signals a defensive check failure, such as a duplicate
// rule id inside one policy document. It indicates a programming error in
// the caller or the engine, never expected input.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string {
	return "internal invariant violation: " + e.Msg
}

// SkipReason classifies why a record was skipped during normalization or
// synthesis. Skips are not errors; they always ride along with the
// successful result.
type SkipReason string

const (
	// SkipNoIdentity marks records with neither a usable publisher
	// signature nor a well-formed hash.
	SkipNoIdentity SkipReason = "no-identity"

	// SkipUnknownExtension marks records whose collection type could not
	// be inferred from the file extension.
	SkipUnknownExtension SkipReason = "unknown-extension"

	// SkipMissingPathAndHash marks JSON elements carrying neither a path
	// nor a hash.
	SkipMissingPathAndHash SkipReason = "missing-path-and-hash"

	// SkipRaggedRow marks CSV rows whose field count does not match the
	// header row.
	SkipRaggedRow SkipReason = "ragged-row"

	// SkipValidation marks records rejected for invalid field content,
	// such as control characters.
	SkipValidation SkipReason = "validation"

	// SkipDuplicatePath marks comprehensive-scan entries dropped by the
	// exact-match path dedup.
	SkipDuplicatePath SkipReason = "duplicate-path"
)

// SkippedRecord describes one record that was dropped on the way from a
// raw artifact to a synthesized rule.
type SkippedRecord struct {
	Index  int // position in the source artifact or record list
	Source string
	Reason SkipReason
	Detail string
}

func (s SkippedRecord) String() string {
	return fmt.Sprintf("record %d (%s): %s - %s", s.Index, s.Source, s.Reason, s.Detail)
}
