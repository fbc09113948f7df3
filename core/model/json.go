// Copyright (c) 2026 Warden Team
// Warden - application control policy toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// conditionJSON is the wire form of the Condition variants. The Type tag
// selects which of the remaining fields are meaningful.
type conditionJSON struct {
	Type          ConditionKind `json:"type"`
	PublisherName string        `json:"publisherName,omitempty"`
	ProductName   string        `json:"productName,omitempty"`
	BinaryName    string        `json:"binaryName,omitempty"`
	Hash          string        `json:"hash,omitempty"`
	FileLength    int64         `json:"fileLength,omitempty"`
	Pattern       string        `json:"pattern,omitempty"`
}

type ruleJSON struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Action          RuleAction     `json:"action"`
	Collection      CollectionType `json:"collection"`
	Condition       *conditionJSON `json:"condition"`
	GroupTarget     string         `json:"groupTarget,omitempty"`
	SourceRecordIDs []string       `json:"sourceRecordIds,omitempty"`
}

// MarshalJSON implements json.Marshaler for Rule, encoding the condition
// variant with an explicit type tag.
func (r Rule) MarshalJSON() ([]byte, error) {
	out := ruleJSON{
		ID:              r.ID,
		Name:            r.Name,
		Action:          r.Action,
		Collection:      r.Collection,
		GroupTarget:     r.GroupTarget,
		SourceRecordIDs: r.SourceRecordIDs,
	}
	switch c := r.Condition.(type) {
	case PublisherCondition:
		out.Condition = &conditionJSON{
			Type:          KindPublisher,
			PublisherName: c.PublisherName,
			ProductName:   c.ProductName,
			BinaryName:    c.BinaryName,
		}
	case HashCondition:
		out.Condition = &conditionJSON{
			Type:       KindHash,
			Hash:       c.Hash,
			FileLength: c.FileLength,
		}
	case PathCondition:
		out.Condition = &conditionJSON{
			Type:    KindPath,
			Pattern: c.Pattern,
		}
	case nil:
		// leave Condition null
	default:
		return nil, fmt.Errorf("unknown condition type %T on rule %s", r.Condition, r.ID)
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler for Rule.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var in ruleJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.ID = in.ID
	r.Name = in.Name
	r.Action = in.Action
	r.Collection = in.Collection
	r.GroupTarget = in.GroupTarget
	r.SourceRecordIDs = in.SourceRecordIDs
	r.Condition = nil
	if in.Condition == nil {
		return nil
	}
	switch in.Condition.Type {
	case KindPublisher:
		r.Condition = PublisherCondition{
			PublisherName: in.Condition.PublisherName,
			ProductName:   in.Condition.ProductName,
			BinaryName:    in.Condition.BinaryName,
		}
	case KindHash:
		r.Condition = HashCondition{
			Hash:       in.Condition.Hash,
			FileLength: in.Condition.FileLength,
		}
	case KindPath:
		r.Condition = PathCondition{Pattern: in.Condition.Pattern}
	default:
		return fmt.Errorf("unknown condition type %q on rule %s", in.Condition.Type, in.ID)
	}
	return nil
}

// policyDocumentJSON keeps the document wire format explicit and stable.
type policyDocumentJSON struct {
	Rules       map[CollectionType][]Rule          `json:"rules"`
	Enforcement map[CollectionType]EnforcementMode `json:"enforcement"`
	GeneratedAt string                             `json:"generatedAt"`
}

// MarshalJSON implements json.Marshaler for PolicyDocument.
func (d PolicyDocument) MarshalJSON() ([]byte, error) {
	return json.Marshal(policyDocumentJSON{
		Rules:       d.Rules,
		Enforcement: d.Enforcement,
		GeneratedAt: d.GeneratedAt.UTC().Format(time.RFC3339),
	})
}

// UnmarshalJSON implements json.Unmarshaler for PolicyDocument.
func (d *PolicyDocument) UnmarshalJSON(data []byte) error {
	var in policyDocumentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	d.Rules = in.Rules
	if d.Rules == nil {
		d.Rules = make(map[CollectionType][]Rule)
	}
	d.Enforcement = in.Enforcement
	if d.Enforcement == nil {
		d.Enforcement = make(map[CollectionType]EnforcementMode)
	}
	if in.GeneratedAt != "" {
		t, err := time.Parse(time.RFC3339, in.GeneratedAt)
		if err != nil {
			return fmt.Errorf("invalid generatedAt timestamp: %w", err)
		}
		d.GeneratedAt = t
	}
	return nil
}
