// Copyright (c) 2026 Warden Team
// Warden - application control policy toolkit
// This source code is licensed under the MIT license found in the LICENSE file.
package core

import (
	"strings"
	"testing"

	"github.com/wardenhq/warden/core/model"
)

const testHash = "a3f5b8c9d2e1f4a7b6c5d8e9f2a1b4c7d6e5f8a9b2c1d4e7f6a5b8c9d2e1f4a7"

func TestSynthesizeRulesConditionPriority(t *testing.T) {
	cases := []struct {
		name     string
		record   model.InventoryRecord
		wantKind model.ConditionKind
		wantSkip model.SkipReason
	}{
		{
			name: "publisher wins over hash",
			record: model.InventoryRecord{
				ID:         "a#0",
				Publisher:  &model.PublisherIdentity{Subject: "O=Contoso Ltd"},
				FilePath:   `c:\bin\widget.exe`,
				FileHash:   testHash,
				Collection: model.CollectionExe,
			},
			wantKind: model.KindPublisher,
		},
		{
			name: "hash when publisher missing",
			record: model.InventoryRecord{
				ID:         "a#1",
				FilePath:   `c:\bin\tool.exe`,
				FileHash:   testHash,
				FileSize:   512,
				Collection: model.CollectionExe,
			},
			wantKind: model.KindHash,
		},
		{
			name: "hash when publisher is whitespace",
			record: model.InventoryRecord{
				ID:         "a#2",
				Publisher:  &model.PublisherIdentity{Subject: "   "},
				FileHash:   testHash,
				Collection: model.CollectionDll,
			},
			wantKind: model.KindHash,
		},
		{
			name: "skip when hash is malformed",
			record: model.InventoryRecord{
				ID:         "a#3",
				FilePath:   `c:\bin\odd.exe`,
				FileHash:   "not-a-hash",
				Collection: model.CollectionExe,
			},
			wantSkip: model.SkipNoIdentity,
		},
		{
			name: "skip when hash has wrong length",
			record: model.InventoryRecord{
				ID:         "a#4",
				FileHash:   testHash[:40],
				Collection: model.CollectionExe,
			},
			wantSkip: model.SkipNoIdentity,
		},
		{
			name: "skip on control characters",
			record: model.InventoryRecord{
				ID:          "a#5",
				DisplayName: "bad\x00name",
				FileHash:    testHash,
				Collection:  model.CollectionExe,
			},
			wantSkip: model.SkipValidation,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := SynthesizeRules([]model.InventoryRecord{tc.record}, SynthesisOptions{})
			if tc.wantSkip != "" {
				if len(result.Rules) != 0 || len(result.Skipped) != 1 {
					t.Fatalf("got %d rules, %d skipped, want a single skip", len(result.Rules), len(result.Skipped))
				}
				if result.Skipped[0].Reason != tc.wantSkip {
					t.Fatalf("skip reason = %q, want %q", result.Skipped[0].Reason, tc.wantSkip)
				}
				return
			}
			if len(result.Rules) != 1 {
				t.Fatalf("got %d rules (skipped: %+v), want 1", len(result.Rules), result.Skipped)
			}
			rule := result.Rules[0]
			if rule.Condition.Kind() != tc.wantKind {
				t.Fatalf("condition kind = %q, want %q", rule.Condition.Kind(), tc.wantKind)
			}
			if rule.ID == "" {
				t.Error("rule id is empty")
			}
			if rule.Action != model.ActionAllow {
				t.Errorf("default action = %q, want Allow", rule.Action)
			}
			if rule.GroupTarget != DefaultGroupTarget {
				t.Errorf("default group target = %q, want %q", rule.GroupTarget, DefaultGroupTarget)
			}
			if len(rule.SourceRecordIDs) != 1 || rule.SourceRecordIDs[0] != tc.record.ID {
				t.Errorf("SourceRecordIDs = %v, want [%s]", rule.SourceRecordIDs, tc.record.ID)
			}
		})
	}
}

func TestSynthesizeRulesNeverEmitsPathConditions(t *testing.T) {
	records := []model.InventoryRecord{
		{ID: "a#0", FilePath: `c:\bin\only-a-path.exe`, Collection: model.CollectionExe},
	}
	result := SynthesizeRules(records, SynthesisOptions{})
	if len(result.Rules) != 0 {
		t.Fatalf("path-only record produced a rule: %+v", result.Rules[0])
	}
	if len(result.Skipped) != 1 || result.Skipped[0].Reason != model.SkipNoIdentity {
		t.Fatalf("skipped = %+v, want one no-identity skip", result.Skipped)
	}
}

func TestSynthesizeRulesHashDetails(t *testing.T) {
	upper := strings.ToUpper(testHash)
	records := []model.InventoryRecord{
		{ID: "a#0", FileHash: upper, FileSize: 2048, Collection: model.CollectionExe},
	}
	result := SynthesizeRules(records, SynthesisOptions{Action: model.ActionDeny})
	if len(result.Rules) != 1 {
		t.Fatalf("got %d rules, want 1", len(result.Rules))
	}
	cond, ok := result.Rules[0].Condition.(model.HashCondition)
	if !ok {
		t.Fatalf("condition = %T, want HashCondition", result.Rules[0].Condition)
	}
	if cond.Hash != testHash {
		t.Errorf("hash = %q, want lowercased %q", cond.Hash, testHash)
	}
	if cond.FileLength != 2048 {
		t.Errorf("FileLength = %d, want 2048", cond.FileLength)
	}
	if result.Rules[0].Action != model.ActionDeny {
		t.Errorf("action = %q, want Deny", result.Rules[0].Action)
	}
}

func TestSynthesizeRulesVersionNotInCondition(t *testing.T) {
	records := []model.InventoryRecord{
		{
			ID:          "a#0",
			DisplayName: "Widget",
			Publisher:   &model.PublisherIdentity{Subject: "O=Contoso Ltd", ProductName: "Widget Pro"},
			FilePath:    `c:\bin\widget.exe`,
			Collection:  model.CollectionExe,
		},
	}
	result := SynthesizeRules(records, SynthesisOptions{})
	if len(result.Rules) != 1 {
		t.Fatalf("got %d rules, want 1", len(result.Rules))
	}
	cond := result.Rules[0].Condition.(model.PublisherCondition)
	if cond.PublisherName != "O=Contoso Ltd" || cond.ProductName != "Widget Pro" || cond.BinaryName != "widget.exe" {
		t.Fatalf("condition = %+v, want subject, product and file-derived binary name", cond)
	}
}

func TestSynthesizeRulesXMLEscaping(t *testing.T) {
	records := []model.InventoryRecord{
		{
			ID:          "a#0",
			DisplayName: `Widget <"Pro"> & Co`,
			Publisher:   &model.PublisherIdentity{Subject: "O=Smith & Sons", BinaryName: "a<b.exe"},
			Collection:  model.CollectionExe,
		},
	}
	result := SynthesizeRules(records, SynthesisOptions{})
	if len(result.Rules) != 1 {
		t.Fatalf("got %d rules, want 1", len(result.Rules))
	}
	rule := result.Rules[0]
	if want := "Widget &lt;&quot;Pro&quot;&gt; &amp; Co"; rule.Name != want {
		t.Errorf("Name = %q, want %q", rule.Name, want)
	}
	cond := rule.Condition.(model.PublisherCondition)
	if cond.PublisherName != "O=Smith &amp; Sons" {
		t.Errorf("PublisherName = %q, want escaped ampersand", cond.PublisherName)
	}
	if cond.BinaryName != "a&lt;b.exe" {
		t.Errorf("BinaryName = %q, want escaped angle bracket", cond.BinaryName)
	}
}

func TestSynthesizeRulesRegistryCategory(t *testing.T) {
	registry := NewPublisherRegistry([]PublisherRegistryEntry{
		{Name: "Contoso", IdentityString: "O=Contoso Ltd", Category: "Engineering"},
	})
	records := []model.InventoryRecord{
		{ID: "a#0", Publisher: &model.PublisherIdentity{Subject: "o=contoso  ltd"}, Collection: model.CollectionExe},
		{ID: "a#1", Publisher: &model.PublisherIdentity{Subject: "O=Unknown Corp"}, Collection: model.CollectionExe},
	}
	result := SynthesizeRules(records, SynthesisOptions{Registry: registry})
	if len(result.Rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(result.Rules))
	}
	if result.Rules[0].GroupTarget != "Engineering" {
		t.Errorf("registered publisher target = %q, want Engineering", result.Rules[0].GroupTarget)
	}
	if result.Rules[1].GroupTarget != DefaultGroupTarget {
		t.Errorf("unregistered publisher target = %q, want %q", result.Rules[1].GroupTarget, DefaultGroupTarget)
	}
}

func TestSynthesizeRulesRegistryMatchesUnescapedIdentity(t *testing.T) {
	registry := NewPublisherRegistry([]PublisherRegistryEntry{
		{Name: "J&J", IdentityString: "O=Johnson & Johnson", Category: "Medical"},
	})
	records := []model.InventoryRecord{
		{ID: "a#0", Publisher: &model.PublisherIdentity{Subject: "O=Johnson & Johnson"}, Collection: model.CollectionExe},
	}
	result := SynthesizeRules(records, SynthesisOptions{Registry: registry})
	if len(result.Rules) != 1 {
		t.Fatalf("got %d rules, want 1", len(result.Rules))
	}
	rule := result.Rules[0]
	if rule.GroupTarget != "Medical" {
		t.Errorf("GroupTarget = %q, want Medical", rule.GroupTarget)
	}
	cond, ok := rule.Condition.(model.PublisherCondition)
	if !ok {
		t.Fatalf("condition is %T, want PublisherCondition", rule.Condition)
	}
	if cond.PublisherName != "O=Johnson &amp; Johnson" {
		t.Errorf("PublisherName = %q, want escaped ampersand", cond.PublisherName)
	}
}

func TestIsValidSHA256(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want bool
	}{
		{name: "valid lowercase", in: testHash, want: true},
		{name: "valid uppercase", in: strings.ToUpper(testHash), want: true},
		{name: "too short", in: testHash[:63], want: false},
		{name: "too long", in: testHash + "a", want: false},
		{name: "non-hex characters", in: strings.Replace(testHash, "a", "g", 1), want: false},
		{name: "empty", in: "", want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isValidSHA256(tc.in); got != tc.want {
				t.Fatalf("isValidSHA256(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestEscapeXMLText(t *testing.T) {
	got := EscapeXMLText(`a & b < c > "d" 'e'`)
	want := "a &amp; b &lt; c &gt; &quot;d&quot; &apos;e&apos;"
	if got != want {
		t.Fatalf("EscapeXMLText = %q, want %q", got, want)
	}
}
