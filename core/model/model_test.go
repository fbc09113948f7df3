// Copyright (c) 2026 Warden Team
// Warden - application control policy toolkit
// This source code is licensed under the MIT license found in the LICENSE file.
package model

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizeIdentity(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "lowercases", in: "O=MICROSOFT CORPORATION", want: "o=microsoft corporation"},
		{name: "collapses inner whitespace", in: "Contoso   Ltd", want: "contoso ltd"},
		{name: "trims edges", in: "  Contoso Ltd \t", want: "contoso ltd"},
		{name: "tabs and newlines collapse", in: "Contoso\t\nLtd", want: "contoso ltd"},
		{name: "empty", in: "", want: ""},
		{name: "whitespace only", in: "   ", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeIdentity(tc.in); got != tc.want {
				t.Fatalf("NormalizeIdentity(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "lowercases and flips slashes", in: `C:/Program Files/App/app.exe`, want: `c:\program files\app\app.exe`},
		{name: "already canonical", in: `c:\windows\system32\cmd.exe`, want: `c:\windows\system32\cmd.exe`},
		{name: "mixed separators", in: `C:\Tools/bin\run.EXE`, want: `c:\tools\bin\run.exe`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizePath(tc.in); got != tc.want {
				t.Fatalf("NormalizePath(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestConditionKeys(t *testing.T) {
	cases := []struct {
		name string
		cond Condition
		want string
	}{
		{
			name: "publisher key normalizes all parts",
			cond: PublisherCondition{PublisherName: "O=Contoso  Ltd", ProductName: "Widget Pro", BinaryName: "WIDGET.EXE"},
			want: "publisher:o=contoso ltd|widget pro|widget.exe",
		},
		{
			name: "publisher key without product or binary",
			cond: PublisherCondition{PublisherName: "O=Contoso Ltd"},
			want: "publisher:o=contoso ltd||",
		},
		{
			name: "hash key lowercases",
			cond: HashCondition{Hash: "ABCDEF0123"},
			want: "hash:abcdef0123",
		},
		{
			name: "path key canonicalizes",
			cond: PathCondition{Pattern: `C:/Tools/*`},
			want: `path:c:\tools\*`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cond.Key(); got != tc.want {
				t.Fatalf("Key() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestPublisherConditionKeyCaseInsensitive(t *testing.T) {
	a := PublisherCondition{PublisherName: "O=Contoso Ltd", BinaryName: "app.exe"}
	b := PublisherCondition{PublisherName: "o=CONTOSO   ltd", BinaryName: "APP.EXE"}
	if a.Key() != b.Key() {
		t.Fatalf("equivalent publisher identities produced different keys: %q vs %q", a.Key(), b.Key())
	}
}

func TestPathConditionIsWildcardOnly(t *testing.T) {
	cases := []struct {
		name    string
		pattern string
		want    bool
	}{
		{name: "bare star", pattern: "*", want: true},
		{name: "star dot star", pattern: "*.*", want: true},
		{name: "rooted wildcard", pattern: `\*`, want: true},
		{name: "doubled", pattern: `*\*`, want: true},
		{name: "real prefix", pattern: `c:\tools\*`, want: false},
		{name: "no wildcard at all", pattern: `c:\tools\run.exe`, want: false},
		{name: "question mark only is not a catch-all", pattern: "?", want: false},
		{name: "empty", pattern: "", want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := PathCondition{Pattern: tc.pattern}
			if got := c.IsWildcardOnly(); got != tc.want {
				t.Fatalf("IsWildcardOnly(%q) = %v, want %v", tc.pattern, got, tc.want)
			}
		})
	}
}

func TestRuleIdentityKey(t *testing.T) {
	r := Rule{
		ID:         "id-1",
		Action:     ActionAllow,
		Collection: CollectionExe,
		Condition:  HashCondition{Hash: "AA11"},
	}
	want := "Exe/Allow/hash:aa11"
	if got := r.IdentityKey(); got != want {
		t.Fatalf("IdentityKey() = %q, want %q", got, want)
	}

	// Identity must not depend on the random rule id.
	other := r
	other.ID = "id-2"
	other.Name = "renamed"
	if other.IdentityKey() != r.IdentityKey() {
		t.Fatal("identity key changed with id/name, want condition-only identity")
	}
}

func TestPolicyDocumentAllRulesOrder(t *testing.T) {
	doc := NewPolicyDocument()
	doc.Rules[CollectionDll] = []Rule{{ID: "d1"}}
	doc.Rules[CollectionExe] = []Rule{{ID: "e1"}, {ID: "e2"}}
	doc.Rules[CollectionScript] = []Rule{{ID: "s1"}}

	got := doc.AllRules()
	wantOrder := []string{"e1", "e2", "s1", "d1"}
	if len(got) != len(wantOrder) {
		t.Fatalf("AllRules() returned %d rules, want %d", len(got), len(wantOrder))
	}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Errorf("AllRules()[%d].ID = %q, want %q", i, got[i].ID, id)
		}
	}
	if doc.RuleCount() != 4 {
		t.Fatalf("RuleCount() = %d, want 4", doc.RuleCount())
	}
}

func TestPolicyDocumentValidate(t *testing.T) {
	doc := NewPolicyDocument()
	doc.GeneratedAt = time.Now()
	doc.Rules[CollectionExe] = []Rule{
		{ID: "a", Condition: HashCondition{Hash: "aa"}},
		{ID: "b", Condition: HashCondition{Hash: "bb"}},
	}
	if err := doc.Validate(); err != nil {
		t.Fatalf("Validate() on clean document: %v", err)
	}

	doc.Rules[CollectionDll] = []Rule{{ID: "a", Condition: HashCondition{Hash: "cc"}}}
	err := doc.Validate()
	if err == nil {
		t.Fatal("Validate() accepted duplicate rule id across collections")
	}
	var invErr *InvariantError
	if !errors.As(err, &invErr) {
		t.Fatalf("Validate() error = %T, want *InvariantError", err)
	}
}
