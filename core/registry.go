// Copyright (c) 2026 Warden Team
// Warden - application control policy toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import "github.com/wardenhq/warden/core/model"

// PublisherRegistryEntry is one record of a trusted-publisher registry
// supplied by the surrounding application.
type PublisherRegistryEntry struct {
	Name           string `yaml:"name" json:"name"`
	IdentityString string `yaml:"identity" json:"identity"`
	Category       string `yaml:"category" json:"category"`
}

// PublisherRegistry indexes trusted-publisher entries by normalized
// identity for constant-time lookup during synthesis.
type PublisherRegistry struct {
	entries map[string]PublisherRegistryEntry
}

// NewPublisherRegistry builds a registry from a list of entries. Later
// entries with the same normalized identity win.
func NewPublisherRegistry(entries []PublisherRegistryEntry) *PublisherRegistry {
	r := &PublisherRegistry{entries: make(map[string]PublisherRegistryEntry, len(entries))}
	for _, e := range entries {
		key := model.NormalizeIdentity(e.IdentityString)
		if key == "" {
			continue
		}
		r.entries[key] = e
	}
	return r
}

// Lookup finds the registry entry for a publisher identity string.
func (r *PublisherRegistry) Lookup(identity string) (PublisherRegistryEntry, bool) {
	if r == nil {
		return PublisherRegistryEntry{}, false
	}
	e, ok := r.entries[model.NormalizeIdentity(identity)]
	return e, ok
}

// Len returns the number of registered publishers.
func (r *PublisherRegistry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}
