// Copyright (c) 2026 Warden Team
// Warden - application control policy toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package config

// DatabaseConfig selects the baseline store backend.
type DatabaseConfig struct {
	Type string `mapstructure:"type" yaml:"type"`
	Dsn  string `mapstructure:"dsn" yaml:"dsn"`
}

// HealthConfig tunes the policy health scorer.
type HealthConfig struct {
	HashRuleThreshold   float64 `mapstructure:"hash_rule_threshold" yaml:"hash_rule_threshold"`
	DuplicatePenaltyCap int     `mapstructure:"duplicate_penalty_cap" yaml:"duplicate_penalty_cap"`
}

// Config is the application configuration persisted as warden.yaml.
type Config struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Language string         `mapstructure:"language" yaml:"language"`
	Health   HealthConfig   `mapstructure:"health" yaml:"health"`
}
