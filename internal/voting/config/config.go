// Copyright 2026 The Voterium Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads and validates the static choice configuration and
// the environment-provided runtime settings. Nothing here is hot-path; it
// all runs once, during bootstrap.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/voterium/votingd/internal/voting/ballot"
)

// LoadChoices reads and validates the choice configuration file. Keys must
// be at least one byte and distinct by their first byte, since the tally
// engine's lookup table only discriminates choices by that first byte.
func LoadChoices(path string) (ballot.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ballot.Config{}, fmt.Errorf("read choice config %q: %w", path, err)
	}

	var cfg ballot.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return ballot.Config{}, fmt.Errorf("parse choice config %q: %w", path, err)
	}

	if err := validateChoices(cfg.Choices); err != nil {
		return ballot.Config{}, err
	}
	return cfg, nil
}

func validateChoices(choices []ballot.Choice) error {
	if len(choices) == 0 {
		return fmt.Errorf("choice config must declare at least one choice")
	}
	seen := make(map[byte]string, len(choices))
	for _, c := range choices {
		if len(c.Key) == 0 {
			return fmt.Errorf("choice key must be at least one byte: %+v", c)
		}
		first := c.Key[0]
		if existing, ok := seen[first]; ok {
			return fmt.Errorf("choice keys %q and %q collide on first byte %q", existing, c.Key, first)
		}
		seen[first] = c.Key
	}
	return nil
}

// Env is the set of environment variables the process reads at startup,
// resolved with their documented defaults.
type Env struct {
	BackendSaltB64   string
	JWTPublicKeyPath string
	CLFilepath       string
	VLFilepath       string
	ConfigFilepath   string
}

// LoadEnv reads the environment variables in Env. The backend salt is
// required; everything else has a documented default.
func LoadEnv() (Env, error) {
	salt, ok := os.LookupEnv("BACKEND_SALT")
	if !ok || salt == "" {
		return Env{}, fmt.Errorf("BACKEND_SALT is required")
	}
	return Env{
		BackendSaltB64:   salt,
		JWTPublicKeyPath: os.Getenv("JWT_PUBLIC_KEY_PATH"),
		CLFilepath:       envOrDefault("CL_FILEPATH", "cl.csv"),
		VLFilepath:       envOrDefault("VL_FILEPATH", "vl.csv"),
		ConfigFilepath:   envOrDefault("CONFIG_FILEPATH", "voting_config.json"),
	}, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
