// Package config loads the optional yaml configuration file. Flags always win
// over file values; the file only supplies defaults.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// FileName is looked up in the repository root first, then under the user's
// config directory.
const FileName = ".git-rewrite-commits.yaml"

// File mirrors the yaml configuration. Pointer fields distinguish "absent"
// from a zero value.
type File struct {
	Provider  string `yaml:"provider"`
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	OllamaURL string `yaml:"ollama_url"`
	Language  string `yaml:"language"`
	Template  string `yaml:"template"`

	MinQualityScore   *int  `yaml:"min_quality_score"`
	SkipWellFormed    *bool `yaml:"skip_well_formed"`
	SkipRemoteConsent bool  `yaml:"skip_remote_consent"`
}

// Parse decodes yaml configuration data.
func Parse(data []byte) (*File, error) {
	result := &File{}

	if err := yaml.Unmarshal(data, result); err != nil {
		return nil, err
	}

	return result, nil
}

// Load reads the first configuration file found, searching the repository
// root and then the user config directory. A missing file is not an error and
// yields an empty configuration.
func Load(repoRoot string) (*File, error) {
	var candidates []string
	if repoRoot != "" {
		candidates = append(candidates, filepath.Join(repoRoot, FileName))
	}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "git-rewrite-commits", "config.yaml"))
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}

		return Parse(data)
	}

	return &File{}, nil
}
