// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/review-engine/pkg/types"
)

// specFile is the on-disk shape of the specification file: the PICOS block
// lives under a top-level "picos" key.
type specFile struct {
	PICOS types.PICOS `yaml:"picos"`
}

// LoadSpec reads a PICOS specification from a YAML file.
func LoadSpec(path string) (types.PICOS, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.PICOS{}, fmt.Errorf("reading spec file: %w", err)
	}
	var f specFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return types.PICOS{}, fmt.Errorf("parsing spec file %s: %w", path, err)
	}
	return f.PICOS, nil
}

// SaveSpec writes a PICOS specification to a YAML file.
func SaveSpec(path string, spec types.PICOS) error {
	data, err := yaml.Marshal(specFile{PICOS: spec})
	if err != nil {
		return fmt.Errorf("marshaling spec: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
