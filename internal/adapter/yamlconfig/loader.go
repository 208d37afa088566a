package yamlconfig

import (
	"fmt"
	"os"

	"moonbench/internal/domain"

	"gopkg.in/yaml.v3"
)

// LoadProfile reads a run profile from a YAML file. The returned config
// still needs Effective() and Validate(); the caller merges CLI flags on
// top first.
func LoadProfile(path string) (*domain.RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg domain.RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}

	return &cfg, nil
}
