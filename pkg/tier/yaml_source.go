package tier

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type yamlSource struct {
	path string
}

// NewYAMLSource returns a Source that reads the tier catalog from a YAML file.
//
// File format:
//
//	tiers:
//	  - slug: free
//	    name: Free
//	    level: 0
//	  - slug: main
//	    name: Main
//	    level: 20
//	    monthly_price_id: price_main_monthly
//	    annual_price_id: price_main_annual
func NewYAMLSource(path string) Source {
	return &yamlSource{path: path}
}

func (s *yamlSource) Load(ctx context.Context) ([]Tier, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadTiers, err)
	}

	var doc struct {
		Tiers []Tier `yaml:"tiers"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Join(ErrFailedToLoadTiers, fmt.Errorf("parse %s: %w", s.path, err))
	}

	return doc.Tiers, nil
}
