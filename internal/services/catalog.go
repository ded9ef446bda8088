package services

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starbound-health/navigator-backend/internal/pkg/logger"
	"github.com/starbound-health/navigator-backend/internal/taxonomy"
)

// Resource is one support option shown on the escalation surface.
type Resource struct {
	Key         string   `yaml:"key" json:"key"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Contact     string   `yaml:"contact" json:"contact"`
	Tiers       []int    `yaml:"tiers" json:"tiers"`
	Domains     []string `yaml:"domains" json:"domains"`
}

type catalogFile struct {
	Resources []Resource `yaml:"resources"`
}

// CatalogService serves the curated support-resource catalog. The catalog
// is static per deployment and loaded once at boot.
type CatalogService interface {
	ForTier(tier taxonomy.EscalationTier) []Resource
	ForDomain(domain taxonomy.Domain) []Resource
	All() []Resource
}

type catalogService struct {
	log       *logger.Logger
	resources []Resource
}

func NewCatalogService(log *logger.Logger, path string) (CatalogService, error) {
	serviceLog := log.With("service", "CatalogService")

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read resource catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse resource catalog: %w", err)
	}
	for i, r := range file.Resources {
		if strings.TrimSpace(r.Key) == "" || strings.TrimSpace(r.Name) == "" {
			return nil, fmt.Errorf("resource catalog entry %d missing key or name", i)
		}
	}
	sort.Slice(file.Resources, func(i, j int) bool {
		return file.Resources[i].Key < file.Resources[j].Key
	})

	serviceLog.Info("resource catalog loaded", "path", path, "resources", len(file.Resources))
	return &catalogService{log: serviceLog, resources: file.Resources}, nil
}

func (cs *catalogService) ForTier(tier taxonomy.EscalationTier) []Resource {
	var out []Resource
	for _, r := range cs.resources {
		for _, t := range r.Tiers {
			if taxonomy.EscalationTier(t) == tier {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func (cs *catalogService) ForDomain(domain taxonomy.Domain) []Resource {
	var out []Resource
	for _, r := range cs.resources {
		for _, d := range r.Domains {
			if taxonomy.Domain(d) == domain {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func (cs *catalogService) All() []Resource {
	out := make([]Resource, len(cs.resources))
	copy(out, cs.resources)
	return out
}
