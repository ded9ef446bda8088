package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starbound-health/navigator-backend/internal/pkg/logger"
	"github.com/starbound-health/navigator-backend/internal/taxonomy"
)

const catalogFixture = `
resources:
  - key: crisis_line
    name: Crisis Line
    description: 24/7 phone support for people in crisis.
    contact: "988"
    tiers: [2, 3]
    domains: [safety_risk, mental_emotional_state]
  - key: community_clinic
    name: Community Clinic
    description: Low-cost primary care.
    contact: local directory
    tiers: [1, 2]
    domains: [access_to_care, symptoms_body_signals]
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resource_catalog.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestCatalogLoadsAndFilters(t *testing.T) {
	logg, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	cs, err := NewCatalogService(logg, writeCatalog(t, catalogFixture))
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	if got := len(cs.All()); got != 2 {
		t.Fatalf("resources=%d, want 2", got)
	}

	crisis := cs.ForTier(taxonomy.TierCrisis)
	if len(crisis) != 1 || crisis[0].Key != "crisis_line" {
		t.Fatalf("tier-3 resources wrong: %+v", crisis)
	}

	access := cs.ForDomain(taxonomy.DomainAccessToCare)
	if len(access) != 1 || access[0].Key != "community_clinic" {
		t.Fatalf("access_to_care resources wrong: %+v", access)
	}
}

func TestCatalogRejectsMissingKey(t *testing.T) {
	logg, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	bad := `
resources:
  - name: Unnamed
    description: missing key
`
	if _, err := NewCatalogService(logg, writeCatalog(t, bad)); err == nil {
		t.Fatalf("catalog with a missing key must fail to load")
	}
}
