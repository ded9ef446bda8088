package taxonomy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	apperrors "github.com/starbound-health/navigator-backend/internal/pkg/errors"
)

// Registry is the approved factor-code vocabulary. Candidates carrying
// codes outside the registry are quarantined at ingestion, never coerced
// into a nearby code.
type Registry struct {
	codes map[FactorCode]CodeInfo
}

type registryFile struct {
	FactorCodes []struct {
		Code   string   `yaml:"code"`
		Domain string   `yaml:"domain"`
		Types  []string `yaml:"types"`
	} `yaml:"factor_codes"`
}

// DefaultRegistry exposes the built-in canonical code table.
func DefaultRegistry() *Registry {
	codes := make(map[FactorCode]CodeInfo, len(codeTable))
	for c, info := range codeTable {
		codes[c] = info
	}
	return &Registry{codes: codes}
}

// RegistryFromFile loads a vocabulary from a YAML file. Every entry must
// reference a valid domain and valid factor types; a malformed registry is
// a startup error, not something to limp past.
func RegistryFromFile(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary registry: %w", err)
	}
	var file registryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse vocabulary registry: %w", err)
	}
	if len(file.FactorCodes) == 0 {
		return nil, fmt.Errorf("vocabulary registry %s lists no factor codes", path)
	}

	codes := make(map[FactorCode]CodeInfo, len(file.FactorCodes))
	for _, entry := range file.FactorCodes {
		domain := Domain(entry.Domain)
		if !domain.Valid() {
			return nil, fmt.Errorf("vocabulary code %q: unknown domain %q", entry.Code, entry.Domain)
		}
		types := make([]FactorType, 0, len(entry.Types))
		for _, t := range entry.Types {
			ft := FactorType(t)
			if !ft.Valid() {
				return nil, fmt.Errorf("vocabulary code %q: unknown factor type %q", entry.Code, t)
			}
			types = append(types, ft)
		}
		if len(types) == 0 {
			return nil, fmt.Errorf("vocabulary code %q: no factor types", entry.Code)
		}
		codes[FactorCode(entry.Code)] = CodeInfo{Domain: domain, Types: types}
	}
	return &Registry{codes: codes}, nil
}

func (r *Registry) Contains(code FactorCode) bool {
	_, ok := r.codes[code]
	return ok
}

func (r *Registry) Info(code FactorCode) (CodeInfo, bool) {
	info, ok := r.codes[code]
	return info, ok
}

// ValidateCode rejects out-of-vocabulary codes and type mismatches.
func (r *Registry) ValidateCode(code FactorCode, factorType FactorType) error {
	info, ok := r.codes[code]
	if !ok {
		return fmt.Errorf("%w: factor code %q not in registry", apperrors.ErrVocabulary, code)
	}
	for _, t := range info.Types {
		if t == factorType {
			return nil
		}
	}
	return fmt.Errorf("%w: factor code %q does not allow type %q", apperrors.ErrVocabulary, code, factorType)
}

func (r *Registry) Size() int { return len(r.codes) }
