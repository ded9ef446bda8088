// Package profile holds the complexity profile read-model: a derived,
// rebuildable aggregate over the append-only factor log. Nothing here ever
// mutates or deletes a logged factor; folding only repoints the
// latest-by-code index and advances counters.
package profile

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/starbound-health/navigator-backend/internal/taxonomy"
)

// DefaultTopK is the default size of the ranked top-constraints list.
const DefaultTopK = 5

// FactorRecord is one committed factor as it appears in the log.
type FactorRecord struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Domain        taxonomy.Domain
	Type          taxonomy.FactorType
	Code          taxonomy.FactorCode
	Value         string
	Confidence    float64
	TimeHorizon   taxonomy.TimeHorizon
	Modifiability taxonomy.Modifiability
	SourceEventID uuid.UUID
	CreatedAt     time.Time
}

// Score is the constraint-ranking score: confidence weighted by domain
// priority and modifiability. Low-modifiability factors weigh up, since
// persistent constraints are the ones worth surfacing.
func (f FactorRecord) Score() float64 {
	return f.Confidence * f.Domain.PriorityWeight() * f.Modifiability.Weight()
}

// Coverage counts acute/chronic factors folded per domain.
type Coverage struct {
	Acute   int `json:"acute"`
	Chronic int `json:"chronic"`
}

// Profile is the aggregate. Latest holds the most recent factor per code;
// superseded factors stay in the log for audit and replay.
type Profile struct {
	UserID    uuid.UUID
	UpdatedAt time.Time
	Version   int64
	Latest    map[taxonomy.FactorCode]FactorRecord
	Coverage  map[taxonomy.Domain]Coverage

	folded map[uuid.UUID]struct{}
}

func New(userID uuid.UUID) *Profile {
	return &Profile{
		UserID:   userID,
		Latest:   map[taxonomy.FactorCode]FactorRecord{},
		Coverage: map[taxonomy.Domain]Coverage{},
		folded:   map[uuid.UUID]struct{}{},
	}
}

// Fold appends new factors into the aggregate. Folding the same factor id
// twice is a no-op: coverage counters never double-count and the index is
// untouched. Returns the number of factors actually applied.
func (p *Profile) Fold(factors []FactorRecord) int {
	applied := 0
	for _, f := range factors {
		if _, ok := p.folded[f.ID]; ok {
			continue
		}
		p.folded[f.ID] = struct{}{}
		applied++

		if current, ok := p.Latest[f.Code]; !ok || !f.CreatedAt.Before(current.CreatedAt) {
			p.Latest[f.Code] = f
		}

		cov := p.Coverage[f.Domain]
		switch {
		case f.TimeHorizon.Acute():
			cov.Acute++
		case f.TimeHorizon.Chronic():
			cov.Chronic++
		}
		p.Coverage[f.Domain] = cov

		if f.CreatedAt.After(p.UpdatedAt) {
			p.UpdatedAt = f.CreatedAt
		}
	}
	if applied > 0 {
		p.Version++
	}
	return applied
}

// Folded reports whether the factor id has already been applied.
func (p *Profile) Folded(id uuid.UUID) bool {
	_, ok := p.folded[id]
	return ok
}

// TopConstraints returns the top-k currently-active factors ranked by
// Score, ties broken by most recent CreatedAt.
func (p *Profile) TopConstraints(k int) []FactorRecord {
	if k <= 0 {
		k = DefaultTopK
	}
	active := make([]FactorRecord, 0, len(p.Latest))
	for _, f := range p.Latest {
		active = append(active, f)
	}
	sort.Slice(active, func(i, j int) bool {
		si, sj := active[i].Score(), active[j].Score()
		if si != sj {
			return si > sj
		}
		if !active[i].CreatedAt.Equal(active[j].CreatedAt) {
			return active[i].CreatedAt.After(active[j].CreatedAt)
		}
		return active[i].Code < active[j].Code
	})
	if len(active) > k {
		active = active[:k]
	}
	return active
}

// Rebuild replays a factor log into a fresh profile. Replaying the same
// log always produces an identical aggregate.
func Rebuild(userID uuid.UUID, log []FactorRecord) *Profile {
	ordered := make([]FactorRecord, len(log))
	copy(ordered, log)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID.String() < ordered[j].ID.String()
	})
	p := New(userID)
	p.Fold(ordered)
	return p
}
