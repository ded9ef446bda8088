// Package patterns scans one user's recent entries for recurring symptoms
// and the factors that co-occur with them. Recompute is idempotent: the
// same entry set always yields identical insights (deterministic ids
// included), so the job can rerun freely; only dismissed/bookmarked are
// user-writable and survive recompute by id.
package patterns

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/starbound-health/navigator-backend/internal/taxonomy"
)

const (
	// significance thresholds: shared canonical recurrence rule.
	minOccurrences = taxonomy.RecurrenceMinOccurrences
	maxDaySpan     = taxonomy.RecurrenceWindowDays
	// recencyDays bounds how stale an insight may be and still show.
	recencyDays = 7
	// correlation bands.
	strongCorrelation   = 0.6
	moderateCorrelation = 0.4
	// maxSuggestions caps the suggestion list, consultation included.
	maxSuggestions = 4
)

// Entry is one journaled event as the detector sees it.
type Entry struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	CreatedAt   time.Time
	SymptomKeys []string
	FactorKeys  []string
}

// CoOccurrence is the fraction of a symptom's occurrences that coincide
// with another factor.
type CoOccurrence struct {
	FactorKey         string  `json:"factor_key"`
	CoOccurrenceCount int     `json:"co_occurrence_count"`
	Correlation       float64 `json:"correlation"`
}

// Insight is one time-windowed recurrence observation.
type Insight struct {
	ID              uuid.UUID      `json:"id"`
	UserID          uuid.UUID      `json:"user_id"`
	StartDate       time.Time      `json:"start_date"`
	EndDate         time.Time      `json:"end_date"`
	SymptomKey      string         `json:"symptom_key"`
	OccurrenceCount int            `json:"occurrence_count"`
	DaySpan         int            `json:"day_span"`
	CoOccurrences   []CoOccurrence `json:"co_occurrences"`
	Insight         string         `json:"insight"`
	Connection      string         `json:"connection,omitempty"`
	Suggestions     []string       `json:"suggestions"`
	Dismissed       bool           `json:"dismissed"`
	Bookmarked      bool           `json:"bookmarked"`
	SourceEntryIDs  []uuid.UUID    `json:"source_entry_ids"`
}

// CorrelationBand grades a correlation value.
func CorrelationBand(c float64) string {
	switch {
	case c >= strongCorrelation:
		return "strong"
	case c >= moderateCorrelation:
		return "moderate"
	default:
		return "weak"
	}
}

// ShouldShow applies the visibility rule: significant, recent and not
// dismissed. An insight goes quiet once its last occurrence is more than
// seven days old, even if the thresholds still hold.
func ShouldShow(i Insight, now time.Time) bool {
	significant := i.OccurrenceCount >= minOccurrences && i.DaySpan <= maxDaySpan
	recent := now.Sub(i.EndDate) <= recencyDays*24*time.Hour
	return significant && recent && !i.Dismissed
}

// Detect scans entries for one user. Failures in the input (no entries,
// short history) degrade to zero insights, never partial ones.
func Detect(userID uuid.UUID, entries []Entry, now time.Time) []Insight {
	if len(entries) == 0 {
		return nil
	}

	windowStart := now.AddDate(0, 0, -maxDaySpan)
	bySymptom := map[string][]Entry{}
	for _, e := range entries {
		if e.CreatedAt.Before(windowStart) || e.CreatedAt.After(now) {
			continue
		}
		for _, key := range e.SymptomKeys {
			if key == "" {
				continue
			}
			bySymptom[key] = append(bySymptom[key], e)
		}
	}

	symptoms := make([]string, 0, len(bySymptom))
	for key := range bySymptom {
		symptoms = append(symptoms, key)
	}
	sort.Strings(symptoms)

	var out []Insight
	for _, symptom := range symptoms {
		occ := bySymptom[symptom]
		if len(occ) < minOccurrences {
			continue
		}
		sort.Slice(occ, func(i, j int) bool { return occ[i].CreatedAt.Before(occ[j].CreatedAt) })

		first, last := occ[0].CreatedAt, occ[len(occ)-1].CreatedAt
		daySpan := int(last.Sub(first).Hours()/24) + 1
		if daySpan > maxDaySpan {
			continue
		}

		insight := Insight{
			ID:              insightID(userID, symptom, first),
			UserID:          userID,
			StartDate:       first,
			EndDate:         last,
			SymptomKey:      symptom,
			OccurrenceCount: len(occ),
			DaySpan:         daySpan,
			CoOccurrences:   coOccurrences(symptom, occ),
			SourceEntryIDs:  entryIDs(occ),
		}
		insight.Insight = fmt.Sprintf(
			"%s came up %d times across %d days.",
			readableKey(symptom), len(occ), daySpan,
		)
		if len(insight.CoOccurrences) > 0 && insight.CoOccurrences[0].Correlation >= strongCorrelation {
			top := insight.CoOccurrences[0]
			insight.Connection = fmt.Sprintf(
				"%s was present in %d of those %d entries.",
				readableKey(top.FactorKey), top.CoOccurrenceCount, len(occ),
			)
		}
		insight.Suggestions = suggestions(symptom, insight.CoOccurrences)
		out = append(out, insight)
	}
	return out
}

// insightID derives a stable id from user, symptom and window start so
// recomputes converge on the same record.
func insightID(userID uuid.UUID, symptom string, start time.Time) uuid.UUID {
	name := fmt.Sprintf("%s/%s/%s", userID, symptom, start.UTC().Format("2006-01-02"))
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name))
}

// coOccurrences counts, per non-symptom factor, the share of the symptom's
// occurrence entries that also carry the factor. The symptom never appears
// in its own list and values stay inside [0,1] by construction.
func coOccurrences(symptom string, occ []Entry) []CoOccurrence {
	counts := map[string]int{}
	for _, e := range occ {
		seen := map[string]struct{}{}
		for _, key := range e.FactorKeys {
			if key == "" || key == symptom {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			counts[key]++
		}
	}

	total := len(occ)
	out := make([]CoOccurrence, 0, len(counts))
	for key, count := range counts {
		out = append(out, CoOccurrence{
			FactorKey:         key,
			CoOccurrenceCount: count,
			Correlation:       float64(count) / float64(total),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Correlation != out[j].Correlation {
			return out[i].Correlation > out[j].Correlation
		}
		return out[i].FactorKey < out[j].FactorKey
	})
	return out
}

func entryIDs(occ []Entry) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(occ))
	for _, e := range occ {
		ids = append(ids, e.ID)
	}
	return ids
}

const consultSuggestion = "If this keeps up, it's worth bringing to a doctor or other professional."

var symptomSuggestions = map[string][]string{
	"symptom_headache": {
		"Try noting what you ate and drank on headache days.",
		"A consistent sleep window often takes the edge off recurring headaches.",
	},
	"symptom_fatigue": {
		"Track your energy at the same time each day to find the dip.",
		"Short daylight walks can help reset a flat energy pattern.",
	},
	"symptom_sleep_issue": {
		"Keep wake-up time fixed first; bedtime tends to follow.",
		"Screens off 30 minutes before bed is the cheapest experiment to run.",
	},
	"symptom_pain": {
		"Note what you were doing in the hours before the pain starts.",
	},
	"symptom_digestive": {
		"A simple food log across a week often surfaces the trigger.",
	},
}

var factorSuggestions = map[string]string{
	"stress_load":         "Stress shows up alongside this - a wind-down routine on heavy days may help.",
	"symptom_sleep_issue": "Poor sleep tracks with this pattern - protecting sleep may move both.",
	"sleep_quality":       "Sleep quality tracks with this pattern - protecting sleep may move both.",
	"financial_strain":    "Money pressure co-occurs here - one small cost-related step may reduce the load.",
	"social_isolation":    "These entries cluster when support is thin - a check-in with someone may help.",
	"energy_level":        "Low energy rides along with this - pacing the day differently could help.",
}

// suggestions merges symptom templates with templates for the top two
// strong co-occurrences, dedupes, caps the list and always closes with the
// professional-consultation suggestion.
func suggestions(symptom string, co []CoOccurrence) []string {
	var out []string
	seen := map[string]struct{}{}
	add := func(s string) {
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		if len(out) >= maxSuggestions-1 {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	for _, s := range symptomSuggestions[symptom] {
		add(s)
	}
	strong := 0
	for _, c := range co {
		if c.Correlation < strongCorrelation {
			break
		}
		add(factorSuggestions[c.FactorKey])
		strong++
		if strong == 2 {
			break
		}
	}

	out = append(out, consultSuggestion)
	return out
}

func readableKey(key string) string {
	if label, ok := keyLabels[key]; ok {
		return label
	}
	return key
}

var keyLabels = map[string]string{
	"symptom_headache":    "Headaches",
	"symptom_fatigue":     "Tiredness",
	"symptom_pain":        "Pain",
	"symptom_sleep_issue": "Sleep trouble",
	"symptom_digestive":   "Stomach issues",
	"symptom_breathing":   "Breathing trouble",
	"stress_load":         "High stress",
	"sleep_quality":       "Sleep quality",
	"financial_strain":    "Money pressure",
	"social_isolation":    "Limited support",
	"energy_level":        "Low energy",
}
