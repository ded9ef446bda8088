package patterns

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func entryAt(userID uuid.UUID, daysAgo int, now time.Time, symptoms, factors []string) Entry {
	return Entry{
		ID:          uuid.New(),
		UserID:      userID,
		CreatedAt:   now.AddDate(0, 0, -daysAgo),
		SymptomKeys: symptoms,
		FactorKeys:  factors,
	}
}

func TestDetectSignificantPattern(t *testing.T) {
	now := time.Now().UTC()
	userID := uuid.New()
	entries := []Entry{
		entryAt(userID, 1, now, []string{"symptom_headache"}, []string{"stress_load"}),
		entryAt(userID, 4, now, []string{"symptom_headache"}, []string{"stress_load"}),
		entryAt(userID, 8, now, []string{"symptom_headache"}, []string{"sleep_quality"}),
	}

	insights := Detect(userID, entries, now)
	if len(insights) != 1 {
		t.Fatalf("insights=%d, want 1", len(insights))
	}
	got := insights[0]
	if got.SymptomKey != "symptom_headache" || got.OccurrenceCount != 3 {
		t.Fatalf("unexpected insight: %+v", got)
	}
	if got.DaySpan > 14 {
		t.Fatalf("daySpan=%d", got.DaySpan)
	}
	if !ShouldShow(got, now) {
		t.Fatalf("fresh significant insight must show")
	}
	if len(got.SourceEntryIDs) != 3 {
		t.Fatalf("sourceEntryIDs=%d, want 3", len(got.SourceEntryIDs))
	}
}

func TestDetectBelowThresholdsProducesNothing(t *testing.T) {
	now := time.Now().UTC()
	userID := uuid.New()

	if got := Detect(userID, nil, now); got != nil {
		t.Fatalf("no entries must degrade to no insights, got %+v", got)
	}

	two := []Entry{
		entryAt(userID, 1, now, []string{"symptom_pain"}, nil),
		entryAt(userID, 3, now, []string{"symptom_pain"}, nil),
	}
	if got := Detect(userID, two, now); len(got) != 0 {
		t.Fatalf("two occurrences are not significant, got %+v", got)
	}
}

func TestCorrelationBoundsAndSelfExclusion(t *testing.T) {
	now := time.Now().UTC()
	userID := uuid.New()
	entries := []Entry{
		entryAt(userID, 1, now, []string{"symptom_headache"}, []string{"stress_load", "symptom_headache"}),
		entryAt(userID, 2, now, []string{"symptom_headache"}, []string{"stress_load", "stress_load"}),
		entryAt(userID, 3, now, []string{"symptom_headache"}, []string{"financial_strain"}),
	}

	insights := Detect(userID, entries, now)
	if len(insights) != 1 {
		t.Fatalf("insights=%d", len(insights))
	}
	for _, co := range insights[0].CoOccurrences {
		if co.FactorKey == "symptom_headache" {
			t.Fatalf("symptom must never co-occur with itself")
		}
		if co.Correlation < 0 || co.Correlation > 1 {
			t.Fatalf("correlation out of range: %+v", co)
		}
	}
	// stress_load appeared in 2 of 3 entries, counted once per entry.
	for _, co := range insights[0].CoOccurrences {
		if co.FactorKey == "stress_load" {
			if co.CoOccurrenceCount != 2 || co.Correlation != 2.0/3.0 {
				t.Fatalf("stress_load co-occurrence wrong: %+v", co)
			}
		}
	}
}

func TestCorrelationBands(t *testing.T) {
	cases := []struct {
		value float64
		want  string
	}{
		{0.9, "strong"},
		{0.6, "strong"},
		{0.59, "moderate"},
		{0.4, "moderate"},
		{0.39, "weak"},
		{0.0, "weak"},
	}
	for _, tc := range cases {
		if got := CorrelationBand(tc.value); got != tc.want {
			t.Fatalf("CorrelationBand(%v)=%s, want %s", tc.value, got, tc.want)
		}
	}
}

func TestShouldShowExpiresAfterSevenDays(t *testing.T) {
	now := time.Now().UTC()
	i := Insight{
		OccurrenceCount: 4,
		DaySpan:         10,
		EndDate:         now.AddDate(0, 0, -8),
	}
	if ShouldShow(i, now) {
		t.Fatalf("insight older than 7 days must not show even when thresholds qualify")
	}

	i.EndDate = now.AddDate(0, 0, -6)
	if !ShouldShow(i, now) {
		t.Fatalf("insight within 7 days must show")
	}

	i.Dismissed = true
	if ShouldShow(i, now) {
		t.Fatalf("dismissed insight must not show")
	}
}

func TestSuggestionsCappedAndEndWithConsultation(t *testing.T) {
	now := time.Now().UTC()
	userID := uuid.New()
	entries := []Entry{
		entryAt(userID, 1, now, []string{"symptom_headache"}, []string{"stress_load", "sleep_quality"}),
		entryAt(userID, 3, now, []string{"symptom_headache"}, []string{"stress_load", "sleep_quality"}),
		entryAt(userID, 5, now, []string{"symptom_headache"}, []string{"stress_load", "sleep_quality"}),
	}

	insights := Detect(userID, entries, now)
	if len(insights) != 1 {
		t.Fatalf("insights=%d", len(insights))
	}
	sugg := insights[0].Suggestions
	if len(sugg) == 0 || len(sugg) > 4 {
		t.Fatalf("suggestions=%d, want 1..4", len(sugg))
	}
	if sugg[len(sugg)-1] != consultSuggestion {
		t.Fatalf("suggestions must end with the consultation suggestion: %v", sugg)
	}
	seen := map[string]bool{}
	for _, s := range sugg {
		if seen[s] {
			t.Fatalf("duplicate suggestion %q", s)
		}
		seen[s] = true
	}
}

func TestRecomputeIsIdempotent(t *testing.T) {
	now := time.Now().UTC()
	userID := uuid.New()
	entries := []Entry{
		entryAt(userID, 2, now, []string{"symptom_fatigue"}, []string{"stress_load"}),
		entryAt(userID, 5, now, []string{"symptom_fatigue"}, []string{"stress_load"}),
		entryAt(userID, 9, now, []string{"symptom_fatigue"}, nil),
	}

	first := Detect(userID, entries, now)
	second := Detect(userID, entries, now)

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("insight counts: %d, %d", len(first), len(second))
	}
	if first[0].ID != second[0].ID {
		t.Fatalf("recompute must produce the same deterministic id")
	}
	if first[0].Insight != second[0].Insight || first[0].OccurrenceCount != second[0].OccurrenceCount {
		t.Fatalf("recompute diverged: %+v vs %+v", first[0], second[0])
	}
}

func TestEntriesOutsideWindowIgnored(t *testing.T) {
	now := time.Now().UTC()
	userID := uuid.New()
	entries := []Entry{
		entryAt(userID, 20, now, []string{"symptom_pain"}, nil),
		entryAt(userID, 18, now, []string{"symptom_pain"}, nil),
		entryAt(userID, 16, now, []string{"symptom_pain"}, nil),
	}
	if got := Detect(userID, entries, now); len(got) != 0 {
		t.Fatalf("entries outside the 14-day window must not form a pattern: %+v", got)
	}
}
