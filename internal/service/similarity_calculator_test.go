package service

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"convo-cafe/internal/domain"
)

func energyPtr(v float64) *float64 {
	return &v
}

func entryAt(text, weather string, energy float64, daysAgo int) domain.ResonanceEntry {
	return domain.ResonanceEntry{
		Text:      text,
		Weather:   weather,
		Energy:    energyPtr(energy),
		Timestamp: time.Now().UTC().AddDate(0, 0, -daysAgo),
	}
}

func TestPreprocessUserDataEmpty(t *testing.T) {
	calc := NewSimilarityCalculator()

	analysis := calc.PreprocessUserData("user-1", "", nil)

	if analysis.AverageEnergy != 50 {
		t.Fatalf("expected default average energy 50, got %v", analysis.AverageEnergy)
	}
	if analysis.TotalResonanceCount != 0 {
		t.Fatalf("expected total resonance count 0, got %d", analysis.TotalResonanceCount)
	}
	if len(analysis.RecentResonanceTexts) != 0 {
		t.Fatalf("expected no recent texts, got %v", analysis.RecentResonanceTexts)
	}
	if len(analysis.WeatherFrequency) != 0 {
		t.Fatalf("expected empty weather frequency, got %v", analysis.WeatherFrequency)
	}
}

func TestPreprocessUserDataSortsAndLimits(t *testing.T) {
	calc := NewSimilarityCalculator()

	entries := make([]domain.ResonanceEntry, 0, 12)
	for i := 0; i < 12; i++ {
		entries = append(entries, entryAt("entry", "sunny", 60, i))
	}
	entries[3].Text = "newest"
	entries[3].Timestamp = time.Now().UTC().Add(time.Hour)

	analysis := calc.PreprocessUserData("user-1", "bio", entries)

	if analysis.TotalResonanceCount != 12 {
		t.Fatalf("expected 12 entries, got %d", analysis.TotalResonanceCount)
	}
	if len(analysis.RecentResonanceTexts) != 10 {
		t.Fatalf("expected 10 recent texts, got %d", len(analysis.RecentResonanceTexts))
	}
	if analysis.RecentResonanceTexts[0] != "newest" {
		t.Fatalf("expected newest entry first, got %q", analysis.RecentResonanceTexts[0])
	}
	if analysis.WeatherFrequency["sunny"] != 12 {
		t.Fatalf("expected 12 sunny entries, got %d", analysis.WeatherFrequency["sunny"])
	}
	if math.Abs(analysis.AverageEnergy-60) > 1e-9 {
		t.Fatalf("expected average energy 60, got %v", analysis.AverageEnergy)
	}
}

func TestPreprocessUserDataAverageSkipsUndefinedEnergy(t *testing.T) {
	calc := NewSimilarityCalculator()

	entries := []domain.ResonanceEntry{
		{Text: "with energy", Energy: energyPtr(80), Timestamp: time.Now().UTC()},
		{Text: "without energy", Timestamp: time.Now().UTC()},
	}

	analysis := calc.PreprocessUserData("user-1", "", entries)
	if math.Abs(analysis.AverageEnergy-80) > 1e-9 {
		t.Fatalf("expected average energy 80 over defined entries, got %v", analysis.AverageEnergy)
	}
}

func TestCalculateSimilarityClampsToTen(t *testing.T) {
	calc := NewSimilarityCalculator()

	// Dos usuarios sin data: los cuatro factores valen 1 por convencion.
	u1 := calc.PreprocessUserData("a", "", nil)
	u2 := calc.PreprocessUserData("b", "", nil)

	score := calc.CalculateSimilarity(u1, u2)
	if score.OverallScore != 10 {
		t.Fatalf("expected overall score 10, got %d", score.OverallScore)
	}
	if score.Factors.ResonanceText != 1 || score.Factors.Bio != 1 || score.Factors.WeatherPattern != 1 || score.Factors.EnergyPattern != 1 {
		t.Fatalf("expected all factors 1, got %+v", score.Factors)
	}
}

func TestCalculateSimilarityClampsToOne(t *testing.T) {
	calc := NewSimilarityCalculator()

	u1 := calc.PreprocessUserData("a", "alpha bravo charlie", []domain.ResonanceEntry{
		entryAt("walking the old harbor", "sunny", 0, 1),
		entryAt("harbor lights again", "sunny", 0, 2),
		entryAt("quiet harbor morning", "sunny", 0, 3),
	})
	u2 := calc.PreprocessUserData("b", "delta echo foxtrot", []domain.ResonanceEntry{
		entryAt("debugging kernel panics", "rainy", 100, 1),
		entryAt("kernel bisect continues", "rainy", 100, 2),
		entryAt("found the kernel regression", "rainy", 100, 3),
	})

	score := calc.CalculateSimilarity(u1, u2)
	if score.OverallScore != 1 {
		t.Fatalf("expected overall score clamped to 1, got %d", score.OverallScore)
	}
	if score.Factors.ResonanceText < 0 || score.Factors.ResonanceText > 1 ||
		score.Factors.WeatherPattern < 0 || score.Factors.WeatherPattern > 1 ||
		score.Factors.EnergyPattern < 0 || score.Factors.EnergyPattern > 1 {
		t.Fatalf("expected factors in [0,1], got %+v", score.Factors)
	}
}

func TestCalculateSimilarityBioOnlyScenario(t *testing.T) {
	calc := NewSimilarityCalculator()

	// Solo bios: resonancia, clima y energia valen 1 por defecto.
	// bio = 0.5 => 0.5*0.30 + 1*0.40 + 1*0.15 + 1*0.15 = 0.85 => round(8.5) = 9.
	userA := calc.PreprocessUserData("a", "loves ethereum and defi", nil)
	userB := calc.PreprocessUserData("b", "loves ethereum and governance", nil)

	score := calc.CalculateSimilarity(userA, userB)
	if math.Abs(score.Factors.Bio-0.5) > 1e-9 {
		t.Fatalf("expected bio factor 0.5, got %v", score.Factors.Bio)
	}
	if score.OverallScore != 9 {
		t.Fatalf("expected overall score 9, got %d", score.OverallScore)
	}
	if !strings.HasPrefix(score.Explanation, "VERY STRONG") {
		t.Fatalf("expected VERY STRONG label, got %q", score.Explanation)
	}
}

func TestCalculateSimilarityExplanationNotes(t *testing.T) {
	calc := NewSimilarityCalculator()

	u1 := calc.PreprocessUserData("a", "gardening and fermentation", []domain.ResonanceEntry{
		entryAt("tomatoes are thriving", "sunny", 70, 1),
		entryAt("new compost batch", "sunny", 70, 2),
	})
	u2 := calc.PreprocessUserData("b", "gardening and fermentation", []domain.ResonanceEntry{
		entryAt("tomatoes everywhere", "sunny", 72, 1),
		entryAt("compost is cooking", "sunny", 72, 2),
	})

	score := calc.CalculateSimilarity(u1, u2)
	if !strings.Contains(score.Explanation, "similar energy levels") {
		t.Fatalf("expected energy note in explanation, got %q", score.Explanation)
	}
	if !strings.Contains(score.Explanation, "shared moods: sunny") {
		t.Fatalf("expected shared moods note in explanation, got %q", score.Explanation)
	}
	if !strings.Contains(score.Explanation, "match") {
		t.Fatalf("expected factor breakdown in explanation, got %q", score.Explanation)
	}
}

func TestNewSimilarityCalculatorWithWeightsValidation(t *testing.T) {
	_, err := NewSimilarityCalculatorWithWeights(SimilarityWeights{
		ResonanceText:  0.5,
		Bio:            0.5,
		WeatherPattern: 0.5,
		EnergyPattern:  0.5,
	})
	if !errors.Is(err, ErrInvalidWeights) {
		t.Fatalf("expected ErrInvalidWeights, got %v", err)
	}

	calc, err := NewSimilarityCalculatorWithWeights(DefaultSimilarityWeights())
	if err != nil {
		t.Fatalf("expected default weights to validate, got %v", err)
	}
	if calc == nil {
		t.Fatalf("expected calculator instance")
	}
}

func TestFindMostSimilarProfilesExcludesSelfAndSorts(t *testing.T) {
	calc := NewSimilarityCalculator()

	target := calc.PreprocessUserData("target", "loves ethereum and defi", nil)
	all := []UserResonanceAnalysis{
		target,
		calc.PreprocessUserData("close", "loves ethereum and defi", nil),
		calc.PreprocessUserData("far", "medieval falconry techniques", nil),
		calc.PreprocessUserData("mid", "loves ethereum and governance", nil),
	}

	results, err := calc.FindMostSimilarProfiles(target, all, 6)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if r.UserID == "target" {
			t.Fatalf("target user must not appear in its own results")
		}
		if r.Nickname != "" {
			t.Fatalf("expected blank nickname from calculator, got %q", r.Nickname)
		}
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Fatalf("results not sorted descending: %d before %d", results[i-1].Score, results[i].Score)
		}
	}
	if results[0].UserID != "close" {
		t.Fatalf("expected closest match first, got %q", results[0].UserID)
	}
}

func TestFindMostSimilarProfilesTruncates(t *testing.T) {
	calc := NewSimilarityCalculator()

	target := calc.PreprocessUserData("target", "community gardens", nil)
	all := []UserResonanceAnalysis{target}
	for _, id := range []string{"u1", "u2", "u3", "u4"} {
		all = append(all, calc.PreprocessUserData(id, "community gardens", nil))
	}

	results, err := calc.FindMostSimilarProfiles(target, all, 2)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}

func TestFindMostSimilarProfilesLimitsResonanceSnapshot(t *testing.T) {
	calc := NewSimilarityCalculator()

	target := calc.PreprocessUserData("target", "bio", nil)
	other := calc.PreprocessUserData("other", "bio", []domain.ResonanceEntry{
		entryAt("one", "sunny", 50, 1),
		entryAt("two", "rainy", 50, 2),
		entryAt("three", "sunny", 50, 3),
		entryAt("four", "cloudy", 50, 4),
	})

	results, err := calc.FindMostSimilarProfiles(target, []UserResonanceAnalysis{target, other}, 6)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if len(results[0].RecentResonance) != 3 {
		t.Fatalf("expected at most 3 resonance entries, got %d", len(results[0].RecentResonance))
	}
	if len(results[0].CommonMoods) != 3 {
		t.Fatalf("expected 3 mood tags, got %v", results[0].CommonMoods)
	}
}
