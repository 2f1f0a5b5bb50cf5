package service

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"convo-cafe/internal/domain"
)

// SimilarityWeights pondera los cuatro factores de afinidad. Deben sumar 1.
type SimilarityWeights struct {
	ResonanceText  float64 `json:"resonance_text"`
	Bio            float64 `json:"bio"`
	WeatherPattern float64 `json:"weather_pattern"`
	EnergyPattern  float64 `json:"energy_pattern"`
}

// DefaultSimilarityWeights devuelve la ponderacion estandar del motor.
func DefaultSimilarityWeights() SimilarityWeights {
	return SimilarityWeights{
		ResonanceText:  0.40,
		Bio:            0.30,
		WeatherPattern: 0.15,
		EnergyPattern:  0.15,
	}
}

var ErrInvalidWeights = errors.New("similarity weights must sum to 1")

// UserResonanceAnalysis es el resumen precomputado del historial de resonancia
// de un usuario dentro de una comunidad. Se reconstruye entero en cada pasada
// de preprocesamiento; nunca se muta en el lugar.
type UserResonanceAnalysis struct {
	ID                   string                  `json:"id"`
	Bio                  string                  `json:"bio,omitempty"`
	ResonanceEntries     []domain.ResonanceEntry `json:"resonance_entries"`
	AverageEnergy        float64                 `json:"average_energy"`
	WeatherFrequency     map[string]int          `json:"weather_frequency"`
	RecentResonanceTexts []string                `json:"recent_resonance_texts"`
	TotalResonanceCount  int                     `json:"total_resonance_count"`
}

// SimilarityFactors son los cuatro sub-puntajes en [0,1].
type SimilarityFactors struct {
	ResonanceText  float64 `json:"resonance_text"`
	Bio            float64 `json:"bio"`
	WeatherPattern float64 `json:"weather_pattern"`
	EnergyPattern  float64 `json:"energy_pattern"`
}

// SimilarityScore es el resultado de comparar dos usuarios.
type SimilarityScore struct {
	UserID1      string            `json:"user_id_1"`
	UserID2      string            `json:"user_id_2"`
	OverallScore int               `json:"overall_score"` // entero 1-10
	Factors      SimilarityFactors `json:"factors"`
	ComputedAt   time.Time         `json:"computed_at"`
	Explanation  string            `json:"explanation"`
}

// SimilarProfile es el resultado enriquecido que consumen los endpoints:
// puntaje mas una foto del perfil publico del otro usuario.
type SimilarProfile struct {
	UserID          string                  `json:"user_id"`
	Nickname        string                  `json:"nickname,omitempty"`
	Bio             string                  `json:"bio,omitempty"`
	Score           int                     `json:"score"`
	Explanation     string                  `json:"explanation"`
	RecentResonance []domain.ResonanceEntry `json:"recent_resonance"`
	AverageEnergy   float64                 `json:"average_energy"`
	CommonMoods     []string                `json:"common_moods"`
}

const (
	recentTextsLimit     = 10
	topPairsFraction     = 0.3
	lengthBonus          = 0.10
	defaultEnergy        = 50.0
	resultResonanceLimit = 3
)

// SimilarityCalculator puntua pares de analisis preprocesados. Puro, sin I/O.
type SimilarityCalculator struct {
	weights SimilarityWeights
}

// NewSimilarityCalculator crea un calculador con la ponderacion estandar.
func NewSimilarityCalculator() *SimilarityCalculator {
	return &SimilarityCalculator{weights: DefaultSimilarityWeights()}
}

// NewSimilarityCalculatorWithWeights valida que la ponderacion sume 1 antes de
// aceptar pesos personalizados.
func NewSimilarityCalculatorWithWeights(weights SimilarityWeights) (*SimilarityCalculator, error) {
	sum := weights.ResonanceText + weights.Bio + weights.WeatherPattern + weights.EnergyPattern
	if math.Abs(sum-1) > 1e-9 {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidWeights, sum)
	}
	return &SimilarityCalculator{weights: weights}, nil
}

// PreprocessUserData arma el resumen comparable de un usuario. Nunca falla,
// incluso con entrada vacia.
func (c *SimilarityCalculator) PreprocessUserData(userID, bio string, entries []domain.ResonanceEntry) UserResonanceAnalysis {
	sorted := make([]domain.ResonanceEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	var energySum float64
	energyCount := 0
	weatherFreq := make(map[string]int)
	for _, e := range sorted {
		if e.Energy != nil {
			energySum += *e.Energy
			energyCount++
		}
		if e.Weather != "" {
			weatherFreq[e.Weather]++
		}
	}
	averageEnergy := defaultEnergy
	if energyCount > 0 {
		averageEnergy = energySum / float64(energyCount)
	}

	recentTexts := make([]string, 0, recentTextsLimit)
	for _, e := range sorted {
		if len(recentTexts) >= recentTextsLimit {
			break
		}
		recentTexts = append(recentTexts, e.Text)
	}

	return UserResonanceAnalysis{
		ID:                   userID,
		Bio:                  bio,
		ResonanceEntries:     sorted,
		AverageEnergy:        averageEnergy,
		WeatherFrequency:     weatherFreq,
		RecentResonanceTexts: recentTexts,
		TotalResonanceCount:  len(sorted),
	}
}

// CalculateSimilarity combina los cuatro factores con la ponderacion fija y
// escala a un entero 1-10. Determinista para entradas identicas.
func (c *SimilarityCalculator) CalculateSimilarity(user1, user2 UserResonanceAnalysis) SimilarityScore {
	factors := SimilarityFactors{
		ResonanceText:  resonanceTextSimilarity(user1.RecentResonanceTexts, user2.RecentResonanceTexts),
		Bio:            textSimilarity(user1.Bio, user2.Bio),
		WeatherPattern: weatherPatternSimilarity(user1, user2),
		EnergyPattern:  energyPatternSimilarity(user1, user2),
	}

	weighted := factors.ResonanceText*c.weights.ResonanceText +
		factors.Bio*c.weights.Bio +
		factors.WeatherPattern*c.weights.WeatherPattern +
		factors.EnergyPattern*c.weights.EnergyPattern

	scaled := weighted * 10
	if scaled < 1 {
		scaled = 1
	}
	if scaled > 10 {
		scaled = 10
	}

	return SimilarityScore{
		UserID1:      user1.ID,
		UserID2:      user2.ID,
		OverallScore: int(math.Round(scaled)),
		Factors:      factors,
		ComputedAt:   time.Now().UTC(),
		Explanation:  c.buildExplanation(user1, user2, factors, weighted),
	}
}

// FindMostSimilarProfiles puntua al usuario objetivo contra todos los demas,
// ordena descendente y devuelve a lo sumo maxResults. El nickname queda vacio:
// lo completa la capa de servicio con los datos crudos del perfil.
func (c *SimilarityCalculator) FindMostSimilarProfiles(target UserResonanceAnalysis, allUsers []UserResonanceAnalysis, maxResults int) ([]SimilarProfile, error) {
	if maxResults <= 0 {
		maxResults = 6
	}

	byID := make(map[string]UserResonanceAnalysis, len(allUsers))
	for _, u := range allUsers {
		byID[u.ID] = u
	}

	scores := make([]SimilarityScore, 0, len(allUsers))
	for _, other := range allUsers {
		if other.ID == target.ID {
			continue
		}
		scores = append(scores, c.CalculateSimilarity(target, other))
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].OverallScore > scores[j].OverallScore
	})
	if len(scores) > maxResults {
		scores = scores[:maxResults]
	}

	results := make([]SimilarProfile, 0, len(scores))
	for _, score := range scores {
		other, ok := byID[score.UserID2]
		if !ok {
			// Inalcanzable: el puntaje salio de la misma lista.
			return nil, fmt.Errorf("scored user %s missing from community analyses", score.UserID2)
		}
		recent := other.ResonanceEntries
		if len(recent) > resultResonanceLimit {
			recent = recent[:resultResonanceLimit]
		}
		moods := make([]string, 0, len(other.WeatherFrequency))
		for tag := range other.WeatherFrequency {
			moods = append(moods, tag)
		}
		sort.Strings(moods)

		results = append(results, SimilarProfile{
			UserID:          other.ID,
			Bio:             other.Bio,
			Score:           score.OverallScore,
			Explanation:     score.Explanation,
			RecentResonance: recent,
			AverageEnergy:   other.AverageEnergy,
			CommonMoods:     moods,
		})
	}
	return results, nil
}

// resonanceTextSimilarity cruza los textos recientes de ambos usuarios y
// promedia el 30% superior de los pares (minimo 1) para enfocarse en los
// mejores matches en vez de diluir con pares debiles.
func resonanceTextSimilarity(texts1, texts2 []string) float64 {
	if len(texts1) == 0 && len(texts2) == 0 {
		return 1
	}
	if len(texts1) == 0 || len(texts2) == 0 {
		return 0
	}

	pairScores := make([]float64, 0, len(texts1)*len(texts2))
	for _, t1 := range texts1 {
		for _, t2 := range texts2 {
			pairScores = append(pairScores, textSimilarity(t1, t2))
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(pairScores)))

	top := int(float64(len(pairScores)) * topPairsFraction)
	if top < 1 {
		top = 1
	}
	var sum float64
	for _, s := range pairScores[:top] {
		sum += s
	}
	return sum / float64(top)
}

// weatherPatternSimilarity compara frecuencias de etiquetas de animo
// normalizadas por el total de resonancias de cada usuario.
func weatherPatternSimilarity(user1, user2 UserResonanceAnalysis) float64 {
	if len(user1.WeatherFrequency) == 0 && len(user2.WeatherFrequency) == 0 {
		return 1
	}

	union := make(map[string]struct{})
	for tag := range user1.WeatherFrequency {
		union[tag] = struct{}{}
	}
	for tag := range user2.WeatherFrequency {
		union[tag] = struct{}{}
	}

	var sum float64
	for tag := range union {
		f1 := normalizedFrequency(user1, tag)
		f2 := normalizedFrequency(user2, tag)
		sum += 1 - math.Abs(f1-f2)
	}
	return sum / float64(len(union))
}

func normalizedFrequency(user UserResonanceAnalysis, tag string) float64 {
	if user.TotalResonanceCount == 0 {
		return 0
	}
	return float64(user.WeatherFrequency[tag]) / float64(user.TotalResonanceCount)
}

// energyPatternSimilarity compara energias promedio, con un bono plano cuando
// ambos usuarios tienen mas de 3 resonancias (suficiente data para confiar).
func energyPatternSimilarity(user1, user2 UserResonanceAnalysis) float64 {
	similarity := 1 - math.Abs(user1.AverageEnergy-user2.AverageEnergy)/100
	if user1.TotalResonanceCount > 3 && user2.TotalResonanceCount > 3 {
		similarity += lengthBonus
	}
	if similarity > 1 {
		similarity = 1
	}
	return similarity
}

// buildExplanation genera la explicacion legible del puntaje: etiqueta
// cualitativa, hasta 2 factores dominantes, nota de energia y animos compartidos.
func (c *SimilarityCalculator) buildExplanation(user1, user2 UserResonanceAnalysis, factors SimilarityFactors, weighted float64) string {
	label := "WEAK"
	switch {
	case weighted >= 0.8:
		label = "VERY STRONG"
	case weighted >= 0.65:
		label = "STRONG"
	case weighted >= 0.5:
		label = "MODERATE"
	}

	type contribution struct {
		name   string
		value  float64
		weight float64
	}
	contributions := []contribution{
		{"resonance text", factors.ResonanceText, c.weights.ResonanceText},
		{"bio", factors.Bio, c.weights.Bio},
		{"weather pattern", factors.WeatherPattern, c.weights.WeatherPattern},
		{"energy pattern", factors.EnergyPattern, c.weights.EnergyPattern},
	}
	sort.SliceStable(contributions, func(i, j int) bool {
		return contributions[i].value*contributions[i].weight > contributions[j].value*contributions[j].weight
	})

	parts := []string{label + " resonance match"}

	topFactors := make([]string, 0, 2)
	for _, contrib := range contributions {
		if len(topFactors) >= 2 {
			break
		}
		if contrib.value <= 0.3 {
			continue
		}
		topFactors = append(topFactors, fmt.Sprintf("%d%% %s match", int(math.Round(contrib.value*100)), contrib.name))
	}
	if len(topFactors) > 0 {
		parts = append(parts, strings.Join(topFactors, ", "))
	}

	if factors.EnergyPattern > 0.7 {
		parts = append(parts, "similar energy levels")
	}

	if factors.WeatherPattern > 0.6 {
		shared := make([]string, 0)
		for tag, count1 := range user1.WeatherFrequency {
			count2 := user2.WeatherFrequency[tag]
			if count2 > 0 && count1+count2 > 1 {
				shared = append(shared, tag)
			}
		}
		sort.Strings(shared)
		if len(shared) > 0 {
			parts = append(parts, "shared moods: "+strings.Join(shared, ", "))
		}
	}

	return strings.Join(parts, ". ")
}
