package repository

import (
	"encoding/json"
	"fmt"
	"strings"

	"convo-cafe/internal/domain"
)

// parseResonance valida el arreglo JSONB de resonancia al salir de la base.
// Un JSON malformado es un error (nunca promedios silenciosamente incorrectos);
// las entradas sin texto se descartan y la energia se acota a [0,100].
func parseResonance(raw []byte) ([]domain.ResonanceEntry, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var entries []domain.ResonanceEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse resonance: %w", err)
	}

	valid := entries[:0]
	for _, e := range entries {
		e.Text = strings.TrimSpace(e.Text)
		if e.Text == "" {
			continue
		}
		e.Weather = strings.TrimSpace(e.Weather)
		if e.Energy != nil {
			energy := clampFloat(*e.Energy, 0, 100)
			e.Energy = &energy
		}
		valid = append(valid, e)
	}
	if len(valid) == 0 {
		return nil, nil
	}
	return valid, nil
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
