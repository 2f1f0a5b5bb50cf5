package domain

import (
	"strings"
	"time"
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Nickname  string    `json:"nickname,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ResonanceEntry es una nota de diario con texto libre que el usuario agrega a su
// perfil comunitario. Inmutable una vez creada; vive dentro del arreglo resonance
// del perfil.
type ResonanceEntry struct {
	Text      string    `json:"text"`
	Weather   string    `json:"weather,omitempty"` // etiqueta de animo/clima, ej: "sunny"
	Energy    *float64  `json:"energy,omitempty"`  // 0-100
	Timestamp time.Time `json:"timestamp"`
}

// Profile es el perfil de un usuario dentro de una comunidad concreta.
// El mismo usuario puede tener perfiles distintos en comunidades distintas.
type Profile struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	CommunityID string           `json:"community_id"`
	Bio         string           `json:"bio,omitempty"`
	Resonance   []ResonanceEntry `json:"resonance"`
	User        User             `json:"user"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// HasSimilarityData indica si el perfil califica como candidato de similitud:
// al menos una entrada de resonancia o una bio no vacia.
func (p Profile) HasSimilarityData() bool {
	return len(p.Resonance) > 0 || strings.TrimSpace(p.Bio) != ""
}

// MostRecentResonanceAt devuelve el timestamp mas reciente entre las entradas,
// o cero si no hay ninguna.
func (p Profile) MostRecentResonanceAt() time.Time {
	var latest time.Time
	for _, e := range p.Resonance {
		if e.Timestamp.After(latest) {
			latest = e.Timestamp
		}
	}
	return latest
}
