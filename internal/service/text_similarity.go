package service

import (
	"strings"
	"unicode"
)

// stopWords son palabras comunes en ingles que no aportan señal de afinidad.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "had": {}, "her": {}, "was": {},
	"one": {}, "our": {}, "out": {}, "has": {}, "him": {}, "his": {},
	"how": {}, "its": {}, "your": {}, "that": {}, "this": {}, "with": {},
	"they": {}, "have": {}, "from": {}, "been": {}, "were": {}, "them": {},
	"then": {}, "than": {}, "some": {}, "what": {}, "when": {}, "which": {},
	"will": {}, "would": {}, "could": {}, "about": {}, "there": {}, "their": {},
	"other": {}, "after": {}, "just": {}, "like": {}, "also": {},
}

// tokenize normaliza un texto a un conjunto de tokens: minusculas, sin
// puntuacion, descartando tokens de largo <= 2 y stop words.
func tokenize(text string) map[string]struct{} {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)

	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(cleaned) {
		if len(tok) <= 2 {
			continue
		}
		if _, skip := stopWords[tok]; skip {
			continue
		}
		tokens[tok] = struct{}{}
	}
	return tokens
}

// textSimilarity calcula la similitud Jaccard entre dos textos, con un bono
// plano de +0.10 cuando ambos aportan mas de 3 tokens, acotada a 1.
// Dos textos sin tokens son "igual de poco informativos": similitud 1.
// Uno solo vacio: similitud 0.
func textSimilarity(a, b string) float64 {
	t1 := tokenize(a)
	t2 := tokenize(b)

	if len(t1) == 0 && len(t2) == 0 {
		return 1
	}
	if len(t1) == 0 || len(t2) == 0 {
		return 0
	}

	intersection := 0
	for tok := range t1 {
		if _, ok := t2[tok]; ok {
			intersection++
		}
	}
	union := len(t1) + len(t2) - intersection

	similarity := float64(intersection) / float64(union)
	if len(t1) > 3 && len(t2) > 3 {
		similarity += 0.10
	}
	if similarity > 1 {
		similarity = 1
	}
	return similarity
}
