package service

import (
	"math"
	"testing"
)

func TestTextSimilaritySelfMatch(t *testing.T) {
	got := textSimilarity("blockchain ethereum community", "blockchain ethereum community")
	if got != 1 {
		t.Fatalf("expected self similarity 1, got %v", got)
	}
}

func TestTextSimilarityBothEmpty(t *testing.T) {
	if got := textSimilarity("", ""); got != 1 {
		t.Fatalf("expected similarity 1 for two empty texts, got %v", got)
	}
}

func TestTextSimilarityOneEmpty(t *testing.T) {
	if got := textSimilarity("hello world", ""); got != 0 {
		t.Fatalf("expected similarity 0 with one empty text, got %v", got)
	}
	if got := textSimilarity("", "hello world"); got != 0 {
		t.Fatalf("expected similarity 0 with one empty text, got %v", got)
	}
}

func TestTextSimilarityJaccardNoBonus(t *testing.T) {
	// Tokens: {loves, ethereum, defi} vs {loves, ethereum, governance}.
	// Interseccion 2, union 4, sin bono (3 tokens, no mas de 3).
	got := textSimilarity("loves ethereum and defi", "loves ethereum and governance")
	if math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("expected jaccard 0.5, got %v", got)
	}
}

func TestTextSimilarityLengthBonus(t *testing.T) {
	// 4 tokens por lado: interseccion 3, union 5 => 0.6 + 0.10 de bono.
	got := textSimilarity("alpha bravo charlie delta", "alpha bravo charlie zulu")
	if math.Abs(got-0.7) > 1e-9 {
		t.Fatalf("expected 0.7 with length bonus, got %v", got)
	}
}

func TestTextSimilarityStopWordsAndShortTokens(t *testing.T) {
	// Todo stop words o tokens cortos: ambos conjuntos quedan vacios.
	got := textSimilarity("the and for it is", "you all can be at")
	if got != 1 {
		t.Fatalf("expected similarity 1 for two uninformative texts, got %v", got)
	}
}

func TestTokenizeStripsPunctuationAndCase(t *testing.T) {
	tokens := tokenize("Loves, Ethereum! (defi)")
	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %d: %v", len(tokens), tokens)
	}
	for _, want := range []string{"loves", "ethereum", "defi"} {
		if _, ok := tokens[want]; !ok {
			t.Fatalf("expected token %q in %v", want, tokens)
		}
	}
}
