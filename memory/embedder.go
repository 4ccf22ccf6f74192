package memory

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

const embedDims = 64

// hashEmbedder is a deterministic, dependency-free Embedder: it tokenizes
// text and hashes each token into one of embedDims buckets, producing a
// bag-of-words vector normalized to unit length. It has no notion of
// semantic similarity beyond shared vocabulary, but it is stable, fast, and
// requires no external model — a reasonable default until a real embedding
// provider is wired in behind the same interface.
type hashEmbedder struct{}

// NewHashEmbedder returns the default local Embedder.
func NewHashEmbedder() Embedder { return hashEmbedder{} }

func (hashEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, embedDims)
	for _, tok := range tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[int(h.Sum32())%embedDims]++
	}
	normalize(vec)
	return vec, nil
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

func normalize(v []float64) {
	var sumSq float64
	for _, x := range v {
		sumSq += x * x
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for i := range v {
		v[i] /= norm
	}
}

// cosineSimilarity returns the cosine similarity of two equal-length
// vectors, or 0 if either is a zero vector.
func cosineSimilarity(a, b []float64) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
