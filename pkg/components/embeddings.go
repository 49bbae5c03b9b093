package components

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand/v2"

	"github.com/aretw0/weft/pkg/component"
	"github.com/aretw0/weft/pkg/domain"
)

const defaultDimensions = 5

// FakeEmbeddings produces deterministic pseudo-random vectors, useful for
// testing flows without a model provider.
type FakeEmbeddings struct {
	component.Base
}

func (c *FakeEmbeddings) Definition() component.Definition {
	return component.Definition{
		Name:        "FakeEmbeddings",
		DisplayName: "Fake Embeddings",
		Description: "Generate fake embeddings, useful for initial testing and connecting components.",
		Inputs: []component.Input{
			component.IntInput("dimensions", component.Display("Dimensions"), component.Default(defaultDimensions),
				component.Info("The number of dimensions the resulting output embeddings should have.")),
		},
		Outputs: []component.Output{
			{Name: "embeddings", DisplayName: "Embeddings", Method: "BuildEmbeddings", Types: []string{domain.TypeEmbeddings}},
		},
	}
}

func (c *FakeEmbeddings) BuildEmbeddings(ctx context.Context) (domain.Embeddings, error) {
	n, err := c.Int("dimensions")
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = defaultDimensions
	}
	return HashEmbedder{Size: n}, nil
}

// HashEmbedder maps a text to a unit vector seeded by the FNV hash of the
// text. Equal texts always get equal vectors.
type HashEmbedder struct {
	Size int
}

func (h HashEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.embed(t)
	}
	return out, nil
}

func (h HashEmbedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.embed(text), nil
}

func (h HashEmbedder) embed(text string) []float64 {
	f := fnv.New64a()
	_, _ = f.Write([]byte(text))
	seed := f.Sum64()
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	v := make([]float64, h.Size)
	var norm float64
	for i := range v {
		v[i] = rng.NormFloat64()
		norm += v[i] * v[i]
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range v {
			v[i] /= norm
		}
	}
	return v
}
