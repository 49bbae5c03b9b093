package components

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/aretw0/weft/pkg/component"
	"github.com/aretw0/weft/pkg/domain"
)

// MemoryStore is a process-local vector store. Documents are keyed by text,
// so ingesting the same text twice stores it once.
type MemoryStore struct {
	mu   sync.RWMutex
	docs []storedDoc
	seen map[string]bool
}

type storedDoc struct {
	data   domain.Data
	text   string
	vector []float64
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]bool)}
}

// Add embeds and stores the documents not already present. It returns the
// number of documents added.
func (s *MemoryStore) Add(ctx context.Context, emb domain.Embeddings, docs []domain.Data) (int, error) {
	s.mu.RLock()
	var fresh []domain.Data
	var texts []string
	pending := map[string]bool{}
	for _, d := range docs {
		t := d.Text()
		if s.seen[t] || pending[t] {
			continue
		}
		pending[t] = true
		fresh = append(fresh, d)
		texts = append(texts, t)
	}
	s.mu.RUnlock()
	if len(fresh) == 0 {
		return 0, nil
	}

	vectors, err := emb.EmbedDocuments(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed documents: %w", err)
	}
	if len(vectors) != len(texts) {
		return 0, fmt.Errorf("embed documents: got %d vectors for %d texts", len(vectors), len(texts))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	added := 0
	for i, d := range fresh {
		if s.seen[texts[i]] {
			continue
		}
		s.seen[texts[i]] = true
		s.docs = append(s.docs, storedDoc{data: d, text: texts[i], vector: vectors[i]})
		added++
	}
	return added, nil
}

// Len returns the number of stored documents.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Search returns the k documents closest to query by cosine similarity.
// Each result carries its score under "score".
func (s *MemoryStore) Search(ctx context.Context, emb domain.Embeddings, query string, k int) ([]domain.Data, error) {
	q, err := emb.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.RLock()
	type scored struct {
		doc   storedDoc
		score float64
	}
	hits := make([]scored, 0, len(s.docs))
	for _, d := range s.docs {
		hits = append(hits, scored{doc: d, score: cosine(q, d.vector)})
	}
	s.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	out := make([]domain.Data, len(hits))
	for i, h := range hits {
		values := map[string]any{"text": h.doc.text, "score": h.score}
		for key, v := range h.doc.data.Data {
			if _, taken := values[key]; !taken {
				values[key] = v
			}
		}
		out[i] = domain.NewData(values)
	}
	return out, nil
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// InMemoryVectorStore ingests documents into a MemoryStore kept in the
// shared component cache, so later runs reuse the same collection.
type InMemoryVectorStore struct {
	component.Base

	once  sync.Once
	local *MemoryStore
}

const vectorStoreKeyPrefix = "vector_store:"

func (c *InMemoryVectorStore) Definition() component.Definition {
	return component.Definition{
		Name:        "InMemoryVectorStore",
		DisplayName: "In-Memory Vector Store",
		Description: "Vector store kept in the shared component cache.",
		Inputs: []component.Input{
			component.StrInput("collection_name", component.Display("Collection Name"), component.Default("default")),
			component.HandleInput("embedding", []string{domain.TypeEmbeddings}, component.Display("Embedding"), component.Required()),
			component.DataInput("ingest_data", component.Display("Ingest Data"),
				component.Types(domain.TypeData, domain.TypeMessage, domain.TypeText)),
			component.MessageTextInput("search_query", component.Display("Search Query"), component.Default("")),
			component.IntInput("number_of_results", component.Display("Number of Results"), component.Default(4), component.Advanced()),
		},
		Outputs: []component.Output{
			{Name: "vector_store", DisplayName: "Vector Store", Method: "BuildStore", Types: []string{domain.TypeVectorStore}},
			{Name: "search_results", DisplayName: "Search Results", Method: "SearchDocuments", Types: []string{domain.TypeData}},
		},
	}
}

// BuildStore returns the collection's store after ingesting the input documents.
func (c *InMemoryVectorStore) BuildStore(ctx context.Context) (*MemoryStore, error) {
	emb, ok := c.Input("embedding").(domain.Embeddings)
	if !ok {
		return nil, fmt.Errorf("embedding of %q: expected Embeddings, got %T", c.ID(), c.Input("embedding"))
	}
	store, err := c.store(ctx)
	if err != nil {
		return nil, err
	}
	docs, err := toDocuments(c.Input("ingest_data"))
	if err != nil {
		return nil, fmt.Errorf("ingest_data of %q: %w", c.ID(), err)
	}
	added, err := store.Add(ctx, emb, docs)
	if err != nil {
		return nil, err
	}
	c.Logger().Debug("documents ingested", "added", added, "total", store.Len())
	c.SetStatus(fmt.Sprintf("%d documents", store.Len()))
	return store, nil
}

// SearchDocuments runs search_query against the store. An empty query returns no results.
func (c *InMemoryVectorStore) SearchDocuments(ctx context.Context) ([]domain.Data, error) {
	store, err := c.BuildStore(ctx)
	if err != nil {
		return nil, err
	}
	query := c.Text("search_query")
	if query == "" {
		return []domain.Data{}, nil
	}
	k, err := c.Int("number_of_results")
	if err != nil {
		return nil, err
	}
	emb := c.Input("embedding").(domain.Embeddings)
	results, err := store.Search(ctx, emb, query, k)
	if err != nil {
		return nil, err
	}
	c.SetStatus(results)
	return results, nil
}

// store returns the collection's MemoryStore from the shared cache, or a
// private one when no cache service is attached.
func (c *InMemoryVectorStore) store(ctx context.Context) (*MemoryStore, error) {
	cache, err := c.SharedCache(ctx)
	if errors.Is(err, domain.ErrServiceNotFound) {
		c.Logger().Warn("shared cache unavailable, vector store will not outlive the run")
		return c.private(), nil
	}
	if err != nil {
		return nil, err
	}
	key := vectorStoreKeyPrefix + c.Text("collection_name")
	v, err := cache.GetOrCreate(ctx, key, func(context.Context) (any, error) {
		return NewMemoryStore(), nil
	})
	if err != nil {
		return nil, err
	}
	store, ok := v.(*MemoryStore)
	if !ok {
		return nil, fmt.Errorf("shared cache key %q holds %T", key, v)
	}
	return store, nil
}

func (c *InMemoryVectorStore) private() *MemoryStore {
	c.once.Do(func() { c.local = NewMemoryStore() })
	return c.local
}

func toDocuments(v any) ([]domain.Data, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case domain.Data:
		return []domain.Data{t}, nil
	case []domain.Data:
		return t, nil
	case domain.Message:
		return []domain.Data{fromMessage(t)}, nil
	case string:
		return []domain.Data{domain.NewData(map[string]any{"text": t})}, nil
	case []string:
		out := make([]domain.Data, len(t))
		for i, s := range t {
			out[i] = domain.NewData(map[string]any{"text": s})
		}
		return out, nil
	case []any:
		var out []domain.Data
		for _, item := range t {
			docs, err := toDocuments(item)
			if err != nil {
				return nil, err
			}
			out = append(out, docs...)
		}
		return out, nil
	case map[string]any:
		return []domain.Data{domain.NewData(t)}, nil
	default:
		return nil, fmt.Errorf("cannot ingest %T", v)
	}
}
