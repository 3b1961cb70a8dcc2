package store

import (
	"context"
	"fmt"

	"ragsql/model"
	"ragsql/types"
)

// SchemaIndex glues the embedder and the vector store into the similarity
// search the pipeline consumes: embed the question, then search by vector.
type SchemaIndex struct {
	store    VectorStorer
	embedder model.EmbedderInterface
}

func NewSchemaIndex(store VectorStorer, embedder model.EmbedderInterface) *SchemaIndex {
	return &SchemaIndex{
		store:    store,
		embedder: embedder,
	}
}

func (s *SchemaIndex) SearchWithScores(ctx context.Context, query string, k int) ([]types.RetrievedDocument, error) {
	vec, err := s.embedder.Embed(query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	return s.store.Search(ctx, vec, k)
}

// EmbedAndReplace embeds a fresh set of schema documents and swaps out the
// stored contents.
func (s *SchemaIndex) EmbedAndReplace(ctx context.Context, docs []types.SchemaDocument) error {
	embedded := make([]EmbeddedDocument, 0, len(docs))
	for _, doc := range docs {
		vec, err := s.embedder.Embed(doc.Content)
		if err != nil {
			return fmt.Errorf("failed to embed schema document %q: %w", doc.Name, err)
		}
		embedded = append(embedded, EmbeddedDocument{Document: doc, Embedding: vec})
	}
	return s.store.Replace(ctx, embedded)
}
