package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"ragsql/types"
)

// BuildSchemaContext formats retrieved schema documents into the context
// block of the generation prompt. Input order is retrieval rank and is
// preserved: prompt quality depends on the best match appearing first.
//
// The relevance header converts cosine distance to a similarity via
// 1-distance. Stored and query vectors are L2-normalized, which keeps the
// distance inside [0,1] for text embeddings; the header is a display aid, not
// a probability.
func BuildSchemaContext(retrieved []types.RetrievedDocument) (string, error) {
	if len(retrieved) == 0 {
		return "", errors.New("no schema documents to build context from")
	}

	parts := make([]string, 0, len(retrieved)*3)
	for _, rd := range retrieved {
		parts = append(parts, fmt.Sprintf("Relevance Score: %.2f", 1-rd.Distance))
		parts = append(parts, rd.Document.Content)
		parts = append(parts, "---")
	}
	return strings.Join(parts, "\n"), nil
}
