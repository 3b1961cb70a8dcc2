package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	"ragsql/types"
)

// SchemaIndex is the similarity search over embedded schema documents.
type SchemaIndex interface {
	SearchWithScores(ctx context.Context, query string, k int) ([]types.RetrievedDocument, error)
}

// QueryExecutor validates and runs SQL against the target database. Validate
// is a non-destructive probe; Execute returns rows as maps plus the column
// names in result order.
type QueryExecutor interface {
	Validate(ctx context.Context, query string) (bool, string)
	Execute(ctx context.Context, query string) ([]map[string]any, []string, error)
}

// TextCompleter is the blocking language-model call.
type TextCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Config struct {
	SimilarityThreshold float64
	MaxRetrievedDocs    int
}

// Pipeline orchestrates one question run: retrieval, context assembly, SQL
// generation, extraction, validation, execution and post-hoc analysis. It is
// stateless across calls; history recording belongs to the caller.
type Pipeline struct {
	index     SchemaIndex
	executor  QueryExecutor
	completer TextCompleter
	cfg       Config
}

func New(index SchemaIndex, executor QueryExecutor, completer TextCompleter, cfg Config) *Pipeline {
	if cfg.MaxRetrievedDocs <= 0 {
		cfg.MaxRetrievedDocs = 5
	}
	return &Pipeline{
		index:     index,
		executor:  executor,
		completer: completer,
		cfg:       cfg,
	}
}

// Process runs the full sequence for one question. Every failure mode is
// folded into the Result; no error escapes. There is no retry logic here: a
// failed step terminates the run and retries are a caller policy.
func (p *Pipeline) Process(ctx context.Context, question string) types.Result {
	started := time.Now()

	retrieved, err := p.retrieve(ctx, question)
	if err != nil {
		return p.fail(started, question, types.ErrKindNoRelevantSchema,
			fmt.Sprintf("schema retrieval failed: %v", err), "")
	}
	if len(retrieved) == 0 {
		return p.fail(started, question, types.ErrKindNoRelevantSchema,
			"no relevant schema information found for the question", "")
	}

	schemaContext, err := BuildSchemaContext(retrieved)
	if err != nil {
		return p.fail(started, question, types.ErrKindNoRelevantSchema, err.Error(), "")
	}

	sqlQuery, err := p.generateSQL(ctx, question, schemaContext)
	if err != nil {
		return p.fail(started, question, types.ErrKindGenerationFailed, err.Error(), "")
	}

	if ok, msg := p.executor.Validate(ctx, sqlQuery); !ok {
		return p.fail(started, question, types.ErrKindInvalidSQL,
			fmt.Sprintf("generated SQL query is invalid: %s", msg), sqlQuery)
	}

	rows, columns, err := p.executor.Execute(ctx, sqlQuery)
	if err != nil {
		return p.fail(started, question, types.ErrKindExecutionError,
			fmt.Sprintf("query execution failed: %v", err), sqlQuery)
	}

	analysis := p.analyzeResults(ctx, question, sqlQuery, rows)

	names := make([]string, len(retrieved))
	for i, rd := range retrieved {
		names[i] = rd.Document.Name
	}

	return finishResult(types.Result{
		Success:     true,
		Question:    question,
		SQLQuery:    sqlQuery,
		Rows:        rows,
		Columns:     columns,
		Analysis:    analysis,
		SchemaUsed:  names,
		ResultCount: len(rows),
	}, started)
}

// retrieve runs the similarity search and drops documents below the
// configured similarity threshold. The index reports cosine distance, so
// "similar enough" means distance <= 1-threshold.
func (p *Pipeline) retrieve(ctx context.Context, question string) ([]types.RetrievedDocument, error) {
	results, err := p.index.SearchWithScores(ctx, question, p.cfg.MaxRetrievedDocs)
	if err != nil {
		return nil, err
	}

	maxDistance := 1 - p.cfg.SimilarityThreshold
	kept := make([]types.RetrievedDocument, 0, len(results))
	for _, rd := range results {
		if rd.Distance <= maxDistance {
			kept = append(kept, rd)
		} else {
			log.Printf("[RETRIEVE] Dropped %q: distance %.4f above %.2f", rd.Document.Name, rd.Distance, maxDistance)
		}
	}
	return kept, nil
}

func (p *Pipeline) generateSQL(ctx context.Context, question, schemaContext string) (string, error) {
	prompt := fmt.Sprintf(sqlGenerationTemplate, schemaContext, question)

	raw, err := p.completer.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate SQL query: %w", err)
	}

	sqlQuery, ok := ExtractSQL(raw)
	if !ok {
		return "", fmt.Errorf("completer response contained no extractable SQL")
	}
	return sqlQuery, nil
}

// analyzeResults is best effort: a query that executed is reported as a
// success even when the narrative summary cannot be produced.
func (p *Pipeline) analyzeResults(ctx context.Context, question, sqlQuery string, rows []map[string]any) string {
	truncated := rows
	if len(truncated) > analysisRowLimit {
		truncated = truncated[:analysisRowLimit]
	}

	encoded, err := json.Marshal(truncated)
	if err != nil {
		return fmt.Sprintf("Analysis failed: %v", err)
	}

	prompt := fmt.Sprintf(analysisTemplate, question, sqlQuery, encoded)
	analysis, err := p.completer.Complete(ctx, prompt)
	if err != nil {
		return fmt.Sprintf("Analysis failed: %v", err)
	}
	return analysis
}

func (p *Pipeline) fail(started time.Time, question, kind, message, sqlQuery string) types.Result {
	return finishResult(types.Result{
		Question:  question,
		SQLQuery:  sqlQuery,
		ErrorKind: kind,
		Error:     message,
	}, started)
}

// finishResult stamps wall-clock timing and the return timestamp on the way
// out of Process.
func finishResult(res types.Result, started time.Time) types.Result {
	res.ProcessingTime = math.Round(time.Since(started).Seconds()*100) / 100
	res.Timestamp = time.Now().Format(time.RFC3339)
	return res
}
