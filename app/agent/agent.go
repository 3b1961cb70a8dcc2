package agent

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"ragsql/db"
	"ragsql/pipeline"
	"ragsql/store"
	"ragsql/types"
)

// Setup steps reported by SetupError.
const (
	StepDatabase    = "database"
	StepLLM         = "llm"
	StepVectorStore = "vectorstore"
	StepEmbedSchema = "embed-schema"
)

// SetupError reports which initialization step failed, so callers can tell a
// missing model from an unreachable database.
type SetupError struct {
	Step string
	Err  error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// Target is the database the generated queries run against.
type Target interface {
	pipeline.QueryExecutor
	Ping(ctx context.Context) error
	SchemaInfo(ctx context.Context) (*db.SchemaInfo, error)
	InvalidateSchemaCache()
	Close() error
}

// Completer is the language model used for generation and analysis.
type Completer interface {
	pipeline.TextCompleter
	Healthy(ctx context.Context) bool
	HasModel(ctx context.Context) (bool, error)
	Model() string
}

// Index is the embed-and-search surface over the schema vector store.
type Index interface {
	pipeline.SchemaIndex
	EmbedAndReplace(ctx context.Context, docs []types.SchemaDocument) error
}

// Agent wires the question pipeline to its collaborators and owns the
// history side effect: Process stays stateless, the agent records every
// outcome.
type Agent struct {
	target      Target
	vstore      store.VectorStorer
	index       Index
	llm         Completer
	pipeline    *pipeline.Pipeline
	history     *pipeline.HistoryLog
	initialized bool
}

func New(target Target, vstore store.VectorStorer, index Index, llm Completer, cfg pipeline.Config, maxHistory int) *Agent {
	return &Agent{
		target:   target,
		vstore:   vstore,
		index:    index,
		llm:      llm,
		pipeline: pipeline.New(index, target, llm, cfg),
		history:  pipeline.NewHistoryLog(maxHistory),
	}
}

// Initialize brings up every collaborator and embeds the schema when the
// vector store is empty.
func (a *Agent) Initialize(ctx context.Context) *SetupError {
	log.Println("[AGENT] Initializing RAG SQL agent...")

	if err := a.target.Ping(ctx); err != nil {
		return &SetupError{Step: StepDatabase, Err: err}
	}

	if !a.llm.Healthy(ctx) {
		return &SetupError{Step: StepLLM,
			Err: fmt.Errorf("ollama service is not reachable, start it with 'ollama serve'")}
	}
	ok, err := a.llm.HasModel(ctx)
	if err != nil {
		return &SetupError{Step: StepLLM, Err: err}
	}
	if !ok {
		return &SetupError{Step: StepLLM,
			Err: fmt.Errorf("model %q is not available, pull it with 'ollama pull %s'", a.llm.Model(), a.llm.Model())}
	}

	if err := a.vstore.Init(ctx); err != nil {
		return &SetupError{Step: StepVectorStore, Err: err}
	}

	count, err := a.vstore.Count(ctx)
	if err != nil {
		return &SetupError{Step: StepVectorStore, Err: err}
	}
	if count == 0 {
		log.Println("[AGENT] No schema information found in vector store, embedding schema...")
		if serr := a.embedSchema(ctx); serr != nil {
			return serr
		}
	}

	a.initialized = true
	if tables, err := a.vstore.TableNames(ctx); err == nil && len(tables) > 0 {
		log.Printf("[AGENT] Available tables: %s", strings.Join(tables, ", "))
	}
	log.Println("[AGENT] RAG SQL agent initialized successfully")
	return nil
}

func (a *Agent) embedSchema(ctx context.Context) *SetupError {
	info, err := a.target.SchemaInfo(ctx)
	if err != nil {
		return &SetupError{Step: StepDatabase, Err: err}
	}

	docs := db.BuildSchemaDocuments(info)
	if err := a.index.EmbedAndReplace(ctx, docs); err != nil {
		return &SetupError{Step: StepEmbedSchema, Err: err}
	}

	log.Printf("[AGENT] Embedded %d schema documents", len(docs))
	return nil
}

// RefreshSchema re-introspects the target database and replaces the embedded
// schema documents.
func (a *Agent) RefreshSchema(ctx context.Context) *SetupError {
	log.Println("[AGENT] Refreshing database schema...")
	a.target.InvalidateSchemaCache()
	return a.embedSchema(ctx)
}

// Ask processes one natural-language question. The empty-question guard runs
// before any collaborator is touched; every result, guarded or processed, is
// recorded in the history log.
func (a *Agent) Ask(ctx context.Context, question string) types.Result {
	question = strings.TrimSpace(question)
	if question == "" {
		res := types.Result{
			Question:  question,
			ErrorKind: types.ErrKindEmptyQuestion,
			Error:     "question cannot be empty",
			Timestamp: time.Now().Format(time.RFC3339),
		}
		a.history.Record(res)
		return res
	}

	log.Printf("[AGENT] Processing question: %s", question)
	res := a.pipeline.Process(ctx, question)
	a.history.Record(res)
	return res
}

func (a *Agent) History(limit int) []types.Result {
	return a.history.Recent(limit)
}

func (a *Agent) ClearHistory() {
	a.history.Clear()
	log.Println("[AGENT] Query history cleared")
}

func (a *Agent) Stats() pipeline.Stats {
	return a.history.Stats()
}

func (a *Agent) Tables(ctx context.Context) ([]string, error) {
	return a.vstore.TableNames(ctx)
}

func (a *Agent) SchemaSummary(ctx context.Context) (store.Summary, error) {
	return a.vstore.Summary(ctx)
}

func (a *Agent) Close() {
	if err := a.target.Close(); err != nil {
		log.Printf("[AGENT] Error closing target database: %v", err)
	}
	if err := a.vstore.Close(); err != nil {
		log.Printf("[AGENT] Error closing vector store: %v", err)
	}
}
