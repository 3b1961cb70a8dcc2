package api

import (
	"context"

	"ragsql/app/agent"
	"ragsql/pipeline"
	"ragsql/store"
	"ragsql/types"

	"github.com/gofiber/fiber/v2"
)

// Agent is the surface the HTTP layer needs from the RAG SQL agent.
type Agent interface {
	Ask(ctx context.Context, question string) types.Result
	History(limit int) []types.Result
	ClearHistory()
	Stats() pipeline.Stats
	Tables(ctx context.Context) ([]string, error)
	SchemaSummary(ctx context.Context) (store.Summary, error)
	RefreshSchema(ctx context.Context) *agent.SetupError
}

type AskHandler struct {
	agent Agent
}

func NewAskHandler(a Agent) *AskHandler {
	return &AskHandler{
		agent: a,
	}
}

func (h *AskHandler) HandleAsk(c *fiber.Ctx) error {
	var params types.QuestionParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	// The pipeline folds every failure into the result, so the handler
	// always answers 200 with the result body; HTTP errors are reserved for
	// malformed requests.
	res := h.agent.Ask(context.Background(), params.Question)
	return c.JSON(res)
}
