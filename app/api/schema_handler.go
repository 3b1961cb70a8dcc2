package api

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

type SchemaHandler struct {
	agent Agent
}

func NewSchemaHandler(a Agent) *SchemaHandler {
	return &SchemaHandler{
		agent: a,
	}
}

func (h *SchemaHandler) HandleTables(c *fiber.Ctx) error {
	tables, err := h.agent.Tables(context.Background())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"tables": tables})
}

func (h *SchemaHandler) HandleSummary(c *fiber.Ctx) error {
	summary, err := h.agent.SchemaSummary(context.Background())
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

func (h *SchemaHandler) HandleRefresh(c *fiber.Ctx) error {
	if serr := h.agent.RefreshSchema(context.Background()); serr != nil {
		return ErrSetupFailed(serr.Step, serr.Err)
	}
	summary, err := h.agent.SchemaSummary(context.Background())
	if err != nil {
		return err
	}
	return c.JSON(summary)
}
