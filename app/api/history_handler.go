package api

import (
	"github.com/gofiber/fiber/v2"
)

type HistoryHandler struct {
	agent Agent
}

func NewHistoryHandler(a Agent) *HistoryHandler {
	return &HistoryHandler{
		agent: a,
	}
}

func (h *HistoryHandler) HandleHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)
	return c.JSON(h.agent.History(limit))
}

func (h *HistoryHandler) HandleClearHistory(c *fiber.Ctx) error {
	h.agent.ClearHistory()
	return c.JSON(fiber.Map{"result": "ok"})
}

func (h *HistoryHandler) HandleStats(c *fiber.Ctx) error {
	return c.JSON(h.agent.Stats())
}
