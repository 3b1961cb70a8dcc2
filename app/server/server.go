package server

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"ragsql/app/agent"
	"ragsql/app/api"
	"ragsql/config"
	"ragsql/db"
	"ragsql/model"
	"ragsql/pipeline"
	"ragsql/store"

	"github.com/gofiber/fiber/v2"
)

var fiberConfig = fiber.Config{
	ErrorHandler: api.ErrorHandler,
}

type Server struct {
	cfg    *config.Config
	logger *slog.Logger
}

func New(cfg *config.Config) *Server {
	return &Server{
		cfg:    cfg,
		logger: slog.Default(),
	}
}

func (s *Server) Stop() {
	s.logger.Info("server stopped")
}

func (s *Server) Run() {
	ctx := context.Background()
	cfg := s.cfg

	target, err := db.Connect(ctx, db.Config{
		Type:     cfg.Database.Type,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Name:     cfg.Database.Name,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
	})
	if err != nil {
		log.Fatal("error to connect to target database: ", err)
		return
	}

	vstore, err := store.NewPostgresStore(ctx, cfg.VectorStore.ConnString(), cfg.Embeddings.Dimension)
	if err != nil {
		log.Fatal("error to connect to vector store: ", err)
		return
	}

	embedder := model.NewOllamaEmbedder(cfg.LLM.BaseURL, cfg.Embeddings.Model)
	llm := model.NewOllamaClient(cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.Temperature, cfg.LLM.MaxTokens)
	index := store.NewSchemaIndex(vstore, embedder)

	ag := agent.New(target, vstore, index, llm, pipeline.Config{
		SimilarityThreshold: cfg.RAG.SimilarityThreshold,
		MaxRetrievedDocs:    cfg.RAG.MaxRetrievedDocs,
	}, cfg.App.MaxQueryHistory)

	if serr := ag.Initialize(ctx); serr != nil {
		log.Fatal(fmt.Sprintf("failed to initialize agent at step %q: %v", serr.Step, serr.Err))
		return
	}

	var (
		app            = fiber.New(fiberConfig)
		checkHandler   = api.NewCheckHandler()
		askHandler     = api.NewAskHandler(ag)
		historyHandler = api.NewHistoryHandler(ag)
		schemaHandler  = api.NewSchemaHandler(ag)
		check          = app.Group("/check")
		apiv1          = app.Group("/api/v1")
	)

	check.Get("/healthy", checkHandler.HandleHealthy)
	apiv1.Post("/ask", askHandler.HandleAsk)
	apiv1.Get("/history", historyHandler.HandleHistory)
	apiv1.Delete("/history", historyHandler.HandleClearHistory)
	apiv1.Get("/stats", historyHandler.HandleStats)
	apiv1.Get("/tables", schemaHandler.HandleTables)
	apiv1.Get("/schema", schemaHandler.HandleSummary)
	apiv1.Post("/schema/refresh", schemaHandler.HandleRefresh)

	if err := app.Listen(cfg.Server.Addr); err != nil {
		s.logger.Error("error to start server", "error", err.Error())
		ag.Close()
		return
	}
}
