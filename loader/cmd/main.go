// The loader introspects the target database, formats the schema as natural
// language documents and embeds them into the vector store. One-shot: run it
// once before the server, or again after the schema changes.
package main

import (
	"context"
	"log"
	"os"

	"ragsql/config"
	"ragsql/db"
	"ragsql/model"
	"ragsql/store"

	"github.com/joho/godotenv"
)

func init() {
	loadEnvVariables()
}

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal("Error loading configuration: ", err)
	}

	ctx := context.Background()

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
	}
	defer target.Close()

	vstore, err := store.NewPostgresStore(ctx, cfg.VectorStore.ConnString(), cfg.Embeddings.Dimension)
	if err != nil {
		log.Fatal("error to connect to vector store: ", err)
	}
	defer vstore.Close()

	if err := vstore.Init(ctx); err != nil {
		log.Fatal("error to create tables: ", err)
	}

	info, err := target.SchemaInfo(ctx)
	if err != nil {
		log.Fatal("error to introspect schema: ", err)
	}

	docs := db.BuildSchemaDocuments(info)
	log.Printf("[LOADER] Built %d schema documents from %d tables and %d views",
		len(docs), len(info.Tables), len(info.Views))

	embedder := model.NewOllamaEmbedder(cfg.LLM.BaseURL, cfg.Embeddings.Model)
	index := store.NewSchemaIndex(vstore, embedder)

	if err := index.EmbedAndReplace(ctx, docs); err != nil {
		log.Fatal("error to embed schema documents: ", err)
	}

	summary, err := vstore.Summary(ctx)
	if err != nil {
		log.Fatal("error to read store summary: ", err)
	}
	log.Printf("[LOADER] Vector store now holds %d documents (%d tables, %d views, %d relationship docs)",
		summary.TotalDocuments, summary.Tables, summary.Views, summary.Relationships)
}

func loadEnvVariables() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
}
