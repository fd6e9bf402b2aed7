package main

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"

	"github.com/retail-assistant/server/internal/agent/graph"
	"github.com/retail-assistant/server/internal/agent/graph/nodes"
	"github.com/retail-assistant/server/internal/agent/graph/tools"
	"github.com/retail-assistant/server/internal/agent/router"
	"github.com/retail-assistant/server/internal/observability"
	"github.com/retail-assistant/server/internal/rag"
	"github.com/retail-assistant/server/internal/retail"
	"github.com/retail-assistant/server/internal/seed"
	"github.com/retail-assistant/server/internal/server"
	"github.com/retail-assistant/server/internal/speech"
	"github.com/retail-assistant/server/internal/store"
	logx "github.com/retail-assistant/server/pkg/logger"
)

func runServe(ctx context.Context, cfg AppConfig) error {
	db, err := cfg.DB.New(ctx, true)
	if err != nil {
		return fmt.Errorf("open store (run setup-db first): %w", err)
	}
	defer db.Close()
	if err := store.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	genaiClient, err := nodes.NewGenAIClient(ctx, cfg.ChatModel)
	if err != nil {
		return err
	}
	chatModel, err := nodes.NewChatModel(ctx, genaiClient, cfg.ChatModel)
	if err != nil {
		return err
	}

	qc, err := cfg.Qdrant.New()
	if err != nil {
		return err
	}
	defer qc.Close()
	index := newPolicyIndex(cfg, genaiClient, qc)

	svc := retail.NewService(store.New(db),
		retail.WithPolicy(index, chatModel),
		retail.WithDefaultUser(cfg.Agent.DefaultUserID),
		retail.WithReturnWindow(cfg.Agent.ReturnWindowDays),
	)

	metrics := observability.NewMetrics()
	var sink observability.Sink = observability.NopSink{}
	var rdb *redis.Client

	// Probes run concurrently; neither dependency is required to answer queries.
	probes, probeCtx := errgroup.WithContext(ctx)
	probes.Go(func() error {
		client, err := cfg.Redis.New(probeCtx)
		if err != nil {
			logx.Warn().Err(err).Msg("Redis unavailable; interactions will not be recorded")
			return nil
		}
		rdb = client
		sink = observability.NewRedisSink(client, cfg.InteractionsKey, cfg.MaxInteractions)
		return nil
	})
	probes.Go(func() error {
		ok, err := index.Exists(probeCtx)
		switch {
		case err != nil:
			logx.Warn().Err(err).Msg("Qdrant unavailable; policy questions will fail")
		case !ok:
			logx.Warn().Str("collection", cfg.RAG.Collection).Msg("Policy collection missing; run setup-rag")
		}
		return nil
	})
	if err := probes.Wait(); err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	runner, err := graph.BuildGraph(ctx, &graph.GraphConfig{
		ChatModel:  chatModel,
		ModelName:  cfg.ChatModel.Model,
		Tools:      tools.NewRetailTools(svc),
		PromptVars: tools.PromptVars(svc.DefaultUser()),
		Agent:      cfg.Agent,
		Recorder:   metrics,
	})
	if err != nil {
		return fmt.Errorf("build agent graph: %w", err)
	}

	chat := server.NewChatService(router.New(svc, svc.DefaultUser()), runner, sink, metrics)

	var opts []server.Option
	if tr := speech.New(cfg.Speech); tr != nil {
		opts = append(opts, server.WithTranscriber(tr))
	} else {
		logx.Info().Msg("GROQ_API_KEY not set; /transcribe disabled")
	}

	return server.New(chat, metrics, cfg.Server, opts...).Run(ctx)
}

func runSetupDB(ctx context.Context, cfg AppConfig) error {
	db, err := cfg.DB.New(ctx, false)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	counts, err := seed.Load(ctx, store.New(db), cfg.Seed)
	if err != nil {
		return err
	}
	logx.Info().
		Str("path", cfg.DB.Path).
		Int("products", counts.Products).
		Int("orders", counts.Orders).
		Msg("SQLite DB created")
	return nil
}

func runSetupRAG(ctx context.Context, cfg AppConfig) error {
	text, err := os.ReadFile(cfg.RAG.PolicyPath)
	if err != nil {
		return fmt.Errorf("read policy: %w", err)
	}

	genaiClient, err := nodes.NewGenAIClient(ctx, cfg.ChatModel)
	if err != nil {
		return err
	}
	qc, err := cfg.Qdrant.New()
	if err != nil {
		return err
	}
	defer qc.Close()

	n, err := newPolicyIndex(cfg, genaiClient, qc).
		Rebuild(ctx, cfg.RAG.PolicyPath, string(text), cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("rebuild policy index: %w", err)
	}
	logx.Info().Str("collection", cfg.RAG.Collection).Int("chunks", n).Msg("Policy index rebuilt")
	return nil
}

func newPolicyIndex(cfg AppConfig, client *genai.Client, points rag.PointStore) *rag.Index {
	docs := rag.NewGeminiEmbedder(client, cfg.RAG.EmbeddingModel, cfg.RAG.EmbeddingDims)
	return rag.NewIndex(points, cfg.RAG.Collection, docs.ForTask(rag.TaskRetrievalQuery), docs)
}
