package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"newsrag/internal/cleaner"
	"newsrag/internal/config"
	"newsrag/internal/dedupe"
	"newsrag/internal/domain"
	"newsrag/internal/embedding/hashing"
	"newsrag/internal/embedding/openai"
	"newsrag/internal/events"
	"newsrag/internal/fetcher"
	"newsrag/internal/llm"
	"newsrag/internal/logger"
	"newsrag/internal/service"
	"newsrag/internal/sources"
	"newsrag/internal/summarizer"
	"newsrag/internal/validator"
	"newsrag/internal/vectorstore/local"
	"newsrag/internal/vectorstore/memory"
	"newsrag/internal/vectorstore/pgvector"
	"newsrag/internal/vectorstore/qdrant"
)

// app holds the assembled components and everything that needs closing.
type app struct {
	manager  *service.Manager
	answerer *service.Answerer
	store    domain.VectorStore
	closers  []func() error
}

func (a *app) Close(log *logger.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn("close failed", "error", err)
		}
	}
}

func secs(n int) time.Duration { return time.Duration(n) * time.Second }

func buildApp(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) (*app, error) {
	a := &app{}
	fail := func(err error) (*app, error) {
		a.Close(log)
		return nil, err
	}

	emb, err := buildEmbedder(cfg)
	if err != nil {
		return fail(err)
	}

	store, err := buildStore(ctx, cfg, emb, log)
	if err != nil {
		return fail(err)
	}
	a.store = store
	a.closers = append(a.closers, store.Close)

	index, err := buildDedupe(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	a.closers = append(a.closers, index.Close)

	pub := buildPublisher(cfg)
	a.closers = append(a.closers, pub.Close)

	gen, llmOK := buildGenerator(cfg, log)

	rel, err := buildRelevance(cfg, gen)
	if err != nil {
		return fail(err)
	}

	sum := summarizer.NewFrequencySummarizer()
	val := validator.New(emb, store, index, rel, validator.Config{
		MinChars:           cfg.Validator.MinChars,
		MinWords:           cfg.Validator.MinWords,
		DuplicateThreshold: cfg.Validator.DuplicateThreshold,
	}, log)

	srcs := make([]sources.Source, len(cfg.Sources))
	for i, s := range cfg.Sources {
		srcs[i] = sources.Source{Name: s.Name, URL: s.URL, Feed: s.Feed, MaxItems: s.MaxItems}
	}

	a.manager = service.NewManager(service.Deps{
		Fetcher: fetcher.New(fetcher.Config{
			Timeout:   secs(cfg.Fetcher.TimeoutSecs),
			UserAgent: cfg.Fetcher.UserAgent,
			MaxBodyKB: cfg.Fetcher.MaxBodyKB,
		}),
		Cleaner:    cleaner.New(gen, cleaner.Config{Enabled: cfg.Cleaner.Enabled && llmOK, MaxInputChars: cfg.Cleaner.MaxInputChars}),
		Validator:  val,
		Embedder:   emb,
		Store:      store,
		Summarizer: sum,
		Publisher:  pub,
		Resolver:   sources.NewResolver(secs(cfg.Fetcher.TimeoutSecs), cfg.Fetcher.UserAgent),
	}, srcs, cfg.RAG.SummarySentences, log)

	a.answerer = service.NewAnswerer(emb, store, gen, sum, service.AnswerConfig{
		TopK:            cfg.RAG.TopK,
		MaxContextChars: cfg.RAG.MaxContextChars,
		NoDataAnswer:    cfg.RAG.NoDataAnswer,
	}, log)
	return a, nil
}

func buildEmbedder(cfg *config.AppConfig) (domain.Embedder, error) {
	switch cfg.Embedder.Type {
	case "hashing", "":
		return hashing.NewEmbedder(cfg.Embedder.Dimension), nil
	case "openai":
		oc := cfg.Embedder.OpenAI
		if oc == nil {
			return nil, errors.New("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   oc.BaseURL,
			APIKeyEnv: oc.APIKeyEnv,
			Model:     oc.Model,
			Timeout:   secs(oc.TimeoutSecs),
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownEmbedder, cfg.Embedder.Type)
	}
}

func buildStore(ctx context.Context, cfg *config.AppConfig, emb domain.Embedder, log *logger.Logger) (domain.VectorStore, error) {
	vs := cfg.VectorStore
	switch vs.Type {
	case "local", "":
		return local.Open(vs.Dir, vs.Collection, emb.Name(), log.Component("local"))
	case "memory":
		return memory.NewStorage(), nil
	case "qdrant":
		if vs.Qdrant == nil {
			return nil, config.ErrMissingQdrantURL
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:        vs.Qdrant.URL,
			APIKey:     vs.Qdrant.APIKey,
			Collection: vs.Collection,
			Timeout:    secs(vs.Qdrant.TimeoutSecs),
		}), nil
	case "pgvector":
		if vs.PGVector == nil {
			return nil, config.ErrMissingPGDSN
		}
		return pgvector.Open(ctx, vs.PGVector.DSN, vs.Collection)
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownStore, vs.Type)
	}
}

func buildDedupe(ctx context.Context, cfg *config.AppConfig) (dedupe.Index, error) {
	switch cfg.Dedupe.Type {
	case "memory", "":
		return dedupe.NewMemory(), nil
	case "redis":
		rc := cfg.Dedupe.Redis
		if rc == nil {
			return nil, errors.New("dedupe.redis config missing")
		}
		return dedupe.NewRedis(ctx, dedupe.RedisConfig{Addr: rc.Addr, Password: rc.Password, DB: rc.DB, Key: rc.Key})
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownDedupe, cfg.Dedupe.Type)
	}
}

func buildPublisher(cfg *config.AppConfig) events.Publisher {
	if cfg.Events.Type == "kafka" && cfg.Events.Kafka != nil {
		return events.NewKafka(events.KafkaConfig{Brokers: cfg.Events.Kafka.Brokers, Topic: cfg.Events.Kafka.Topic})
	}
	return events.Noop{}
}

// buildGenerator returns the chat client, or a generator that always fails
// when no token is configured, so answers degrade instead of the service
// refusing to start.
func buildGenerator(cfg *config.AppConfig, log *logger.Logger) (domain.Generator, bool) {
	client, err := llm.NewClient(llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey(),
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     secs(cfg.LLM.TimeoutSecs),
	})
	if err != nil {
		log.Warn("LLM disabled", "env", cfg.LLM.APIKeyEnv, "error", err)
		return domain.GeneratorFunc(func(context.Context, string) (string, error) {
			return "", &domain.LLMCallError{Op: "generate", Err: err}
		}), false
	}
	return client, true
}

func buildRelevance(cfg *config.AppConfig, gen domain.Generator) (validator.Relevance, error) {
	rc := cfg.Validator.Relevance
	switch rc.Type {
	case "none", "":
		return nil, nil
	case "keywords":
		return validator.Keywords{Words: rc.Keywords, MinHits: rc.MinHits}, nil
	case "llm":
		return validator.LLMRelevance{LLM: gen}, nil
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownRelevance, rc.Type)
	}
}
