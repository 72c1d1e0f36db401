package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/HongCH-code/Notes-Assistant/cmd/mainconfig"
	"github.com/HongCH-code/Notes-Assistant/internal/api/router"
	"github.com/HongCH-code/Notes-Assistant/internal/channels/line"
	"github.com/HongCH-code/Notes-Assistant/internal/config"
	"github.com/HongCH-code/Notes-Assistant/internal/dedupe"
	"github.com/HongCH-code/Notes-Assistant/internal/enrich"
	"github.com/HongCH-code/Notes-Assistant/internal/notes"
	"github.com/HongCH-code/Notes-Assistant/internal/objectstore"
	"github.com/HongCH-code/Notes-Assistant/internal/observability/metrics"
	"github.com/HongCH-code/Notes-Assistant/pkg/logging"
)

func main() {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting notes-assistant",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lineClient, err := line.New(line.Config{
		AccessToken:    cfg.LineChannelAccessToken,
		APIBaseURL:     cfg.LineAPIBaseURL,
		DataAPIBaseURL: cfg.LineDataAPIBaseURL,
		Logger:         logger.Logger,
	})
	if err != nil {
		logger.Error("failed to create LINE client", "error", err)
		os.Exit(1)
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	noteStore := notes.NewStore(dynamodb.NewFromConfig(awsCfg), cfg.NotesTable, logger)

	var jobQueue notes.Queue
	if cfg.UseSQSQueue {
		jobQueue = notes.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.NoteQueueURL)
	} else {
		jobQueue = notes.NewMemoryQueue(cfg.QueueBufferLen)
	}

	gemini, err := enrich.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
	if err != nil {
		logger.Error("failed to create Gemini client", "error", err)
		os.Exit(1)
	}
	defer gemini.Close()

	var llm enrich.LLMClient = gemini
	if cfg.BedrockModelID != "" {
		bedrock := enrich.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg))
		llm = enrich.NewFallbackLLMClient(gemini, bedrock, logger.Logger)
	}
	classifier := enrich.NewClassifier(llm, gemini, cfg.BedrockModelID)

	whisper, err := enrich.NewWhisperClient(enrich.WhisperConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.TranscriptionModel,
	})
	if err != nil {
		logger.Error("failed to create transcription client", "error", err)
		os.Exit(1)
	}

	var uploader notes.Uploader
	if !cfg.DisableImageUploads {
		uploader = objectstore.NewUploader(s3.NewFromConfig(awsCfg), cfg.ImageBucket, cfg.AWSRegion, cfg.ImageKeyPrefix, logger.Logger)
	}

	registry := prometheus.NewRegistry()
	pipelineMetrics := metrics.NewPipelineMetrics(registry)

	pipeline := notes.NewPipeline(notes.PipelineConfig{
		Fetcher:            lineClient,
		Transcriber:        whisper,
		Summarizer:         classifier,
		Tagger:             classifier,
		Vision:             classifier,
		Uploader:           uploader,
		Store:              noteStore,
		Messenger:          lineClient,
		Logger:             logger,
		TranscribeLanguage: cfg.TranscribeLanguage,
	})

	worker := notes.NewWorker(pipeline, jobQueue, logger,
		notes.WithWorkerCount(cfg.WorkerCount),
		notes.WithWorkerMetrics(pipelineMetrics),
	)
	worker.Start(ctx)

	publisher := notes.NewPublisher(jobQueue, logger)

	dispatcherOpts := []notes.DispatcherOption{
		notes.WithDispatcherMetrics(pipelineMetrics),
	}
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		dispatcherOpts = append(dispatcherOpts, notes.WithProcessedEventStore(dedupe.NewStore(redisClient, 0)))
	}
	dispatcher := notes.NewDispatcher(publisher, lineClient, logger, dispatcherOpts...)

	webhook := line.NewWebhookHandler(cfg.LineChannelSecret, func(evt line.InboundEvent) {
		dispatcher.HandleEvent(context.Background(), evt)
	}, logger)

	r := router.New(&router.Config{
		Logger:         logger,
		Webhook:        webhook,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	// Stop the workers and drain in-flight jobs.
	cancel()
	worker.Wait()

	logger.Info("server stopped")
}
