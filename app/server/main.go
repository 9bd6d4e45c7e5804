package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/callsight/callsight/config"
	"github.com/callsight/callsight/internal/api/handlers"
	"github.com/callsight/callsight/internal/api/middleware"
	"github.com/callsight/callsight/internal/api/routes"
	"github.com/callsight/callsight/internal/audio"
	"github.com/callsight/callsight/internal/cache"
	"github.com/callsight/callsight/internal/logger"
	"github.com/callsight/callsight/internal/providers/llm"
	"github.com/callsight/callsight/internal/providers/stt"
	mongorepo "github.com/callsight/callsight/internal/repositories/mongo"
	pgrepo "github.com/callsight/callsight/internal/repositories/postgres"
	"github.com/callsight/callsight/internal/services"
	"github.com/callsight/callsight/internal/storage"
	"github.com/callsight/callsight/internal/workers"
)

func main() {
	_ = godotenv.Load()

	lg := logger.New()
	ctx := context.Background()

	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	lg.Info("PostgreSQL connected")

	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		log.Fatalf("MongoDB index error: %v", err)
	}
	lg.Info("MongoDB connected")

	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	lg.Info("Redis connected")

	settings := config.LoadSettings()

	// Object store: GCS when a bucket is configured, local disk otherwise.
	var store storage.ObjectStore
	if settings.AudioBucket != "" {
		gcs, err := storage.NewGCSStore(ctx, settings.AudioBucket)
		if err != nil {
			log.Fatalf("GCS init error: %v", err)
		}
		defer gcs.Close()
		store = gcs
	} else {
		local, err := storage.NewLocalStore(settings.AudioLocalDir)
		if err != nil {
			log.Fatalf("local store init error: %v", err)
		}
		store = local
		lg.WithField("dir", settings.AudioLocalDir).Warn("no AUDIO_BUCKET set, storing audio on local disk")
	}

	// STT: Google Speech when enabled, scripted transcripts otherwise.
	var sttProvider stt.Provider
	if settings.GoogleSTTEnabled {
		gs, err := stt.NewGoogleSpeech(ctx)
		if err != nil {
			log.Fatalf("Google Speech init error: %v", err)
		}
		defer gs.Close()
		sttProvider = gs
	} else {
		sttProvider = stt.NewScripted()
		lg.Warn("GOOGLE_STT_ENABLED is off, using scripted transcripts")
	}

	// Analyzer: Vertex Gemini when a project is configured, keyword matching
	// otherwise.
	var analyzer llm.Analyzer
	if settings.VertexProjectID != "" {
		vg, err := llm.NewVertexGemini(ctx, settings.VertexProjectID, settings.VertexLocation, settings.VertexModel)
		if err != nil {
			log.Fatalf("Vertex init error: %v", err)
		}
		defer vg.Close()
		analyzer = vg
	} else {
		analyzer = llm.NewKeyword()
		lg.Warn("VERTEX_PROJECT_ID is not set, using keyword analyzer")
	}

	// Repositories
	callRepo := pgrepo.NewCallRepo(config.PostgresDB)
	criterionRepo := pgrepo.NewCriterionRepo(config.PostgresDB)
	resultRepo := pgrepo.NewResultRepo(config.PostgresDB)
	alertRepo := pgrepo.NewAlertRepo(config.PostgresDB)
	agentRepo := pgrepo.NewAgentRepo(config.PostgresDB)

	mongoDB := config.MongoClient.Database(envOr("MONGO_DB", "callsight"))
	transcriptRepo := mongorepo.NewTranscriptRepo(mongoDB)

	// Services
	criteriaSvc := services.NewCriteriaService(criterionRepo,
		cache.NewRedisCache(config.RedisClient), settings.CriteriaCacheTTL, lg)
	transcriberSvc := services.NewTranscriptionService(sttProvider, settings.STTTimeout, lg)
	analysisSvc := services.NewAnalysisService(analyzer, settings.RiskWords, settings.LLMTimeout, lg)
	alertSvc := services.NewAlertService(alertRepo, settings.LowScoreThreshold, settings.LongCallThresholdS, lg)
	resolver := audio.NewResolver(store, lg)

	pipeline := services.NewPipelineService(services.PipelineDeps{
		Calls:       callRepo,
		Agents:      agentRepo,
		Results:     resultRepo,
		Alerts:      alertRepo,
		Transcripts: transcriptRepo,
		Criteria:    criteriaSvc,
		Transcriber: transcriberSvc,
		Analyzer:    analysisSvc,
		AlertEngine: alertSvc,
		Resolver:    resolver,
		Notifier:    services.NewRedisNotifier(config.RedisClient),
		Language:    settings.DefaultLanguage,
		Logger:      lg,
	})

	retentionSvc := services.NewRetentionService(callRepo, resultRepo, alertRepo,
		transcriptRepo, store, settings.RetentionDays, lg)

	// Workers
	callPool := &workers.CallWorkerPool{
		Redis:      config.RedisClient,
		Pipeline:   pipeline,
		NumWorkers: settings.IngestWorkers,
		Logger:     lg,
		Stream:     settings.IngestStream,
		Group:      settings.IngestGroup,
	}
	if err := callPool.Start(ctx); err != nil {
		log.Fatalf("call worker init error: %v", err)
	}

	retentionWorker := &workers.RetentionWorker{
		Retention: retentionSvc,
		Interval:  settings.RetentionInterval,
		Logger:    lg,
	}
	if err := retentionWorker.Start(ctx); err != nil {
		log.Fatalf("retention worker init error: %v", err)
	}

	// HTTP
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(lg))

	routes.RegisterRoutes(r, routes.Deps{
		Calls:    handlers.NewCallHandler(pipeline, config.RedisClient, settings.IngestStream),
		Criteria: handlers.NewCriteriaHandler(criteriaSvc),
		Alerts:   handlers.NewAlertHandler(alertRepo),
		WS:       handlers.NewWSHandler(pipeline, config.RedisClient),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
