package cmd

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"event-builder/config"
	"event-builder/internal/handlers"
	"event-builder/internal/services"
	"event-builder/internal/services/eventapi"
	"event-builder/monitoring"
	"event-builder/security"
	"event-builder/utils"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	pubnub "github.com/pubnub/go/v7"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient, err := utils.NewRedisClient(cfg.RedisURL, utils.RedisPool{
		Size:         cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
		MaxRetries:   cfg.RedisMaxRetries,
	})
	if err != nil {
		return err
	}
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	monitor := monitoring.NewMonitor(redisClient)
	go monitor.Run(ctx)
	if cfg.EnableMetrics {
		go func() {
			if err := monitoring.Serve(ctx, cfg.MetricsPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server stopped", "error", err)
			}
		}()
	}

	// Optional integrations stay nil interfaces when not configured.
	var notifier services.Notifier
	if cfg.PubNubPublishKey != "" {
		pnConfig := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.PubNubUUID))
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey
		notifier = services.NewPubNubNotifier(pubnub.NewPubNub(pnConfig))
	}

	var events services.EventPublisher
	if cfg.KafkaURL != "" {
		kafkaPublisher := services.NewKafkaPublisher(cfg.KafkaURL, cfg.KafkaSubmittedTopic)
		defer kafkaPublisher.Close()
		events = kafkaPublisher
	}

	eventAPI := eventapi.NewClient(eventapi.Config{
		BaseURL: cfg.EventAPIURL,
		APIKey:  cfg.EventAPIKey,
		HMACKey: cfg.EventAPIHMACKey,
		Timeout: cfg.SubmissionTimeout,
	})

	// Initialize services
	draftStore := services.NewRedisDraftStore(redisClient, cfg.DraftTTL)
	draftService := services.NewDraftService(draftStore, monitor)
	submissionService := services.NewSubmissionService(
		draftService,
		redisClient,
		eventAPI,
		services.NewPocketBaseSubmissionLog(app),
		events,
		notifier,
		monitor,
		services.SubmissionConfig{Timeout: cfg.SubmissionTimeout, LockTTL: cfg.SubmitLockTTL},
	)
	// a submit holds the draft lock for its whole call to the event API
	draftStore.LockTTL = submissionService.LockTTL

	// Initialize handlers
	draftHandler := handlers.NewDraftHandler(draftService, submissionService)
	limiter := security.NewRateLimiter(redisClient, cfg.RateLimitPerMinute, monitor)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.Environment == "development",
	})

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		api := se.Router.Group("/api/v1")
		api.Bind(apis.RequireAuth(), limiter.AntiBot(), limiter.DraftRateLimit())

		// Draft endpoints
		api.POST("/drafts", draftHandler.CreateDraft)
		api.GET("/drafts/{draftId}", draftHandler.GetDraft)
		api.PATCH("/drafts/{draftId}", draftHandler.UpdateEvent)
		api.DELETE("/drafts/{draftId}", draftHandler.DiscardDraft)

		api.POST("/drafts/{draftId}/profiles", draftHandler.AddProfile)
		api.DELETE("/drafts/{draftId}/profiles/{id}", draftHandler.RemoveProfile)

		api.POST("/drafts/{draftId}/sectors", draftHandler.AddSector)
		api.PATCH("/drafts/{draftId}/sectors/{id}", draftHandler.UpdateSector)
		api.DELETE("/drafts/{draftId}/sectors/{id}", draftHandler.RemoveSector)

		// Phase and price endpoints
		api.POST("/drafts/{draftId}/phases", draftHandler.AddPhase)
		api.PATCH("/drafts/{draftId}/phases/{id}", draftHandler.UpdatePhase)
		api.DELETE("/drafts/{draftId}/phases/{id}", draftHandler.RemovePhase)
		api.POST("/drafts/{draftId}/phases/{id}/duplicate", draftHandler.DuplicatePhase)
		api.PUT("/drafts/{draftId}/phases/{id}/combinations", draftHandler.SetCombination)

		api.POST("/drafts/{draftId}/discounts", draftHandler.AddDiscount)
		api.PATCH("/drafts/{draftId}/discounts/{id}", draftHandler.ToggleDiscount)
		api.DELETE("/drafts/{draftId}/discounts/{id}", draftHandler.RemoveDiscount)
		api.PUT("/drafts/{draftId}/tax", draftHandler.SetTax)

		api.GET("/drafts/{draftId}/summary", draftHandler.GetSummary)

		// Submission endpoints
		api.POST("/drafts/{draftId}/submit", draftHandler.Submit)
		api.GET("/submissions", draftHandler.ListSubmissions)

		// Health check
		se.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(http.StatusOK, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return se.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
