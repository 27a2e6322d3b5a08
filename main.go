package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"click-client/internal/api"
	"click-client/internal/channels"
	"click-client/internal/contacts"
	"click-client/internal/handlers"
	"click-client/internal/observability"
	"click-client/internal/rabbitmq"
	"click-client/internal/requests"
	"click-client/internal/session"
	"click-client/internal/store"
	"click-client/internal/telemetry"
	"click-client/internal/timeline"
)

func main() {
	ctx := context.Background()

	apiBase := getEnv("API_BASE_URL", "http://localhost:8000")
	wsBase := getEnv("WS_BASE_URL", "ws://localhost:8000/ws")
	dbPath := getEnv("SESSION_DB_PATH", "click-session.db")
	environment := getEnv("ENVIRONMENT", "development")

	shutdownTracing, err := observability.SetupTracing(ctx, getEnv("OTLP_ADDR", ""), environment)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	sessionStore, err := store.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open session store: %v", err)
	}
	defer sessionStore.Close()

	identity, credential, err := sessionStore.Load(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNoSession) {
			log.Fatalf("no persisted session; log in through the click app first")
		}
		log.Fatalf("failed to load session: %v", err)
	}

	sess := session.New()
	sess.Establish(identity, credential)

	publisher := rabbitmq.NewPublisher(getEnv("AMQP_URL", ""), getEnv("AMQP_EXCHANGE", "click_events"))
	defer publisher.Close()
	emitter := telemetry.NewEmitter(publisher, "sync_events.client", "click-sync-client", environment)

	client := api.NewClient(apiBase, sess)
	registry := channels.NewRegistry(wsBase)
	defer registry.CloseAll()

	directory := contacts.New(sess, client)
	tl := timeline.New(sess, client, client, registry, emitter)
	workflow := requests.New(sess, client, client, directory, emitter)

	sess.OnInvalidate(func() {
		username := identity.Username
		emitter.Emit(context.Background(), "session_invalidated", "credential rejected by server", &username)
		if err := sessionStore.Clear(context.Background()); err != nil {
			log.Printf("failed to clear persisted session: %v", err)
		}
		registry.CloseAll()
		log.Printf("session invalidated for %s; log in again", username)
	})

	if err := directory.Refresh(ctx); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			log.Fatalf("stored credential rejected; log in again")
		}
		log.Printf("initial contact refresh failed: %v", err)
	}
	if err := workflow.Refresh(ctx); err != nil {
		log.Printf("initial request refresh failed: %v", err)
	}

	// Notification channels are opened once per session; a drop stops
	// updates until restart.
	if err := registry.Open(ctx, channels.KindContacts, identity.Username, func([]byte) {
		if err := directory.Refresh(context.Background()); err != nil {
			log.Printf("contact refresh failed: %v", err)
		}
	}); err != nil {
		log.Printf("contacts channel unavailable: %v", err)
	}
	if err := registry.Open(ctx, channels.KindRequests, identity.Username, func([]byte) {
		if err := workflow.Refresh(context.Background()); err != nil {
			log.Printf("request refresh failed: %v", err)
		}
	}); err != nil {
		log.Printf("requests channel unavailable: %v", err)
	}

	router := gin.Default()
	router.Use(otelgin.Middleware("click-sync-client"))

	statusHandler := handlers.NewStatusHandler(sess, registry, directory, workflow, tl)
	statusHandler.Register(router)
	handlers.RegisterDebugRoutes(router, emitter, getEnv("DEBUG_ROUTES", "") == "true")

	port := getEnv("STATUS_PORT", "8090")
	log.Printf("click sync client for %s listening on :%s", identity.Username, port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("status server error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
