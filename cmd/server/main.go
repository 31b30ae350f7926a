// cmd/server/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/reviewgarden/outreach-backend/internal/channel"
	"github.com/reviewgarden/outreach-backend/internal/config"
	"github.com/reviewgarden/outreach-backend/internal/controller"
	"github.com/reviewgarden/outreach-backend/internal/db"
	"github.com/reviewgarden/outreach-backend/internal/dispatch"
	"github.com/reviewgarden/outreach-backend/internal/message"
	"github.com/reviewgarden/outreach-backend/internal/optout"
	"github.com/reviewgarden/outreach-backend/internal/queue"
	"github.com/reviewgarden/outreach-backend/internal/ratelimit"
	"github.com/reviewgarden/outreach-backend/internal/repository"
	"github.com/reviewgarden/outreach-backend/internal/service"
	"github.com/reviewgarden/outreach-backend/internal/validate"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("no .env file found, relying on OS environment variables")
	}

	cfg := config.Load()
	log := newLogger(cfg.LogLevel)

	var optOutStore optout.Store
	var historyRepo repository.HistoryRepositoryInterface
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer conn.Close()
		optOutStore = &repository.OptOutRepository{DB: conn}
		historyRepo = &repository.HistoryRepository{DB: conn}
	} else {
		log.Warn().Msg("DATABASE_URL not set; campaign history and opt-out persistence disabled")
	}

	registry := optout.NewRegistry(optOutStore, log)
	if err := registry.Load(context.Background()); err != nil {
		log.Error().Err(err).Msg("failed to load persisted opt-outs")
	}
	log.Info().Int("opt_outs", registry.Count()).Msg("opt-out registry loaded")

	var ch channel.Channel
	if cfg.Gateway.Configured() {
		ch = channel.NewGateway(cfg.Gateway.AccountSID, cfg.Gateway.AuthToken, cfg.Gateway.From, cfg.Gateway.BaseURL, log)
	} else {
		log.Warn().Msg("SMS gateway not configured; only test-mode dispatch will work")
	}

	var textGen message.TextGenerator
	if cfg.TextGen.Configured() {
		textGen = message.NewGenClient(cfg.TextGen.APIKey, cfg.TextGen.Model, cfg.TextGen.BaseURL)
	}

	pack := message.DefaultPack()
	if cfg.TemplatePack != "" {
		loaded, err := message.LoadPack(cfg.TemplatePack)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.TemplatePack).Msg("failed to load template pack")
		}
		pack = loaded
	}
	generator := message.NewGenerator(pack, message.TierPolicy(cfg.TierPolicy), textGen, log)

	dispatcher := dispatch.NewDispatcher(ch, ratelimit.New(cfg.HourlyLimit, cfg.BurstLimit), registry, log)
	dispatcher.Workers = cfg.Workers
	dispatcher.DedupePhones = cfg.DuplicatePolicy == "dedupe"
	dispatcher.OnProgress = func(p dispatch.Progress) {
		log.Debug().Int("done", p.Done).Int("total", p.Total).
			Int("sent", p.Sent).Int("failed", p.Failed).
			Dur("eta", p.ETA).Msg("dispatch progress")
	}

	var q queue.Queue
	var closeQueue func()
	if cfg.AMQPURL != "" {
		amqpQueue, closer, err := queue.NewAMQPQueue(cfg.AMQPURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to AMQP broker")
		}
		q = amqpQueue
		closeQueue = closer
	} else {
		q = queue.NewInMemoryQueue(log)
	}
	if closeQueue != nil {
		defer closeQueue()
	}

	svc := service.NewCampaignService(
		validate.NewValidator(cfg.CountryCode, registry),
		generator, dispatcher, registry, historyRepo, q, log,
	)

	// With the in-memory queue, queued campaigns run inside this process.
	if mem, ok := q.(*queue.InMemoryQueue); ok {
		mem.Subscribe(queue.TopicCampaignDispatch, func(payload any) error {
			job, ok := payload.(service.DispatchJob)
			if !ok {
				raw, err := json.Marshal(payload)
				if err != nil {
					return err
				}
				if err := json.Unmarshal(raw, &job); err != nil {
					return err
				}
			}
			_, err := svc.DispatchImported(context.Background(), &job.Campaign)
			return err
		})
	}

	campaignController := &controller.CampaignController{Service: svc, Log: log}

	r := chi.NewRouter()
	r.Post("/campaigns", campaignController.CreateCampaign)
	r.Get("/campaigns/{id}", campaignController.GetCampaign)
	r.Post("/campaigns/{id}/dispatch", campaignController.DispatchCampaign)
	r.Get("/campaigns/{id}/report", campaignController.GetReport)
	r.Get("/campaigns/{id}/segments", campaignController.GetSegments)
	r.Get("/history", campaignController.ListHistory)
	r.Get("/history/summary", campaignController.HistorySummary)
	r.Post("/webhooks/inbound", campaignController.InboundWebhook)

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Msg("server running")
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).With().Timestamp().Logger()
}
