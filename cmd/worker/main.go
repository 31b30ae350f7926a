// cmd/worker/main.go
package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/reviewgarden/outreach-backend/internal/channel"
	"github.com/reviewgarden/outreach-backend/internal/config"
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

const maxRetries = 3

func main() {
	// A missing .env is fine; the supervisor usually injects the environment.
	_ = godotenv.Load()

	cfg := config.Load()
	log := zerolog.New(os.Stderr).Level(zerolog.InfoLevel).With().Timestamp().Str("proc", "worker").Logger()

	if cfg.AMQPURL == "" {
		log.Fatal().Msg("AMQP_URL is required for the worker")
	}

	svc := buildService(cfg, log)

	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to AMQP broker")
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open channel")
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(queue.TopicCampaignDispatch, true, false, false, false, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to declare queue")
	}

	msgs, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register consumer")
	}

	log.Info().Str("queue", q.Name).Msg("worker running, waiting for dispatch jobs")

	for d := range msgs {
		var job service.DispatchJob
		if err := json.Unmarshal(d.Body, &job); err != nil {
			log.Error().Err(err).Msg("invalid job payload, dropping")
			d.Ack(false)
			continue
		}

		rep, err := svc.DispatchImported(context.Background(), &job.Campaign)
		if err != nil {
			attempt := retryCount(d.Headers)
			log.Error().Err(err).Str("campaign", job.Campaign.ID).Int32("attempt", attempt).Msg("dispatch failed")
			if attempt < maxRetries {
				// Republish with the incremented header: a bare Nack requeue
				// keeps the original headers, so the retry cap would never
				// trip.
				if perr := ch.Publish("", q.Name, false, false, retryPublishing(d.Body, attempt+1)); perr != nil {
					log.Error().Err(perr).Msg("failed to republish job, requeueing as-is")
					d.Nack(false, true)
					continue
				}
			} else {
				log.Error().Str("campaign", job.Campaign.ID).Msg("job permanently failed, dropping")
			}
			d.Ack(false)
			continue
		}

		log.Info().Str("campaign", job.Campaign.ID).
			Int("sent", rep.Summary.Sent).Int("failed", rep.Summary.Failed).
			Msg("dispatch job completed")
		d.Ack(false)
	}
}

// retryCount reads the x-retry-count header; a fresh job carries none.
func retryCount(headers amqp.Table) int32 {
	if v, ok := headers["x-retry-count"].(int32); ok {
		return v
	}
	return 0
}

// retryPublishing rebuilds a failed job for redelivery with the retry
// header set to the given attempt number.
func retryPublishing(body []byte, attempt int32) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Headers:      amqp.Table{"x-retry-count": attempt},
		Body:         body,
	}
}

func buildService(cfg config.Config, log zerolog.Logger) *service.CampaignService {
	var optOutStore optout.Store
	var historyRepo repository.HistoryRepositoryInterface
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		optOutStore = &repository.OptOutRepository{DB: conn}
		historyRepo = &repository.HistoryRepository{DB: conn}
	}

	registry := optout.NewRegistry(optOutStore, log)
	loadCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := registry.Load(loadCtx); err != nil {
		log.Error().Err(err).Msg("failed to load persisted opt-outs")
	}

	var ch channel.Channel
	if cfg.Gateway.Configured() {
		ch = channel.NewGateway(cfg.Gateway.AccountSID, cfg.Gateway.AuthToken, cfg.Gateway.From, cfg.Gateway.BaseURL, log)
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

	dispatcher := dispatch.NewDispatcher(ch, ratelimit.New(cfg.HourlyLimit, cfg.BurstLimit), registry, log)
	dispatcher.Workers = cfg.Workers
	dispatcher.DedupePhones = cfg.DuplicatePolicy == "dedupe"

	return service.NewCampaignService(
		validate.NewValidator(cfg.CountryCode, registry),
		message.NewGenerator(pack, message.TierPolicy(cfg.TierPolicy), textGen, log),
		dispatcher, registry, historyRepo, nil, log,
	)
}
