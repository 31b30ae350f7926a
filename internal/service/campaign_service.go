// internal/service/campaign_service.go
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reviewgarden/outreach-backend/internal/apperrors"
	"github.com/reviewgarden/outreach-backend/internal/dispatch"
	"github.com/reviewgarden/outreach-backend/internal/message"
	"github.com/reviewgarden/outreach-backend/internal/model"
	"github.com/reviewgarden/outreach-backend/internal/optout"
	"github.com/reviewgarden/outreach-backend/internal/queue"
	"github.com/reviewgarden/outreach-backend/internal/report"
	"github.com/reviewgarden/outreach-backend/internal/repository"
	"github.com/reviewgarden/outreach-backend/internal/validate"
)

// DispatchJob is the payload published for queued dispatch. The full
// campaign travels with the job: campaign state is run-scoped, so the
// consumer rebuilds it from the payload rather than from shared storage.
type DispatchJob struct {
	Campaign model.Campaign `json:"campaign"`
}

// CampaignService ties the pipeline together: validate -> generate ->
// dispatch -> aggregate -> log. Campaign state lives in memory for the
// duration of a run; only the history log and opt-outs are persisted.
type CampaignService struct {
	Validator   *validate.Validator
	Generator   *message.Generator
	Dispatcher  *dispatch.Dispatcher
	Registry    *optout.Registry
	HistoryRepo repository.HistoryRepositoryInterface // nil disables the campaign log
	Queue       queue.Queue                           // nil means dispatch runs inline
	Log         zerolog.Logger

	mu         sync.Mutex
	campaigns  map[string]*model.Campaign
	reports    map[string]*model.Report
	dispatched map[string]bool
}

func NewCampaignService(
	validator *validate.Validator,
	generator *message.Generator,
	dispatcher *dispatch.Dispatcher,
	registry *optout.Registry,
	historyRepo repository.HistoryRepositoryInterface,
	q queue.Queue,
	log zerolog.Logger,
) *CampaignService {
	return &CampaignService{
		Validator:   validator,
		Generator:   generator,
		Dispatcher:  dispatcher,
		Registry:    registry,
		HistoryRepo: historyRepo,
		Queue:       q,
		Log:         log,
		campaigns:   make(map[string]*model.Campaign),
		reports:     make(map[string]*model.Report),
		dispatched:  make(map[string]bool),
	}
}

// CreateCampaign validates the raw rows and registers a new campaign. A
// SchemaError (missing column, empty dataset) aborts: nothing is stored and
// no rows are returned.
func (s *CampaignService) CreateCampaign(name string, testMode bool, header []string, rows [][]string) (*model.Campaign, error) {
	recipients, issues, err := s.Validator.Validate(header, rows)
	if err != nil {
		return nil, err
	}

	c := &model.Campaign{
		ID:         uuid.NewString(),
		Name:       name,
		Channel:    "sms",
		TestMode:   testMode,
		CreatedAt:  time.Now(),
		Recipients: recipients,
		Issues:     issues,
	}

	s.mu.Lock()
	s.campaigns[c.ID] = c
	s.mu.Unlock()

	s.Log.Info().Str("campaign", c.ID).Str("name", name).
		Int("recipients", len(recipients)).Int("warnings", len(issues)).
		Bool("test_mode", testMode).Msg("campaign created")
	return c, nil
}

// ImportCampaign registers an already-validated campaign, e.g. one received
// from a dispatch job.
func (s *CampaignService) ImportCampaign(c *model.Campaign) {
	s.mu.Lock()
	s.campaigns[c.ID] = c
	s.mu.Unlock()
}

func (s *CampaignService) Get(id string) (*model.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, apperrors.NewCampaignNotFound(id)
	}
	return c, nil
}

// EnqueueDispatch publishes the campaign as a dispatch job. Returns an error
// when no queue is configured; the caller should then dispatch inline. The
// channel-configured check happens here, not in the consumer: a run that can
// never start must be refused before it is accepted as queued.
func (s *CampaignService) EnqueueDispatch(id string) error {
	if s.Queue == nil {
		return fmt.Errorf("no queue configured")
	}
	c, err := s.Get(id)
	if err != nil {
		return err
	}
	if !c.TestMode && s.Dispatcher.Channel == nil {
		return apperrors.NewChannelNotConfigured()
	}
	if err := s.claimDispatch(c); err != nil {
		return err
	}
	return s.Queue.Publish(queue.TopicCampaignDispatch, DispatchJob{Campaign: *c})
}

// Dispatch runs the campaign to completion: one terminal status per
// recipient, then aggregation and the history log entry. Each campaign can
// be dispatched at most once.
func (s *CampaignService) Dispatch(ctx context.Context, id string) (*model.Report, error) {
	c, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !c.TestMode && s.Dispatcher.Channel == nil {
		return nil, apperrors.NewChannelNotConfigured()
	}
	if err := s.claimDispatch(c); err != nil {
		return nil, err
	}
	return s.run(ctx, c)
}

// DispatchImported is the queued-job path: the campaign was claimed when the
// job was published.
func (s *CampaignService) DispatchImported(ctx context.Context, c *model.Campaign) (*model.Report, error) {
	s.ImportCampaign(c)
	if !c.TestMode && s.Dispatcher.Channel == nil {
		return nil, apperrors.NewChannelNotConfigured()
	}
	return s.run(ctx, c)
}

func (s *CampaignService) claimDispatch(c *model.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dispatched[c.ID] {
		return fmt.Errorf("campaign %s already dispatched", c.ID)
	}
	s.dispatched[c.ID] = true
	return nil
}

func (s *CampaignService) run(ctx context.Context, c *model.Campaign) (*model.Report, error) {
	start := time.Now()
	messages := s.renderMessages(ctx, c)

	results, runErr := s.Dispatcher.Run(ctx, c, messages)

	status := "completed"
	if runErr != nil {
		status = "cancelled"
	}

	rep := report.Aggregate(c, results, s.Registry.All(), time.Now())

	s.mu.Lock()
	c.Results = results
	s.reports[c.ID] = rep
	s.mu.Unlock()

	if s.HistoryRepo != nil {
		entry := report.HistoryEntry(c, rep, status)
		if err := s.HistoryRepo.Append(&entry); err != nil {
			s.Log.Error().Err(err).Str("campaign", c.ID).Msg("failed to append campaign history")
		}
	}

	s.Log.Info().Str("campaign", c.ID).Str("status", status).
		Int("sent", rep.Summary.Sent).Int("failed", rep.Summary.Failed).
		Int("skipped", rep.Summary.Skipped).Int("opted_out", rep.Summary.OptedOut).
		Dur("elapsed", time.Since(start)).Msg("dispatch finished")

	// A cancelled run still returns its partial aggregates.
	return rep, nil
}

// renderMessages generates one message per dispatchable recipient, in row
// order. Rows the dispatcher will skip anyway get no message.
func (s *CampaignService) renderMessages(ctx context.Context, c *model.Campaign) []*model.Message {
	messages := make([]*model.Message, len(c.Recipients))
	for i := range c.Recipients {
		rec := &c.Recipients[i]
		if rec.CustomerName == "" || rec.Phone == "" {
			continue
		}
		msg, err := s.Generator.Render(ctx, *rec)
		if err != nil {
			s.Log.Warn().Err(err).Int("row", rec.Row).Msg("message generation failed")
			continue
		}
		messages[i] = &msg
	}
	return messages
}

func (s *CampaignService) Report(id string) (*model.Report, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rep, ok := s.reports[id]
	if !ok {
		return nil, fmt.Errorf("campaign %s has not been dispatched", id)
	}
	return rep, nil
}

func (s *CampaignService) Segments(id string) ([]report.Segment, error) {
	c, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return report.Segments(c.Recipients, time.Now()), nil
}

// HandleInbound applies STOP/START commands from a destination. The reply,
// when present, should be sent back on the same channel.
func (s *CampaignService) HandleInbound(from, body string) (string, bool) {
	reply, handled := s.Registry.HandleInbound(from, body)
	if handled {
		s.Log.Info().Str("from", from).Msg("inbound command processed")
	}
	return reply, handled
}

func (s *CampaignService) History(limit int) ([]model.HistoryEntry, error) {
	if s.HistoryRepo == nil {
		return []model.HistoryEntry{}, nil
	}
	return s.HistoryRepo.List(limit)
}

func (s *CampaignService) HistorySummary() (*model.HistorySummary, error) {
	summary := &model.HistorySummary{}
	if s.HistoryRepo != nil {
		var err error
		summary, err = s.HistoryRepo.Summary()
		if err != nil {
			return nil, err
		}
	}
	summary.OptOuts = s.Registry.Count()
	return summary, nil
}
