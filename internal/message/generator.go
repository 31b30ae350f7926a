// internal/message/generator.go
package message

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/reviewgarden/outreach-backend/internal/model"
)

// TierPolicy decides how a template is chosen when several tiers apply.
type TierPolicy string

const (
	// TierPolicyPool picks uniformly across the variants of every
	// applicable tier.
	TierPolicyPool TierPolicy = "pool"
	// TierPolicySpecific only considers the most specific applicable tier.
	TierPolicySpecific TierPolicy = "specific"
)

// Generator renders one personalized message per recipient. When a
// TextGenerator is configured it is tried first; any failure falls back to
// the deterministic local template path. Not safe for concurrent use: render
// messages before handing them to the dispatcher.
type Generator struct {
	Pack    *Pack
	Policy  TierPolicy
	TextGen TextGenerator
	Timeout time.Duration

	Rand  *rand.Rand
	Clock func() time.Time
	Log   zerolog.Logger
}

func NewGenerator(pack *Pack, policy TierPolicy, textGen TextGenerator, log zerolog.Logger) *Generator {
	if pack == nil {
		pack = DefaultPack()
	}
	if policy == "" {
		policy = TierPolicyPool
	}
	return &Generator{
		Pack:    pack,
		Policy:  policy,
		TextGen: textGen,
		Timeout: defaultGenTimeout,
		Rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
		Clock:   time.Now,
		Log:     log,
	}
}

// Render produces the message for one recipient. The review link and opt-out
// suffix are appended at send time, not here.
func (g *Generator) Render(ctx context.Context, rec model.Recipient) (model.Message, error) {
	if g.TextGen != nil {
		if msg, ok := g.tryExternal(ctx, rec); ok {
			return msg, nil
		}
	}
	return g.renderLocal(rec)
}

func (g *Generator) tryExternal(ctx context.Context, rec model.Recipient) (model.Message, bool) {
	genCtx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	text, err := g.TextGen.Generate(genCtx, buildPrompt(rec))
	if err != nil {
		g.Log.Warn().Err(err).Int("row", rec.Row).Msg("text generation failed, falling back to templates")
		return model.Message{}, false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		g.Log.Warn().Int("row", rec.Row).Msg("text generation returned empty body, falling back to templates")
		return model.Message{}, false
	}
	return model.Message{Row: rec.Row, Body: text, TemplateID: "ai"}, true
}

func buildPrompt(rec model.Recipient) string {
	service := "their recent visit"
	if rec.ServiceType != nil {
		service = "their " + *rec.ServiceType
	}
	return fmt.Sprintf(
		"Write a short, friendly SMS asking %s to leave a review for %s about %s. One or two sentences, no links, no sign-off.",
		rec.FirstName(), rec.BusinessName, service,
	)
}

func (g *Generator) renderLocal(rec model.Recipient) (model.Message, error) {
	tiers := applicableTiers(rec)
	if g.Policy == TierPolicySpecific {
		tiers = tiers[:1]
	}

	type variant struct {
		tier string
		idx  int
		text string
	}
	var pool []variant
	for _, tier := range tiers {
		for i, text := range g.Pack.tier(tier) {
			pool = append(pool, variant{tier: tier, idx: i, text: text})
		}
	}
	if len(pool) == 0 {
		return model.Message{}, fmt.Errorf("no templates available for row %d", rec.Row)
	}

	chosen := pool[g.Rand.Intn(len(pool))]

	service := "visit"
	if rec.ServiceType != nil {
		service = *rec.ServiceType
	}
	body := RenderTemplate(chosen.text, map[string]string{
		"name":     rec.FirstName(),
		"business": rec.BusinessName,
		"service":  service,
		"date":     rec.ServiceDateDisplay(),
	})

	if suffix := g.recencySuffix(rec); suffix != "" {
		body += suffix
	}

	return model.Message{
		Row:        rec.Row,
		Body:       body,
		TemplateID: fmt.Sprintf("%s/%d", chosen.tier, chosen.idx),
	}, nil
}

// recencySuffix adds date context for very recent services.
func (g *Generator) recencySuffix(rec model.Recipient) string {
	if rec.ServiceDate == nil {
		return ""
	}
	days := int(g.Clock().Sub(*rec.ServiceDate).Hours() / 24)
	if days < 0 || days > 7 {
		return ""
	}
	return fmt.Sprintf(" (from %d days ago)", days)
}

// applicableTiers lists tiers usable for this recipient, most specific
// first. Base always applies.
func applicableTiers(rec model.Recipient) []string {
	hasType := rec.ServiceType != nil
	hasDate := rec.ServiceDate != nil

	var tiers []string
	if hasType && hasDate {
		tiers = append(tiers, TierServiceAndDate)
	}
	if hasDate {
		tiers = append(tiers, TierDateOnly)
	}
	if hasType {
		tiers = append(tiers, TierServiceOnly)
	}
	return append(tiers, TierBase)
}
