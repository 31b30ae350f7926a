package message

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewgarden/outreach-backend/internal/model"
)

func strPtr(s string) *string { return &s }

func testRecipient() model.Recipient {
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return model.Recipient{
		Row:          1,
		BusinessName: "Garden Cafe",
		CustomerName: "Alice Smith",
		Phone:        "+15551234567",
		ServiceType:  strPtr("Lunch"),
		ServiceDate:  &date,
		ReviewLink:   "https://g.page/garden-cafe/review",
	}
}

func seededGenerator(seed int64) *Generator {
	g := NewGenerator(DefaultPack(), TierPolicyPool, nil, zerolog.Nop())
	g.Rand = rand.New(rand.NewSource(seed))
	g.Clock = func() time.Time { return time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC) }
	return g
}

func TestRenderContainsBusinessAndFirstName(t *testing.T) {
	g := seededGenerator(1)

	for seed := int64(0); seed < 20; seed++ {
		g.Rand = rand.New(rand.NewSource(seed))
		msg, err := g.Render(context.Background(), testRecipient())
		require.NoError(t, err)
		assert.Contains(t, msg.Body, "Garden Cafe")
		assert.Contains(t, msg.Body, "Alice")
		assert.NotContains(t, msg.Body, "Smith", "templates use the first name only")
		assert.NotContains(t, msg.Body, "{", "no unexpanded placeholders")
	}
}

func TestRenderIsDeterministicWithSeed(t *testing.T) {
	a, err := seededGenerator(42).Render(context.Background(), testRecipient())
	require.NoError(t, err)
	b, err := seededGenerator(42).Render(context.Background(), testRecipient())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestTierPolicySpecific(t *testing.T) {
	g := seededGenerator(1)
	g.Policy = TierPolicySpecific

	for seed := int64(0); seed < 20; seed++ {
		g.Rand = rand.New(rand.NewSource(seed))
		msg, err := g.Render(context.Background(), testRecipient())
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(msg.TemplateID, TierServiceAndDate+"/"),
			"specific policy must use the most specific tier, got %s", msg.TemplateID)
	}
}

func TestTierPolicyPoolReachesLowerTiers(t *testing.T) {
	g := seededGenerator(1)
	tiers := map[string]bool{}
	for seed := int64(0); seed < 200; seed++ {
		g.Rand = rand.New(rand.NewSource(seed))
		msg, err := g.Render(context.Background(), testRecipient())
		require.NoError(t, err)
		tiers[strings.SplitN(msg.TemplateID, "/", 2)[0]] = true
	}
	assert.True(t, tiers[TierBase], "pool policy keeps base variants selectable")
	assert.True(t, tiers[TierServiceAndDate])
}

func TestTierSelectionForMissingFields(t *testing.T) {
	g := seededGenerator(1)
	g.Policy = TierPolicySpecific

	rec := testRecipient()
	rec.ServiceDate = nil
	msg, err := g.Render(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(msg.TemplateID, TierServiceOnly+"/"))

	rec.ServiceType = nil
	msg, err = g.Render(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(msg.TemplateID, TierBase+"/"))
}

func TestRecencySuffix(t *testing.T) {
	g := seededGenerator(3)
	g.Clock = func() time.Time { return time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC) }

	msg, err := g.Render(context.Background(), testRecipient())
	require.NoError(t, err)
	assert.Contains(t, msg.Body, "(from 3 days ago)")

	g.Clock = func() time.Time { return time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC) }
	msg, err = g.Render(context.Background(), testRecipient())
	require.NoError(t, err)
	assert.NotContains(t, msg.Body, "days ago")
}

type stubTextGen struct {
	text string
	err  error
}

func (s stubTextGen) Generate(ctx context.Context, prompt string) (string, error) {
	return s.text, s.err
}

func TestExternalGenerationPreferred(t *testing.T) {
	g := seededGenerator(1)
	g.TextGen = stubTextGen{text: "Hey Alice, loved having you at Garden Cafe!"}

	msg, err := g.Render(context.Background(), testRecipient())
	require.NoError(t, err)
	assert.Equal(t, "ai", msg.TemplateID)
	assert.Equal(t, "Hey Alice, loved having you at Garden Cafe!", msg.Body)
}

func TestExternalGenerationFallsBackOnError(t *testing.T) {
	g := seededGenerator(1)
	g.TextGen = stubTextGen{err: errors.New("timeout")}

	msg, err := g.Render(context.Background(), testRecipient())
	require.NoError(t, err)
	assert.NotEqual(t, "ai", msg.TemplateID)
	assert.Contains(t, msg.Body, "Garden Cafe")
}

func TestExternalGenerationFallsBackOnEmptyText(t *testing.T) {
	g := seededGenerator(1)
	g.TextGen = stubTextGen{text: "   "}

	msg, err := g.Render(context.Background(), testRecipient())
	require.NoError(t, err)
	assert.NotEqual(t, "ai", msg.TemplateID)
}

func TestRenderTemplate(t *testing.T) {
	got := RenderTemplate("Hi {name}, visit {business}!", map[string]string{
		"name":     "Alice",
		"business": "Garden Cafe",
	})
	assert.Equal(t, "Hi Alice, visit Garden Cafe!", got)
}

func TestDefaultPackVariantsRenderClean(t *testing.T) {
	pack := DefaultPack()
	data := map[string]string{"name": "A", "business": "B", "service": "S", "date": "D"}
	for _, tier := range []string{TierBase, TierServiceOnly, TierDateOnly, TierServiceAndDate} {
		variants := pack.tier(tier)
		require.NotEmpty(t, variants, tier)
		for i, v := range variants {
			rendered := RenderTemplate(v, data)
			assert.NotContains(t, rendered, "{", fmt.Sprintf("%s/%d has an unknown placeholder", tier, i))
		}
	}
}
