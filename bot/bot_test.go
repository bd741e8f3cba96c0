package bot_test

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus/testutil"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/primo-estimator/bot"
	"github.com/warp/primo-estimator/calendar"
	"github.com/warp/primo-estimator/estimate"
	"github.com/warp/primo-estimator/metrics"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

const (
	selfID  = "bot"
	ownerID = "alice"
	channel = "general"
)

type fakeMessenger struct {
	mu        sync.Mutex
	nextID    int
	sent      []*discordgo.MessageSend
	embeds    []*discordgo.MessageEmbed
	deleted   []string
	responses []*discordgo.InteractionResponse
	failSend  error
	panicOnce bool
}

func (f *fakeMessenger) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOnce {
		f.panicOnce = false
		panic("gateway exploded")
	}
	if f.failSend != nil {
		return nil, f.failSend
	}
	f.nextID++
	f.sent = append(f.sent, data)
	return &discordgo.Message{ID: fmt.Sprintf("menu-%d", f.nextID), ChannelID: channelID}, nil
}

func (f *fakeMessenger) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embeds = append(f.embeds, embed)
	return &discordgo.Message{ID: "embed", ChannelID: channelID}, nil
}

func (f *fakeMessenger) ChannelMessageDelete(_, messageID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeMessenger) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeMessenger) lastResponse(t *testing.T) *discordgo.InteractionResponse {
	t.Helper()
	require.NotEmpty(t, f.responses)
	return f.responses[len(f.responses)-1]
}

type harness struct {
	bot     *bot.Bot
	api     *fakeMessenger
	metrics *metrics.Metrics
	now     time.Time
}

func newHarness(t *testing.T, today calendar.Date) *harness {
	t.Helper()
	logger := log.New()
	logger.SetOutput(io.Discard)

	h := &harness{
		api:     &fakeMessenger{},
		metrics: metrics.New(),
		now:     time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	h.bot = bot.New(estimate.MustNewEstimator(estimate.DefaultRewardTable()), h.metrics, logger, bot.Options{
		SessionTimeout: time.Minute,
		Clock:          calendar.FixedClock(today),
		Now:            func() time.Time { return h.now },
	})
	return h
}

func (h *harness) message(author, content string) {
	h.bot.HandleMessage(h.api, selfID, &discordgo.Message{
		ChannelID: channel,
		Content:   content,
		Author:    &discordgo.User{ID: author},
	})
}

func (h *harness) openMenu(t *testing.T) string {
	t.Helper()
	h.message(ownerID, "*primos")
	require.Equal(t, 1, h.bot.Sessions().Len())
	return fmt.Sprintf("menu-%d", h.api.nextID)
}

func (h *harness) click(menuID, userID, customID string, values ...string) {
	h.bot.HandleInteraction(h.api, &discordgo.Interaction{
		Type:      discordgo.InteractionMessageComponent,
		ChannelID: channel,
		Message:   &discordgo.Message{ID: menuID, ChannelID: channel},
		Member:    &discordgo.Member{User: &discordgo.User{ID: userID}},
		Data: discordgo.MessageComponentInteractionData{
			CustomID: customID,
			Values:   values,
		},
	})
}

func fieldValue(t *testing.T, embed *discordgo.MessageEmbed, name string) string {
	t.Helper()
	for _, f := range embed.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	t.Fatalf("embed has no field %q", name)
	return ""
}

// =============================================================================
// COMMANDS
// =============================================================================

func TestHandleMessage_PrimosPostsMenu(t *testing.T) {
	h := newHarness(t, calendar.NewDate(2024, time.January, 1))
	h.message(ownerID, "*primos")

	require.Len(t, h.api.sent, 1)
	menu := h.api.sent[0]
	require.Len(t, menu.Components, 4)
	require.Len(t, menu.Embeds, 1)
	assert.Equal(t, "0", fieldValue(t, menu.Embeds[0], "Days"))

	abyssRow := menu.Components[1].(discordgo.ActionsRow)
	abyss := abyssRow.Components[0].(discordgo.SelectMenu)
	assert.Equal(t, bot.IDAbyssMenu, abyss.CustomID)
	assert.Len(t, abyss.Options, 13)

	theaterRow := menu.Components[2].(discordgo.ActionsRow)
	assert.Len(t, theaterRow.Components[0].(discordgo.SelectMenu).Options, 11)

	buttons := menu.Components[3].(discordgo.ActionsRow)
	assert.Len(t, buttons.Components, 5)

	assert.Equal(t, 1, h.bot.Sessions().Len())
}

func TestHandleMessage_Howto(t *testing.T) {
	h := newHarness(t, calendar.NewDate(2024, time.January, 1))
	h.message(ownerID, "*howto")

	require.Len(t, h.api.embeds, 1)
	assert.Contains(t, h.api.embeds[0].Description, "'*primos'")
	assert.Equal(t, 0, h.bot.Sessions().Len())
}

func TestHandleMessage_Ignored(t *testing.T) {
	h := newHarness(t, calendar.NewDate(2024, time.January, 1))

	h.message(selfID, "*primos")
	h.message(ownerID, "primos")
	h.message(ownerID, "*primogems")
	h.bot.HandleMessage(h.api, selfID, &discordgo.Message{Content: "*primos", Author: &discordgo.User{ID: "other-bot", Bot: true}})
	h.bot.HandleMessage(h.api, selfID, &discordgo.Message{Content: "*primos"})

	assert.Empty(t, h.api.sent)
	assert.Empty(t, h.api.embeds)
}

func TestHandleMessage_SendFailureOpensNoSession(t *testing.T) {
	h := newHarness(t, calendar.NewDate(2024, time.January, 1))
	h.api.failSend = errors.New("missing permissions")

	h.message(ownerID, "*primos")
	assert.Equal(t, 0, h.bot.Sessions().Len())
}

func TestHandleMessage_RecoversFromPanic(t *testing.T) {
	h := newHarness(t, calendar.NewDate(2024, time.January, 1))
	h.api.panicOnce = true

	assert.NotPanics(t, func() { h.message(ownerID, "*primos") })
	h.message(ownerID, "*primos")
	assert.Equal(t, 1, h.bot.Sessions().Len())
}

// =============================================================================
// INTERACTIONS
// =============================================================================

func TestHandleInteraction_EndToEndEstimate(t *testing.T) {
	// GIVEN: Today is 2024-01-01 and a fresh menu
	// WHEN: Picking 3 chambers and 16 days, then pressing Estimate
	// THEN: The reply carries the 1160 breakdown

	h := newHarness(t, calendar.NewDate(2024, time.January, 1))
	menu := h.openMenu(t)

	h.click(menu, ownerID, bot.IDAbyssMenu, "3")
	h.click(menu, ownerID, bot.IDPlusTen)
	for i := 0; i < 6; i++ {
		h.click(menu, ownerID, bot.IDPlusOne)
	}

	update := h.api.lastResponse(t)
	assert.Equal(t, discordgo.InteractionResponseUpdateMessage, update.Type)
	assert.Equal(t, "16", fieldValue(t, update.Data.Embeds[0], "Days"))
	assert.Equal(t, "3", fieldValue(t, update.Data.Embeds[0], "Abyss chambers"))
	require.Len(t, update.Data.Components, 4)

	h.click(menu, ownerID, bot.IDEstimate)

	reply := h.api.lastResponse(t)
	assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, reply.Type)
	require.Len(t, reply.Data.Embeds, 1)
	assert.Contains(t, reply.Data.Embeds[0].Description, "- Abyss primogems: 200")
	assert.Contains(t, reply.Data.Embeds[0].Description, "**Estimated total primogems: 1160**")
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Estimates(metrics.SourceDiscord)))
}

func TestHandleInteraction_DaysNeverNegative(t *testing.T) {
	h := newHarness(t, calendar.NewDate(2024, time.January, 1))
	menu := h.openMenu(t)

	h.click(menu, ownerID, bot.IDMinusOne)
	h.click(menu, ownerID, bot.IDMinusTen)

	assert.Equal(t, "0", fieldValue(t, h.api.lastResponse(t).Data.Embeds[0], "Days"))
}

func TestHandleInteraction_OtherUserIsTurnedAway(t *testing.T) {
	h := newHarness(t, calendar.NewDate(2024, time.January, 1))
	menu := h.openMenu(t)

	h.click(menu, "mallory", bot.IDPlusTen)

	resp := h.api.lastResponse(t)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
	assert.Contains(t, resp.Data.Content, "belongs to someone else")

	h.click(menu, ownerID, bot.IDPlusOne)
	assert.Equal(t, "1", fieldValue(t, h.api.lastResponse(t).Data.Embeds[0], "Days"))
}

func TestHandleInteraction_UnknownMenu(t *testing.T) {
	h := newHarness(t, calendar.NewDate(2024, time.January, 1))
	h.click("menu-404", ownerID, bot.IDPlusOne)

	resp := h.api.lastResponse(t)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
	assert.Contains(t, resp.Data.Content, "expired")
}

func TestHandleInteraction_InvalidSelectionIsAcknowledged(t *testing.T) {
	h := newHarness(t, calendar.NewDate(2024, time.January, 1))
	menu := h.openMenu(t)

	h.click(menu, ownerID, bot.IDAbyssMenu, "99")
	assert.Equal(t, discordgo.InteractionResponseDeferredMessageUpdate, h.api.lastResponse(t).Type)
}

func TestHandleInteraction_OverflowRepliesWithError(t *testing.T) {
	h := newHarness(t, calendar.NewDate(9999, time.December, 31))
	menu := h.openMenu(t)

	h.click(menu, ownerID, bot.IDPlusOne)
	h.click(menu, ownerID, bot.IDEstimate)

	resp := h.api.lastResponse(t)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
	assert.Equal(t, "No estimate", resp.Data.Embeds[0].Title)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Failures(metrics.SourceDiscord, metrics.ReasonOverflow)))
}

func TestHandleInteraction_IgnoresOtherInteractionTypes(t *testing.T) {
	h := newHarness(t, calendar.NewDate(2024, time.January, 1))
	h.bot.HandleInteraction(h.api, &discordgo.Interaction{Type: discordgo.InteractionPing})
	assert.Empty(t, h.api.responses)
}

// =============================================================================
// EXPIRY
// =============================================================================

func TestSweep_DeletesIdleMenus(t *testing.T) {
	h := newHarness(t, calendar.NewDate(2024, time.January, 1))
	menu := h.openMenu(t)

	h.now = h.now.Add(59 * time.Second)
	h.bot.Sweep(h.api)
	assert.Empty(t, h.api.deleted)

	h.now = h.now.Add(time.Second)
	h.bot.Sweep(h.api)
	assert.Equal(t, []string{menu}, h.api.deleted)
	assert.Equal(t, 0, h.bot.Sessions().Len())

	h.click(menu, ownerID, bot.IDPlusOne)
	assert.Contains(t, h.api.lastResponse(t).Data.Content, "expired")
}

func TestSweep_InteractionKeepsMenuAlive(t *testing.T) {
	h := newHarness(t, calendar.NewDate(2024, time.January, 1))
	menu := h.openMenu(t)

	h.now = h.now.Add(45 * time.Second)
	h.click(menu, ownerID, bot.IDPlusOne)

	h.now = h.now.Add(45 * time.Second)
	h.bot.Sweep(h.api)
	assert.Empty(t, h.api.deleted)
	assert.Equal(t, 1, h.bot.Sessions().Len())
}
