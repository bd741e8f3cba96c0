/*
Package bot serves primogem estimates through a Discord menu.

COMMANDS:
  <prefix>primos   Post a menu: Welkin Moon select, Abyss chambers select
                   (0-12), Theater stages select (0-10), Estimate and
                   +1/+10/-10/-1 day buttons
  <prefix>howto    Explain the menu

SESSIONS:
  Each menu message has a session holding the current choices. Only the
  user who opened the menu can change it. A session ends after the
  configured timeout without interaction; its menu message is deleted so no
  dead components stay visible.

ESTIMATES:
  The Estimate button reads today from the clock at click time and replies
  with the breakdown embed.

SEE ALSO:
  - session.go: choices and the session table
  - render.go: embeds and components
*/
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"github.com/warp/primo-estimator/calendar"
	"github.com/warp/primo-estimator/estimate"
	"github.com/warp/primo-estimator/metrics"
)

const sweepInterval = time.Second

// Messenger is the subset of *discordgo.Session the handlers use.
type Messenger interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

var _ Messenger = (*discordgo.Session)(nil)

// Options configure a Bot.
type Options struct {
	Prefix         string
	SessionTimeout time.Duration
	Clock          calendar.Clock
	Now            func() time.Time
}

// Bot handles Discord messages and component interactions.
type Bot struct {
	est      *estimate.Estimator
	metrics  *metrics.Metrics
	log      log.FieldLogger
	prefix   string
	clock    calendar.Clock
	now      func() time.Time
	sessions *Sessions
}

// New creates a Bot. Zero-valued options fall back to "*", 60s, UTC today
// and time.Now.
func New(est *estimate.Estimator, m *metrics.Metrics, logger log.FieldLogger, opts Options) *Bot {
	if opts.Prefix == "" {
		opts.Prefix = "*"
	}
	if opts.SessionTimeout <= 0 {
		opts.SessionTimeout = 60 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = calendar.SystemClock(time.UTC)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Bot{
		est:      est,
		metrics:  m,
		log:      logger.WithField("component", "bot"),
		prefix:   opts.Prefix,
		clock:    opts.Clock,
		now:      opts.Now,
		sessions: NewSessions(opts.SessionTimeout),
	}
}

// Sessions exposes the session table.
func (b *Bot) Sessions() *Sessions {
	return b.sessions
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Run connects with token and serves until ctx is cancelled. Open menus are
// deleted on the way out.
func (b *Bot) Run(ctx context.Context, token string) error {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentMessageContent

	dg.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.log.WithField("user", r.User.Username).Info("discord bot connected")
	})
	dg.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		b.HandleMessage(s, s.State.User.ID, m.Message)
	})
	dg.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		b.HandleInteraction(s, i.Interaction)
	})

	if err := dg.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			b.closeAll(dg)
			if err := dg.Close(); err != nil {
				return fmt.Errorf("close discord session: %w", err)
			}
			b.log.Info("discord bot stopped")
			return nil
		case <-ticker.C:
			b.Sweep(dg)
		}
	}
}

// Sweep deletes the menus of expired sessions.
func (b *Bot) Sweep(api Messenger) {
	for _, sess := range b.sessions.Expire(b.now()) {
		b.deleteMenu(api, sess)
	}
	b.metrics.SetSessions(b.sessions.Len())
}

func (b *Bot) closeAll(api Messenger) {
	for _, sess := range b.sessions.CloseAll() {
		b.deleteMenu(api, sess)
	}
	b.metrics.SetSessions(0)
}

func (b *Bot) deleteMenu(api Messenger, sess Session) {
	if err := api.ChannelMessageDelete(sess.ChannelID, sess.MessageID); err != nil {
		b.log.WithError(err).WithField("message_id", sess.MessageID).Warn("failed to delete expired menu")
		return
	}
	b.log.WithField("message_id", sess.MessageID).Debug("menu expired")
}

// =============================================================================
// HANDLERS
// =============================================================================

// HandleMessage reacts to prefix commands. selfID is the bot's user ID.
func (b *Bot) HandleMessage(api Messenger, selfID string, m *discordgo.Message) {
	defer b.recoverPanic("message")

	if m.Author == nil || m.Author.ID == selfID || m.Author.Bot {
		return
	}
	command, ok := strings.CutPrefix(strings.TrimSpace(m.Content), b.prefix)
	if !ok {
		return
	}

	logger := b.log.WithFields(log.Fields{
		"command":    command,
		"channel_id": m.ChannelID,
		"user_id":    m.Author.ID,
	})

	switch command {
	case "primos":
		msg, err := api.ChannelMessageSendComplex(m.ChannelID, menuMessage(Choices{}))
		if err != nil {
			logger.WithError(err).Error("failed to send menu")
			return
		}
		b.sessions.Open(m.ChannelID, msg.ID, m.Author.ID, b.now())
		b.metrics.SetSessions(b.sessions.Len())
		logger.WithField("message_id", msg.ID).Debug("menu opened")
	case "howto":
		if _, err := api.ChannelMessageSendEmbed(m.ChannelID, howtoEmbed(b.prefix)); err != nil {
			logger.WithError(err).Error("failed to send howto")
		}
	}
}

// HandleInteraction applies a menu component interaction.
func (b *Bot) HandleInteraction(api Messenger, i *discordgo.Interaction) {
	defer b.recoverPanic("interaction")

	if i.Type != discordgo.InteractionMessageComponent || i.Message == nil {
		return
	}
	data := i.MessageComponentData()
	userID := interactionUserID(i)
	logger := b.log.WithFields(log.Fields{
		"custom_id":  data.CustomID,
		"message_id": i.Message.ID,
		"user_id":    userID,
	})

	var action Action
	sess, err := b.sessions.Update(i.Message.ID, b.now(), func(s *Session) error {
		if s.OwnerID != userID {
			return errNotOwner
		}
		var applyErr error
		action, applyErr = s.Choices.Apply(data.CustomID, data.Values)
		return applyErr
	})

	switch {
	case errors.Is(err, ErrSessionNotFound):
		b.respondEphemeral(api, i, logger, "This menu has expired. Send "+b.prefix+"primos for a new one.")
		return
	case errors.Is(err, errNotOwner):
		b.respondEphemeral(api, i, logger, "This menu belongs to someone else. Send "+b.prefix+"primos for your own.")
		return
	case err != nil:
		logger.WithError(err).Warn("rejected menu interaction")
		b.respond(api, i, logger, &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredMessageUpdate})
		return
	}

	if action == ActionEstimate {
		b.respond(api, i, logger, b.estimateResponse(sess.Choices, logger))
		return
	}
	b.respond(api, i, logger, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{menuEmbed(sess.Choices)},
			Components: menuComponents(sess.Choices),
		},
	})
}

var errNotOwner = errors.New("interaction from a user other than the menu owner")

func (b *Bot) estimateResponse(c Choices, logger log.FieldLogger) *discordgo.InteractionResponse {
	today := b.clock()
	res, err := b.est.Estimate(c.Inputs(today))
	if err != nil {
		b.metrics.ObserveFailure(metrics.SourceDiscord, metrics.Reason(err))
		logger.WithError(err).WithField("days", c.Days).Warn("estimate rejected")
		return &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Embeds: []*discordgo.MessageEmbed{errorEmbed(err)},
				Flags:  discordgo.MessageFlagsEphemeral,
			},
		}
	}
	b.metrics.ObserveEstimate(metrics.SourceDiscord, res.Rotations.ByCategory())
	logger.WithFields(log.Fields{"days": c.Days, "total": res.Total}).Info("estimate sent")
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{estimateEmbed(res)},
		},
	}
}

func (b *Bot) respond(api Messenger, i *discordgo.Interaction, logger log.FieldLogger, resp *discordgo.InteractionResponse) {
	if err := api.InteractionRespond(i, resp); err != nil {
		logger.WithError(err).Error("failed to respond to interaction")
	}
}

func (b *Bot) respondEphemeral(api Messenger, i *discordgo.Interaction, logger log.FieldLogger, content string) {
	b.respond(api, i, logger, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func (b *Bot) recoverPanic(where string) {
	if r := recover(); r != nil {
		b.log.WithFields(log.Fields{"handler": where, "panic": r}).Error("recovered from panic in discord handler")
	}
}

func interactionUserID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
