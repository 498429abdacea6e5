package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/ykvlv/bedtime-bot/internal/presence"
)

const intents = discordgo.IntentGuilds |
	discordgo.IntentGuildMembers |
	discordgo.IntentGuildPresences |
	discordgo.IntentGuildMessages |
	discordgo.IntentDirectMessages |
	discordgo.IntentMessageContent

// restClient is the REST subset the gateway calls; *discordgo.Session implements it.
type restClient interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Gateway owns the Discord session. It feeds presence events into a channel,
// answers chat commands through the Router and sends reminder DMs.
type Gateway struct {
	session *discordgo.Session
	rest    restClient
	log     *zap.Logger
	router  *Router
	events  chan<- presence.Event
	ctx     context.Context
}

// New creates a session for the bot token. The connection is opened by Open.
func New(token string, log *zap.Logger, router *Router, events chan<- presence.Event) (*Gateway, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	s.Identify.Intents = intents
	// Handlers run in gateway order so per-user presence order is preserved.
	s.SyncEvents = true

	g := &Gateway{
		session: s,
		rest:    s,
		log:     log,
		router:  router,
		events:  events,
		ctx:     context.Background(),
	}
	s.AddHandler(g.onReady)
	s.AddHandler(g.onGuildCreate)
	s.AddHandler(g.onPresenceUpdate)
	s.AddHandler(g.onMessageCreate)
	return g, nil
}

// Open connects to the gateway. Presence forwarding stops when ctx is done.
func (g *Gateway) Open(ctx context.Context) error {
	g.ctx = ctx
	if err := g.session.Open(); err != nil {
		return fmt.Errorf("discord open: %w", err)
	}
	return nil
}

// Close disconnects from the gateway.
func (g *Gateway) Close() error {
	return g.session.Close()
}

// SendDM sends text to the user's direct message channel.
// This makes Gateway satisfy scheduler.Sender.
func (g *Gateway) SendDM(ctx context.Context, userID, text string) error {
	ch, err := g.rest.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("create dm channel: %w", err)
	}
	if _, err := g.rest.ChannelMessageSend(ch.ID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send dm: %w", err)
	}
	return nil
}

func (g *Gateway) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	g.log.Info("discord ready", zap.String("user", r.User.Username), zap.Int("guilds", len(r.Guilds)))
}

// onGuildCreate seeds the registry with the presences Discord sends on join.
func (g *Gateway) onGuildCreate(_ *discordgo.Session, gc *discordgo.GuildCreate) {
	if gc.Guild == nil {
		return
	}
	now := time.Now()
	for _, p := range gc.Presences {
		if ev, ok := toEvent(p, now); ok {
			g.forward(ev)
		}
	}
	g.log.Info("guild available", zap.String("guild", gc.ID), zap.Int("presences", len(gc.Presences)))
}

func (g *Gateway) onPresenceUpdate(_ *discordgo.Session, pu *discordgo.PresenceUpdate) {
	if ev, ok := toEvent(&pu.Presence, time.Now()); ok {
		g.forward(ev)
	}
}

func (g *Gateway) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	reply, ok := g.router.Handle(g.ctx, m.Author.ID, m.Content)
	if !ok {
		return
	}
	if _, err := g.rest.ChannelMessageSend(m.ChannelID, reply); err != nil {
		g.log.Warn("reply failed", zap.String("channel", m.ChannelID), zap.Error(err))
	}
}

// forward blocks until the consumer takes ev or the gateway is shutting down.
func (g *Gateway) forward(ev presence.Event) {
	select {
	case g.events <- ev:
	case <-g.ctx.Done():
	}
}
