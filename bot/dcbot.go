// Package bot implements the Discord front door for reference-code
// redemption.
//
// Architecture overview:
//   - dcbot.go     — DcBot struct, lifecycle (Start/Stop), command registration
//   - commands.go  — /getaccess definition, precondition checks, outcome mapping
//
// Flow for an incoming interaction:
//
//	channel check → deferred ephemeral reply → live bot-permission check
//	→ Redeemer.Redeem → outcome mapped to a user-facing message
//
// The bot owns no state of its own; everything shared lives in the
// member store behind the Redeemer.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"rolegate/entity"
	"rolegate/internal/config"
	"rolegate/lib/sl"
)

// Redeemer runs the redemption workflow. Implemented by impl/redeem.
type Redeemer interface {
	Redeem(ctx context.Context, discordId, code string) (*entity.Member, error)
}

// Directory is the guild surface the front door needs. Implemented by
// internal/guild.Client.
type Directory interface {
	Session() *discordgo.Session
	GuildId() string
	BotPermissions(ctx context.Context, channelId string) (int64, error)
}

// DcBot wires the slash command to the redemption workflow.
type DcBot struct {
	log           *slog.Logger
	guild         Directory
	redeemer      Redeemer
	appId         string
	channelId     string
	removeHandler func()
}

func New(conf config.DiscordConfig, guildClient Directory, redeemer Redeemer, log *slog.Logger) (*DcBot, error) {
	if conf.AppId == "" {
		return nil, fmt.Errorf("discord app id is not configured")
	}
	if conf.RedeemChannelId == "" {
		return nil, fmt.Errorf("redeem channel id is not configured")
	}
	return &DcBot{
		log:       log.With(sl.Module("dcbot")),
		guild:     guildClient,
		redeemer:  redeemer,
		appId:     conf.AppId,
		channelId: conf.RedeemChannelId,
	}, nil
}

// Start registers the guild command set and installs the interaction
// handler. The session must already be connected.
func (b *DcBot) Start() error {
	session := b.guild.Session()

	registered, err := session.ApplicationCommandBulkOverwrite(b.appId, b.guild.GuildId(), commands())
	if err != nil {
		return fmt.Errorf("register commands: %w", err)
	}
	b.log.With(slog.Int("count", len(registered))).Info("guild commands registered")

	b.removeHandler = session.AddHandler(b.onInteraction)
	return nil
}

func (b *DcBot) Stop() {
	if b.removeHandler != nil {
		b.log.Info("stopping discord bot")
		b.removeHandler()
	}
}
