// Package guild wraps the Discord session into the read/write surface
// the rest of the service needs: live member and role lookups, nickname
// and role side effects, and the ops-channel notifier.
//
// The session is a process-wide resource: created once at startup,
// opened with Connect (which fails fast when the gateway handshake
// fails) and reused for every request until Close.
package guild

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"rolegate/entity"
	"rolegate/internal/config"
	"rolegate/lib/sl"
)

type Client struct {
	session      *discordgo.Session
	guildId      string
	opsChannelId string
	log          *slog.Logger
}

func New(conf config.DiscordConfig, log *slog.Logger) (*Client, error) {
	if conf.Token == "" {
		return nil, fmt.Errorf("discord token is not configured")
	}
	if conf.GuildId == "" {
		return nil, fmt.Errorf("discord guild id is not configured")
	}

	session, err := discordgo.New("Bot " + conf.Token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	return &Client{
		session:      session,
		guildId:      conf.GuildId,
		opsChannelId: conf.OpsChannelId,
		log:          log.With(sl.Module("guild")),
	}, nil
}

// Connect opens the gateway session and blocks until the handshake
// completes or fails.
func (c *Client) Connect() error {
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("discord gateway: %w", err)
	}
	c.log.With(
		slog.String("user", c.session.State.User.Username),
		slog.String("guild", c.guildId),
	).Info("discord session opened")
	return nil
}

func (c *Client) Close() {
	_ = c.session.Close()
}

// Session exposes the underlying connection for the bot front door.
func (c *Client) Session() *discordgo.Session {
	return c.session
}

func (c *Client) GuildId() string {
	return c.guildId
}

func (c *Client) GuildMember(ctx context.Context, userId string) (*discordgo.Member, error) {
	member, err := c.session.GuildMember(c.guildId, userId, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("guild member %s: %w", userId, err)
	}
	return member, nil
}

// Role resolves a role id against the live role list; an absent id is
// not an error, the caller simply has no role to assign.
func (c *Client) Role(ctx context.Context, roleId string) (*discordgo.Role, error) {
	roles, err := c.session.GuildRoles(c.guildId, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("guild roles: %w", err)
	}
	for _, role := range roles {
		if role.ID == roleId {
			return role, nil
		}
	}
	return nil, nil
}

func (c *Client) SetNickname(ctx context.Context, userId, nick string) error {
	err := c.session.GuildMemberNickname(c.guildId, userId, nick, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("set nickname: %w", err)
	}
	return nil
}

func (c *Client) AddRole(ctx context.Context, userId, roleId string) error {
	err := c.session.GuildMemberRoleAdd(c.guildId, userId, roleId, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("add role: %w", err)
	}
	return nil
}

func (c *Client) Roles(ctx context.Context) ([]*entity.Role, error) {
	guildRoles, err := c.session.GuildRoles(c.guildId, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("guild roles: %w", err)
	}
	roles := make([]*entity.Role, 0, len(guildRoles))
	for _, role := range guildRoles {
		roles = append(roles, &entity.Role{Id: role.ID, Name: role.Name})
	}
	return roles, nil
}

// BotPermissions queries the bot's live permissions in a channel.
func (c *Client) BotPermissions(ctx context.Context, channelId string) (int64, error) {
	perms, err := c.session.UserChannelPermissions(c.session.State.User.ID, channelId, discordgo.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("channel permissions: %w", err)
	}
	return perms, nil
}

// NotifyOps sends a message to the ops channel, if one is configured.
// Used by the log handler; failures are swallowed to avoid a logging loop.
func (c *Client) NotifyOps(msg string) {
	if c.opsChannelId == "" {
		return
	}
	if len(msg) > 1900 {
		msg = msg[:1900] + "…"
	}
	_, _ = c.session.ChannelMessageSend(c.opsChannelId, msg)
}
