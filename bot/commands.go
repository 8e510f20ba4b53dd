package bot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"rolegate/impl/redeem"
	"rolegate/lib/sl"
)

const (
	commandGetAccess = "getaccess"
	optionCode       = "reference_code"

	redeemTimeout = 15 * time.Second
)

// requiredPermissions are checked live on every invocation, never cached.
const requiredPermissions = discordgo.PermissionManageNicknames | discordgo.PermissionManageRoles

const (
	msgAlreadyRedeemed = "❌ You have already received your role as an internal team member."
	msgInvalidCode     = "❌ Invalid reference code. Please try again."
	msgCodeUsed        = "❌ This reference code is already in use by another internal team member."
	msgGenericFailure  = "❌ Failed to update your settings. Please contact an administrator."
	msgMissingPerms    = "I don't have the required permissions. Please ensure I have 'Manage Nicknames' and 'Manage Roles' permissions."
	msgSuccess         = "✅ Successfully approved as internal team member! Your nickname and role have been updated."
)

func commands() []*discordgo.ApplicationCommand {
	dmPermission := false
	return []*discordgo.ApplicationCommand{
		{
			Name:         commandGetAccess,
			Description:  "Get access to the server by providing a reference code",
			DMPermission: &dmPermission,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        optionCode,
					Description: "Your reference code",
					Required:    true,
				},
			},
		},
	}
}

// resultMessage maps a workflow outcome to the user-facing reply.
// Domain refusals keep their specific text; everything else collapses
// to the generic failure so sub-step details never leak to the user.
func resultMessage(err error) string {
	switch {
	case err == nil:
		return msgSuccess
	case errors.Is(err, redeem.ErrAlreadyRedeemed):
		return msgAlreadyRedeemed
	case errors.Is(err, redeem.ErrInvalidCode):
		return msgInvalidCode
	case errors.Is(err, redeem.ErrCodeUsed):
		return msgCodeUsed
	default:
		return msgGenericFailure
	}
}

// responder is the slice of *discordgo.Session used to reply to an
// interaction.
type responder interface {
	InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(i *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

func (b *DcBot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.handleInteraction(s, i)
}

func (b *DcBot) handleInteraction(s responder, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	if data.Name != commandGetAccess {
		return
	}
	if i.Member == nil || i.Member.User == nil {
		return
	}

	userId := i.Member.User.ID
	log := b.log.With(
		slog.String("discord_id", userId),
		slog.String("channel", i.ChannelID),
	)

	if i.ChannelID != b.channelId {
		b.respondEphemeral(s, i, "❌ This command can only be used in <#"+b.channelId+">.")
		return
	}

	if err := b.deferEphemeral(s, i); err != nil {
		log.Error("defer response", sl.Err(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), redeemTimeout)
	defer cancel()

	perms, err := b.guild.BotPermissions(ctx, i.ChannelID)
	if err != nil {
		log.Error("permission check", sl.Err(err))
		b.editResponse(s, i, msgGenericFailure)
		return
	}
	if perms&requiredPermissions != requiredPermissions {
		log.Warn("missing bot permissions")
		b.editResponse(s, i, msgMissingPerms)
		return
	}

	var code string
	for _, opt := range data.Options {
		if opt.Name == optionCode {
			code = opt.StringValue()
		}
	}
	if code == "" {
		b.editResponse(s, i, msgInvalidCode)
		return
	}

	_, err = b.redeemer.Redeem(ctx, userId, code)
	b.editResponse(s, i, resultMessage(err))
}

func (b *DcBot) respondEphemeral(s responder, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.log.Warn("interaction respond", sl.Err(err))
	}
}

func (b *DcBot) deferEphemeral(s responder, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}

func (b *DcBot) editResponse(s responder, i *discordgo.InteractionCreate, content string) {
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
	if err != nil {
		b.log.Warn("interaction edit", sl.Err(err))
	}
}
