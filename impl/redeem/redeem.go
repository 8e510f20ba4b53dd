// Package redeem implements the one-time reference-code redemption:
// the sequence of checks and side effects that binds a members-table
// row to a guild identity, nickname and role exactly once.
package redeem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"rolegate/entity"
	"rolegate/lib/sl"
)

// Domain refusals: expected outcomes with specific user-facing text,
// not failures. Any other error collapses to a generic message at the
// front door.
var (
	ErrAlreadyRedeemed = errors.New("identity already redeemed a code")
	ErrInvalidCode     = errors.New("reference code not found")
	ErrCodeUsed        = errors.New("reference code already used")
)

// Store is the member-store surface the workflow depends on. Lookups
// return (nil, nil) when no row matches. BindDiscordId must set the
// identity only if the row is still unbound, returning
// entity.ErrNotFound otherwise, so that concurrent attempts for the
// same code have exactly one winner.
type Store interface {
	MemberByDiscordId(ctx context.Context, discordId string) (*entity.Member, error)
	MemberByReferenceCode(ctx context.Context, code string) (*entity.Member, error)
	BindDiscordId(ctx context.Context, code, discordId string) error
}

// Directory is the read/write guild surface. Role returns (nil, nil)
// for an unknown id: an absent role means nothing to assign, not an error.
type Directory interface {
	GuildMember(ctx context.Context, userId string) (*discordgo.Member, error)
	Role(ctx context.Context, roleId string) (*discordgo.Role, error)
	SetNickname(ctx context.Context, userId, nick string) error
	AddRole(ctx context.Context, userId, roleId string) error
}

// Journal records attempts that reached the side-effect phase; writes
// are best-effort and never fail a redemption.
type Journal interface {
	SaveRedemption(record *entity.RedemptionRecord) error
}

type Redeem struct {
	store   Store
	dir     Directory
	journal Journal
	log     *slog.Logger
}

func New(store Store, dir Directory, journal Journal, log *slog.Logger) *Redeem {
	if store == nil {
		panic("redeem: store is nil")
	}
	if dir == nil {
		panic("redeem: directory is nil")
	}
	return &Redeem{
		store:   store,
		dir:     dir,
		journal: journal,
		log:     log.With(sl.Module("redeem")),
	}
}

// Redeem runs the workflow for one identity and one submitted code.
// Checks run cheapest first: both store reads happen before any guild
// call, so a refused attempt never touches the external directory.
// Returns the bound member on success.
//
// Ordering matters: the self-redemption check precedes code validation
// so an already-bound identity cannot probe code validity, and the
// conditional bind is the durability point. Nickname and role are
// applied before the bind and are not rolled back when it fails; the
// journal keeps that window visible to operators.
func (r *Redeem) Redeem(ctx context.Context, discordId, code string) (*entity.Member, error) {
	log := r.log.With(
		slog.String("discord_id", discordId),
		sl.Secret("code", code),
	)

	existing, err := r.store.MemberByDiscordId(ctx, discordId)
	if err != nil {
		log.Error("identity lookup", sl.Err(err))
		return nil, fmt.Errorf("identity lookup: %w", err)
	}
	if existing != nil {
		log.Debug("identity already bound")
		return nil, ErrAlreadyRedeemed
	}

	member, err := r.store.MemberByReferenceCode(ctx, code)
	if err != nil {
		log.Error("code lookup", sl.Err(err))
		return nil, fmt.Errorf("code lookup: %w", err)
	}
	if member == nil {
		log.Debug("unknown reference code")
		return nil, ErrInvalidCode
	}
	if member.IsRedeemed() {
		log.Debug("reference code already used")
		return nil, ErrCodeUsed
	}

	// From here on the guild is touched; failures collapse to a
	// generic outcome for the user.
	if _, err = r.dir.GuildMember(ctx, discordId); err != nil {
		log.Error("guild member fetch", sl.Err(err))
		return nil, fmt.Errorf("guild member fetch: %w", err)
	}

	nickname := member.FullName()
	if err = r.dir.SetNickname(ctx, discordId, nickname); err != nil {
		log.Error("set nickname", sl.Err(err))
		return nil, fmt.Errorf("set nickname: %w", err)
	}

	roleApplied := r.applyRole(ctx, log, member, discordId)

	record := &entity.RedemptionRecord{
		DiscordId:     discordId,
		ReferenceCode: member.ReferenceCode,
		MemberId:      member.Id,
		Nickname:      nickname,
		RoleId:        member.InternalRole,
		RoleApplied:   roleApplied,
		RedeemedAt:    time.Now().UTC(),
	}

	if err = r.store.BindDiscordId(ctx, code, discordId); err != nil {
		// nickname (and possibly role) are applied but the row stayed
		// unbound: journal the attempt so an operator can reconcile
		record.Outcome = entity.RedemptionOutcomeBindFailed
		r.saveRecord(log, record)
		log.Error("bind identity", sl.Err(err))
		return nil, fmt.Errorf("bind identity: %w", err)
	}

	record.Outcome = entity.RedemptionOutcomeSuccess
	r.saveRecord(log, record)

	member.DiscordId = &discordId
	log.With(
		slog.Int64("member_id", member.Id),
		slog.Bool("role_applied", roleApplied),
	).Info("reference code redeemed")
	return member, nil
}

// applyRole adds the configured role if it still exists in the guild.
// Role failure is tolerated: nickname change is the primary guarantee
// and a vanished or unassignable role does not block success.
func (r *Redeem) applyRole(ctx context.Context, log *slog.Logger, member *entity.Member, discordId string) bool {
	if member.InternalRole == "" {
		return false
	}
	role, err := r.dir.Role(ctx, member.InternalRole)
	if err != nil {
		log.Warn("role lookup", sl.Err(err))
		return false
	}
	if role == nil {
		log.With(slog.String("role_id", member.InternalRole)).Warn("configured role not found in guild")
		return false
	}
	if err = r.dir.AddRole(ctx, discordId, role.ID); err != nil {
		log.With(slog.String("role_id", role.ID)).Warn("add role", sl.Err(err))
		return false
	}
	return true
}

func (r *Redeem) saveRecord(log *slog.Logger, record *entity.RedemptionRecord) {
	if r.journal == nil {
		return
	}
	if err := r.journal.SaveRedemption(record); err != nil {
		log.Warn("journal write", sl.Err(err))
	}
}
