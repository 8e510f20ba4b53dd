// Package core is the admin service behind the HTTP API: member CRUD
// with server-side reference-code generation, guild role listing and
// the redemption journal view.
package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"rolegate/entity"
	"rolegate/lib/sl"
)

const recentMembersLimit = 5

type Store interface {
	MemberAll(ctx context.Context) ([]*entity.Member, error)
	MemberCreate(ctx context.Context, m *entity.Member) (*entity.Member, error)
	MemberUpdate(ctx context.Context, m *entity.Member) (*entity.Member, error)
	MemberDelete(ctx context.Context, id int64) (*entity.Member, error)
	MembersByBatch(ctx context.Context, batchCode string) ([]*entity.Member, error)
	RecentMembers(ctx context.Context, limit int) ([]*entity.Member, error)
	BatchCodes(ctx context.Context) ([]string, error)
}

type Directory interface {
	Roles(ctx context.Context) ([]*entity.Role, error)
}

type Journal interface {
	RecentRedemptions(limit int64) ([]*entity.RedemptionRecord, error)
}

type AuthService interface {
	UserByToken(token string) (*entity.User, error)
}

type Core struct {
	store   Store
	dir     Directory
	journal Journal
	auth    AuthService
	log     *slog.Logger
}

func New(store Store, dir Directory, log *slog.Logger) *Core {
	if store == nil {
		panic("core: store is nil")
	}
	return &Core{
		store: store,
		dir:   dir,
		log:   log.With(sl.Module("core")),
	}
}

func (c *Core) SetAuthService(auth AuthService) {
	c.auth = auth
}

func (c *Core) SetJournal(journal Journal) {
	c.journal = journal
}

func (c *Core) AuthenticateByToken(token string) (*entity.User, error) {
	if c.auth == nil {
		return nil, fmt.Errorf("auth service not connected")
	}
	return c.auth.UserByToken(token)
}

func (c *Core) MemberList(ctx context.Context) ([]*entity.Member, error) {
	return c.store.MemberAll(ctx)
}

// MemberCreate issues a fresh reference code; callers never supply one.
func (c *Core) MemberCreate(ctx context.Context, m *entity.Member) (*entity.Member, error) {
	m.Id = 0
	m.DiscordId = nil
	m.ReferenceCode = uuid.NewString()

	created, err := c.store.MemberCreate(ctx, m)
	if err != nil {
		return nil, err
	}
	c.log.With(
		slog.Int64("member_id", created.Id),
		sl.Secret("reference_code", created.ReferenceCode),
	).Info("member created")
	return created, nil
}

func (c *Core) MemberUpdate(ctx context.Context, m *entity.Member) (*entity.Member, error) {
	return c.store.MemberUpdate(ctx, m)
}

func (c *Core) MemberDelete(ctx context.Context, id int64) (*entity.Member, error) {
	deleted, err := c.store.MemberDelete(ctx, id)
	if err != nil {
		return nil, err
	}
	c.log.With(slog.Int64("member_id", id)).Info("member deleted")
	return deleted, nil
}

func (c *Core) MembersByBatch(ctx context.Context, batchCode string) ([]*entity.Member, error) {
	return c.store.MembersByBatch(ctx, batchCode)
}

func (c *Core) RecentMembers(ctx context.Context) ([]*entity.Member, error) {
	return c.store.RecentMembers(ctx, recentMembersLimit)
}

func (c *Core) BatchCodes(ctx context.Context) ([]string, error) {
	return c.store.BatchCodes(ctx)
}

func (c *Core) GuildRoles(ctx context.Context) ([]*entity.Role, error) {
	if c.dir == nil {
		return nil, fmt.Errorf("guild directory not connected")
	}
	return c.dir.Roles(ctx)
}

func (c *Core) RecentRedemptions(_ context.Context, limit int64) ([]*entity.RedemptionRecord, error) {
	if c.journal == nil {
		return nil, entity.ErrJournalDisabled
	}
	return c.journal.RecentRedemptions(limit)
}
