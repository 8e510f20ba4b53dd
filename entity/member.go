package entity

import (
	"net/http"
	"time"

	"rolegate/lib/validate"
)

// Member is one invited person. The reference code works as a
// single-use capability: once a Discord identity is bound to it,
// DiscordId is set and the code can never be redeemed again.
type Member struct {
	Id            int64     `json:"id"`
	BatchCode     string    `json:"batch_code" validate:"omitempty,max=32"`
	FirstName     string    `json:"first_name" validate:"required,max=32"`
	LastName      string    `json:"last_name" validate:"required,max=32"`
	ReferenceCode string    `json:"reference_code" validate:"omitempty,max=64"`
	InternalRole  string    `json:"internal_role" validate:"omitempty,max=64"`
	DiscordId     *string   `json:"discord_id" validate:"omitempty,max=64"`
	CreatedAt     time.Time `json:"created_at"`
}

func (m *Member) Bind(_ *http.Request) error {
	return validate.Struct(m)
}

// FullName is the nickname applied in the guild on redemption.
func (m *Member) FullName() string {
	return m.FirstName + " " + m.LastName
}

// IsRedeemed reports whether a Discord identity is already bound.
func (m *Member) IsRedeemed() bool {
	return m.DiscordId != nil && *m.DiscordId != ""
}
