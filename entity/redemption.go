package entity

import "time"

// Redemption outcome labels stored in the journal.
const (
	RedemptionOutcomeSuccess    = "success"
	RedemptionOutcomeBindFailed = "bind_failed"
)

// RedemptionRecord is one journal entry written when a redemption
// reaches the side-effect phase. Nickname and role changes in the guild
// share no transaction with the members table; the journal is the
// operator's trail for reconciling rows left unbound after external
// state was already applied.
type RedemptionRecord struct {
	DiscordId     string    `bson:"discord_id"`
	ReferenceCode string    `bson:"reference_code"`
	MemberId      int64     `bson:"member_id"`
	Nickname      string    `bson:"nickname"`
	RoleId        string    `bson:"role_id,omitempty"`
	RoleApplied   bool      `bson:"role_applied"`
	Outcome       string    `bson:"outcome"`
	RedeemedAt    time.Time `bson:"redeemed_at"`
}
