package entity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemberBindValidation(t *testing.T) {
	tests := []struct {
		name    string
		member  Member
		wantErr bool
	}{
		{
			name:   "valid",
			member: Member{FirstName: "Jane", LastName: "Doe", BatchCode: "2024A"},
		},
		{
			name:    "missing first name",
			member:  Member{LastName: "Doe"},
			wantErr: true,
		},
		{
			name:    "missing last name",
			member:  Member{FirstName: "Jane"},
			wantErr: true,
		},
		{
			name:    "first name too long",
			member:  Member{FirstName: strings.Repeat("x", 33), LastName: "Doe"},
			wantErr: true,
		},
		{
			name:    "batch code too long",
			member:  Member{FirstName: "Jane", LastName: "Doe", BatchCode: strings.Repeat("b", 33)},
			wantErr: true,
		},
		{
			name:    "internal role too long",
			member:  Member{FirstName: "Jane", LastName: "Doe", InternalRole: strings.Repeat("r", 65)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.member.Bind(nil)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMemberFullName(t *testing.T) {
	m := Member{FirstName: "Jane", LastName: "Doe"}
	assert.Equal(t, "Jane Doe", m.FullName())
}

func TestMemberIsRedeemed(t *testing.T) {
	m := Member{}
	assert.False(t, m.IsRedeemed())

	empty := ""
	m.DiscordId = &empty
	assert.False(t, m.IsRedeemed())

	id := "U1"
	m.DiscordId = &id
	assert.True(t, m.IsRedeemed())
}
