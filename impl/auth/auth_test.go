package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rolegate/entity"
)

func TestUserByToken(t *testing.T) {
	a := New([]entity.User{
		{Username: "admin", Token: "secret-token"},
		{Username: "empty"},
	})

	user, err := a.UserByToken("secret-token")
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)

	_, err = a.UserByToken("wrong")
	assert.Error(t, err)

	// users without a token are never resolvable
	_, err = a.UserByToken("")
	assert.Error(t, err)
}
