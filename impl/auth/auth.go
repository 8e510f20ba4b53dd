package auth

import (
	"fmt"

	"rolegate/entity"
)

// Auth resolves admin API bearer tokens. The token table comes from the
// service configuration; this system has no user storage of its own.
type Auth struct {
	users map[string]*entity.User
}

func New(users []entity.User) *Auth {
	a := &Auth{users: make(map[string]*entity.User)}
	for i := range users {
		user := users[i]
		if user.Token == "" {
			continue
		}
		a.users[user.Token] = &user
	}
	return a
}

func (a *Auth) UserByToken(token string) (*entity.User, error) {
	user, ok := a.users[token]
	if !ok {
		return nil, fmt.Errorf("unknown token")
	}
	return user, nil
}
