package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rolegate/entity"
)

func newStore(t *testing.T) (*MySql, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &MySql{db: db, statements: make(map[string]*sql.Stmt)}, mock
}

func memberRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "batch_code", "first_name", "last_name",
		"reference_code", "internal_role", "discord_id", "created_at",
	})
}

func TestMemberByReferenceCode(t *testing.T) {
	store, mock := newStore(t)

	rows := memberRows().
		AddRow(1, "2024A", "Jane", "Doe", "abc123", "role_42", nil, time.Now())
	mock.ExpectPrepare("SELECT (.+) FROM members WHERE reference_code").
		ExpectQuery().
		WithArgs("abc123").
		WillReturnRows(rows)

	m, err := store.MemberByReferenceCode(context.Background(), "abc123")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, int64(1), m.Id)
	assert.Equal(t, "Jane", m.FirstName)
	assert.Nil(t, m.DiscordId)
	assert.False(t, m.IsRedeemed())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberByReferenceCodeAbsent(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectPrepare("SELECT (.+) FROM members WHERE reference_code").
		ExpectQuery().
		WithArgs("doesnotexist").
		WillReturnRows(memberRows())

	m, err := store.MemberByReferenceCode(context.Background(), "doesnotexist")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestMemberByDiscordIdBound(t *testing.T) {
	store, mock := newStore(t)

	rows := memberRows().
		AddRow(1, "2024A", "Jane", "Doe", "abc123", "role_42", "U1", time.Now())
	mock.ExpectPrepare("SELECT (.+) FROM members WHERE discord_id").
		ExpectQuery().
		WithArgs("U1").
		WillReturnRows(rows)

	m, err := store.MemberByDiscordId(context.Background(), "U1")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.True(t, m.IsRedeemed())
	assert.Equal(t, "U1", *m.DiscordId)
}

func TestBindDiscordIdWins(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectPrepare("UPDATE members SET(.+)discord_id = \\?(.+)WHERE reference_code = BINARY \\? AND discord_id IS NULL").
		ExpectExec().
		WithArgs("U1", "abc123").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.BindDiscordId(context.Background(), "abc123", "U1")
	assert.NoError(t, err)
}

func TestBindDiscordIdLosesRace(t *testing.T) {
	store, mock := newStore(t)

	// row already bound (or code vanished): zero rows match the guard
	mock.ExpectPrepare("UPDATE members SET(.+)discord_id = \\?").
		ExpectExec().
		WithArgs("U2", "abc123").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.BindDiscordId(context.Background(), "abc123", "U2")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestMemberCreateDuplicateCode(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectPrepare("INSERT INTO members").
		ExpectExec().
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := store.MemberCreate(context.Background(), &entity.Member{
		FirstName:     "Jane",
		LastName:      "Doe",
		ReferenceCode: "abc123",
	})
	assert.ErrorIs(t, err, entity.ErrDuplicateCode)
}

func TestMemberCreateAssignsId(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectPrepare("INSERT INTO members").
		ExpectExec().
		WillReturnResult(sqlmock.NewResult(7, 1))

	m, err := store.MemberCreate(context.Background(), &entity.Member{
		FirstName:     "Jane",
		LastName:      "Doe",
		ReferenceCode: "abc123",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), m.Id)
	assert.False(t, m.CreatedAt.IsZero())
}

func TestMemberDeleteNotFound(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectPrepare("SELECT (.+) FROM members WHERE id").
		ExpectQuery().
		WithArgs(int64(99)).
		WillReturnRows(memberRows())

	_, err := store.MemberDelete(context.Background(), 99)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestBatchCodes(t *testing.T) {
	store, mock := newStore(t)

	rows := sqlmock.NewRows([]string{"batch_code"}).AddRow("2024A").AddRow("2024B")
	mock.ExpectPrepare("SELECT DISTINCT batch_code FROM members").
		ExpectQuery().
		WillReturnRows(rows)

	codes, err := store.BatchCodes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2024A", "2024B"}, codes)
}
