package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"

	"rolegate/entity"
	"rolegate/internal/config"
)

const duplicateKeyErrNumber = 1062

// MySql is the member store. All shared workflow state lives here; the
// conditional update in BindDiscordId is what serializes concurrent
// redemption attempts for the same code.
type MySql struct {
	db         *sql.DB
	statements map[string]*sql.Stmt
	mu         sync.Mutex
}

func NewSQLClient(conf *config.Config) (*MySql, error) {
	connectionURI := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		conf.MySql.UserName, conf.MySql.Password, conf.MySql.HostName, conf.MySql.Port, conf.MySql.Database)
	db, err := sql.Open("mysql", connectionURI)
	if err != nil {
		return nil, fmt.Errorf("sql connect: %w", err)
	}

	// try to ping three times with a 30-second interval; wait for a database to start
	for i := 0; i < 3; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		if i == 2 {
			return nil, fmt.Errorf("ping database: %w", err)
		}
		time.Sleep(30 * time.Second)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &MySql{
		db:         db,
		statements: make(map[string]*sql.Stmt),
	}

	if err = sdb.ensureMembersTable(); err != nil {
		return nil, err
	}

	return sdb, nil
}

func (s *MySql) Close() {
	s.closeStmt()
	_ = s.db.Close()
}

// ensureMembersTable creates the members table on first start. The
// unique key on reference_code is the storage-level backstop against
// two rows ever carrying the same code.
func (s *MySql) ensureMembersTable() error {
	query := `CREATE TABLE IF NOT EXISTS members (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		batch_code VARCHAR(32) NOT NULL DEFAULT '',
		first_name VARCHAR(32) NOT NULL,
		last_name VARCHAR(32) NOT NULL,
		reference_code VARCHAR(64) NOT NULL,
		internal_role VARCHAR(64) NOT NULL DEFAULT '',
		discord_id VARCHAR(64) NULL,
		created_at DATETIME NOT NULL,
		UNIQUE KEY uq_members_reference_code (reference_code)
	)`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("ensure members table: %w", err)
	}
	return nil
}

func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == duplicateKeyErrNumber
}

func (s *MySql) scanMember(row interface {
	Scan(dest ...interface{}) error
}) (*entity.Member, error) {
	var m entity.Member
	var discordId sql.NullString
	err := row.Scan(
		&m.Id,
		&m.BatchCode,
		&m.FirstName,
		&m.LastName,
		&m.ReferenceCode,
		&m.InternalRole,
		&discordId,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if discordId.Valid {
		m.DiscordId = &discordId.String
	}
	return &m, nil
}

func (s *MySql) queryMembers(ctx context.Context, stmt *sql.Stmt, args ...interface{}) ([]*entity.Member, error) {
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*entity.Member
	for rows.Next() {
		m, err := s.scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

func (s *MySql) queryMember(ctx context.Context, stmt *sql.Stmt, args ...interface{}) (*entity.Member, error) {
	m, err := s.scanMember(stmt.QueryRowContext(ctx, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select member: %w", err)
	}
	return m, nil
}

func (s *MySql) MemberAll(ctx context.Context) ([]*entity.Member, error) {
	stmt, err := s.stmtSelectMembers()
	if err != nil {
		return nil, err
	}
	return s.queryMembers(ctx, stmt)
}

func (s *MySql) MemberById(ctx context.Context, id int64) (*entity.Member, error) {
	stmt, err := s.stmtSelectMemberById()
	if err != nil {
		return nil, err
	}
	return s.queryMember(ctx, stmt, id)
}

func (s *MySql) MemberByDiscordId(ctx context.Context, discordId string) (*entity.Member, error) {
	stmt, err := s.stmtSelectMemberByDiscordId()
	if err != nil {
		return nil, err
	}
	return s.queryMember(ctx, stmt, discordId)
}

// MemberByReferenceCode matches the stored code exactly; the BINARY
// cast forces a case-sensitive comparison regardless of collation.
func (s *MySql) MemberByReferenceCode(ctx context.Context, code string) (*entity.Member, error) {
	stmt, err := s.stmtSelectMemberByReferenceCode()
	if err != nil {
		return nil, err
	}
	return s.queryMember(ctx, stmt, code)
}

func (s *MySql) MembersByBatch(ctx context.Context, batchCode string) ([]*entity.Member, error) {
	stmt, err := s.stmtSelectMembersByBatch()
	if err != nil {
		return nil, err
	}
	return s.queryMembers(ctx, stmt, batchCode)
}

func (s *MySql) RecentMembers(ctx context.Context, limit int) ([]*entity.Member, error) {
	stmt, err := s.stmtSelectRecentMembers()
	if err != nil {
		return nil, err
	}
	return s.queryMembers(ctx, stmt, limit)
}

func (s *MySql) BatchCodes(ctx context.Context) ([]string, error) {
	stmt, err := s.stmtSelectBatchCodes()
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err = rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return codes, nil
}

func (s *MySql) MemberCreate(ctx context.Context, m *entity.Member) (*entity.Member, error) {
	stmt, err := s.stmtInsertMember()
	if err != nil {
		return nil, err
	}

	m.CreatedAt = time.Now().UTC().Truncate(time.Second)
	var discordId sql.NullString
	if m.DiscordId != nil {
		discordId = sql.NullString{String: *m.DiscordId, Valid: true}
	}

	res, err := stmt.ExecContext(ctx,
		m.BatchCode, m.FirstName, m.LastName, m.ReferenceCode, m.InternalRole, discordId, m.CreatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, entity.ErrDuplicateCode
		}
		return nil, fmt.Errorf("insert member: %w", err)
	}

	m.Id, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert member id: %w", err)
	}
	return m, nil
}

// MemberUpdate changes the administrative fields only; the reference
// code and the binding are immutable through this path.
func (s *MySql) MemberUpdate(ctx context.Context, m *entity.Member) (*entity.Member, error) {
	stmt, err := s.stmtUpdateMember()
	if err != nil {
		return nil, err
	}
	res, err := stmt.ExecContext(ctx, m.BatchCode, m.FirstName, m.LastName, m.InternalRole, m.Id)
	if err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update member affected: %w", err)
	}
	if affected == 0 {
		// a no-op update of an existing row also reports 0; distinguish
		// by re-reading before declaring the row missing
		existing, err := s.MemberById(ctx, m.Id)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, entity.ErrNotFound
		}
	}
	return s.MemberById(ctx, m.Id)
}

func (s *MySql) MemberDelete(ctx context.Context, id int64) (*entity.Member, error) {
	m, err := s.MemberById(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, entity.ErrNotFound
	}

	stmt, err := s.stmtDeleteMember()
	if err != nil {
		return nil, err
	}
	if _, err = stmt.ExecContext(ctx, id); err != nil {
		return nil, fmt.Errorf("delete member: %w", err)
	}
	return m, nil
}

// BindDiscordId attaches an identity to a reference code at most once.
// The WHERE clause only matches a row whose discord_id is still unset,
// so of two racing attempts exactly one observes an affected row; the
// loser gets entity.ErrNotFound.
func (s *MySql) BindDiscordId(ctx context.Context, code, discordId string) error {
	stmt, err := s.stmtBindDiscordId()
	if err != nil {
		return err
	}
	res, err := stmt.ExecContext(ctx, discordId, code)
	if err != nil {
		return fmt.Errorf("bind discord id: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("bind discord id affected: %w", err)
	}
	if affected == 0 {
		return entity.ErrNotFound
	}
	return nil
}
