package database

import (
	"database/sql"
	"fmt"
)

const memberColumns = "id, batch_code, first_name, last_name, reference_code, internal_role, discord_id, created_at"

func (s *MySql) prepareStmt(name, query string) (*sql.Stmt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stmt, ok := s.statements[name]; ok {
		return stmt, nil
	}

	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("prepare statement [%s]: %w", name, err)
	}

	s.statements[name] = stmt
	return stmt, nil
}

func (s *MySql) closeStmt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, stmt := range s.statements {
		_ = stmt.Close()
		delete(s.statements, name)
	}
}

func (s *MySql) stmtSelectMembers() (*sql.Stmt, error) {
	query := fmt.Sprintf(`SELECT %s FROM members ORDER BY id`, memberColumns)
	return s.prepareStmt("selectMembers", query)
}

func (s *MySql) stmtSelectMemberById() (*sql.Stmt, error) {
	query := fmt.Sprintf(`SELECT %s FROM members WHERE id = ?`, memberColumns)
	return s.prepareStmt("selectMemberById", query)
}

func (s *MySql) stmtSelectMemberByDiscordId() (*sql.Stmt, error) {
	query := fmt.Sprintf(`SELECT %s FROM members WHERE discord_id = ?`, memberColumns)
	return s.prepareStmt("selectMemberByDiscordId", query)
}

func (s *MySql) stmtSelectMemberByReferenceCode() (*sql.Stmt, error) {
	query := fmt.Sprintf(`SELECT %s FROM members WHERE reference_code = BINARY ?`, memberColumns)
	return s.prepareStmt("selectMemberByReferenceCode", query)
}

func (s *MySql) stmtSelectMembersByBatch() (*sql.Stmt, error) {
	query := fmt.Sprintf(`SELECT %s FROM members WHERE batch_code = ? ORDER BY id`, memberColumns)
	return s.prepareStmt("selectMembersByBatch", query)
}

func (s *MySql) stmtSelectRecentMembers() (*sql.Stmt, error) {
	query := fmt.Sprintf(`SELECT %s FROM members ORDER BY created_at DESC LIMIT ?`, memberColumns)
	return s.prepareStmt("selectRecentMembers", query)
}

func (s *MySql) stmtSelectBatchCodes() (*sql.Stmt, error) {
	query := `SELECT DISTINCT batch_code FROM members ORDER BY batch_code`
	return s.prepareStmt("selectBatchCodes", query)
}

func (s *MySql) stmtInsertMember() (*sql.Stmt, error) {
	query := `INSERT INTO members
                   (batch_code, first_name, last_name, reference_code, internal_role, discord_id, created_at)
                   VALUES (?, ?, ?, ?, ?, ?, ?)`
	return s.prepareStmt("insertMember", query)
}

func (s *MySql) stmtUpdateMember() (*sql.Stmt, error) {
	query := `UPDATE members SET
                   batch_code = ?,
                   first_name = ?,
                   last_name = ?,
                   internal_role = ?
                   WHERE id = ?`
	return s.prepareStmt("updateMember", query)
}

func (s *MySql) stmtDeleteMember() (*sql.Stmt, error) {
	query := `DELETE FROM members WHERE id = ?`
	return s.prepareStmt("deleteMember", query)
}

func (s *MySql) stmtBindDiscordId() (*sql.Stmt, error) {
	query := `UPDATE members SET
                   discord_id = ?
                   WHERE reference_code = BINARY ? AND discord_id IS NULL`
	return s.prepareStmt("bindDiscordId", query)
}
