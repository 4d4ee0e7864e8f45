package repository

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/littleseedlimited/caseview-bot/internal/models"
)

func caseRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "account_id", "ref_code", "title", "description", "analysis",
		"scenario", "qa_log", "status", "created_at", "updated_at",
	}).AddRow(
		"c1", "a1", "ABC-001", "Land Dispute", "facts", []byte(`{"category":"Property Law"}`),
		[]byte(`{}`), []byte(`[]`), string(models.CaseOpen), now, now,
	)
}

func TestCreateCase(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectExec("INSERT INTO cases").WillReturnResult(sqlmock.NewResult(1, 1))

	c := &models.Case{AccountID: "a1", RefCode: "ABC-001", Title: "Land Dispute", Description: "facts"}
	err := repo.Create(context.Background(), c)
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, models.CaseOpen, c.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A case assembled without a simulation or Q&A must still round-trip: the
// JSON columns get empty documents instead of NULL, which json.RawMessage
// cannot scan.
func TestCreateCaseDefaultsEmptyJSONColumns(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectExec("INSERT INTO cases").WillReturnResult(sqlmock.NewResult(1, 1))

	c := &models.Case{AccountID: "a1", RefCode: "CASE-1", Title: "t", Analysis: json.RawMessage(`{"category":"Tort"}`)}
	require.NoError(t, repo.Create(context.Background(), c))
	assert.Equal(t, json.RawMessage(`{"category":"Tort"}`), c.Analysis)
	assert.Equal(t, json.RawMessage(`{}`), c.Scenario)
	assert.Equal(t, json.RawMessage(`[]`), c.QALog)
	assert.False(t, c.HasScenario())
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Rows written before the empty-document default carry NULLs; the read
// queries must coalesce them into scannable JSON.
func TestCaseSelectsCoalesceNullJSON(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectQuery(`SELECT .*COALESCE\(scenario, '\{\}'\).* FROM cases WHERE id = \$1 LIMIT 1`).
		WithArgs("c1").
		WillReturnRows(caseRows(time.Now()))

	c, err := repo.FindByID(context.Background(), "c1")
	require.NoError(t, err)
	assert.False(t, c.HasScenario())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindCaseByRef(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectQuery("SELECT .+ FROM cases WHERE account_id = \\$1 AND ref_code = \\$2 LIMIT 1").
		WithArgs("a1", "ABC-001").
		WillReturnRows(caseRows(time.Now()))

	c, err := repo.FindByRef(context.Background(), "a1", "ABC-001")
	require.NoError(t, err)
	assert.Equal(t, "Land Dispute", c.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByAccountOrdered(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectQuery("SELECT .+ FROM cases WHERE account_id = \\$1 ORDER BY created_at ASC").
		WithArgs("a1").
		WillReturnRows(caseRows(time.Now()))

	cases, err := repo.ListByAccount(context.Background(), "a1")
	require.NoError(t, err)
	assert.Len(t, cases, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByOrg(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	rows := sqlmock.NewRows([]string{"count"}).AddRow(7)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM cases c JOIN accounts a ON a.id = c.account_id WHERE a.org_code = $1")).
		WithArgs("ABC").
		WillReturnRows(rows)

	count, err := repo.CountByOrg(context.Background(), "ABC")
	require.NoError(t, err)
	assert.Equal(t, 7, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateQALog(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE cases SET qa_log = $2, updated_at = $3 WHERE id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	log, _ := json.Marshal([]models.QAEntry{{Question: "q", Answer: "a"}})
	err := repo.UpdateQALog(context.Background(), "c1", log)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCase(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cases WHERE id = $1")).
		WithArgs("c1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), "c1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
