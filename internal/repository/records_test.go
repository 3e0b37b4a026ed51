package repository

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/liamcryan/ieuler/internal/models"
)

const (
	selectRecordsSQL = `SELECT id, solved, correct_answer, completed_on, code FROM records WHERE user_login = $1 ORDER BY id`
	selectCodeSQL    = `SELECT code FROM records WHERE user_login = $1 AND id = $2 FOR UPDATE`
	upsertRecordSQL  = `INSERT INTO records (user_login, id, solved, correct_answer, completed_on, code) VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (user_login, id) DO UPDATE SET solved = COALESCE(EXCLUDED.solved, records.solved), correct_answer = COALESCE(EXCLUDED.correct_answer, records.correct_answer), completed_on = COALESCE(EXCLUDED.completed_on, records.completed_on), code = COALESCE(EXCLUDED.code, records.code)`
)

func setupRecordMock(t *testing.T) (*PostgresRecordRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewPostgresRecordRepository(db)
	cleanup := func() { db.Close() }
	return repo, mock, cleanup
}

func TestRecordsForUser_Success(t *testing.T) {
	repo, mock, cleanup := setupRecordMock(t)
	defer cleanup()

	login := "euler"
	rows := sqlmock.NewRows([]string{"id", "solved", "correct_answer", "completed_on", "code"}).
		AddRow(1, true, "233168", "Sun, 31 Aug 2026, 10:15", `{"python":{"filename":"1.py","filecontent":"print(233168)"}}`).
		AddRow(2, nil, nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta(selectRecordsSQL)).
		WithArgs(login).
		WillReturnRows(rows)

	records, err := repo.RecordsForUser(context.Background(), login)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d; want 2", len(records))
	}
	if records[0].Solved == nil || !*records[0].Solved {
		t.Errorf("record 1 solved = %v; want true", records[0].Solved)
	}
	if records[0].CorrectAnswer != "233168" {
		t.Errorf("record 1 answer = %q; want %q", records[0].CorrectAnswer, "233168")
	}
	wantCode := map[string]models.CodeEntry{
		"python": {Filename: "1.py", FileContent: "print(233168)"},
	}
	if !reflect.DeepEqual(records[0].Code, wantCode) {
		t.Errorf("record 1 code = %+v; want %+v", records[0].Code, wantCode)
	}
	if records[1].Solved != nil || records[1].Code != nil {
		t.Errorf("record 2 should have no progress, got %+v", records[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRecordsForUser_BadCodeBlob(t *testing.T) {
	repo, mock, cleanup := setupRecordMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "solved", "correct_answer", "completed_on", "code"}).
		AddRow(1, nil, nil, nil, "not-a-json")
	mock.ExpectQuery(regexp.QuoteMeta(selectRecordsSQL)).
		WithArgs("euler").
		WillReturnRows(rows)

	if _, err := repo.RecordsForUser(context.Background(), "euler"); err == nil {
		t.Errorf("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUpsertRecords_Success(t *testing.T) {
	repo, mock, cleanup := setupRecordMock(t)
	defer cleanup()

	login := "euler"
	solved := true
	records := []models.SyncRecord{
		{ID: 1, Solved: &solved, CorrectAnswer: "233168", CompletedOn: "Sun, 31 Aug 2026, 10:15"},
		{ID: 7, Code: map[string]models.CodeEntry{"python": {Filename: "7.py", FileContent: "print(104743)"}}},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(upsertRecordSQL)).
		WithArgs(login, 1, true, "233168", "Sun, 31 Aug 2026, 10:15", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectCodeSQL)).
		WithArgs(login, 7).
		WillReturnRows(sqlmock.NewRows([]string{"code"}))
	mock.ExpectExec(regexp.QuoteMeta(upsertRecordSQL)).
		WithArgs(login, 7, nil, nil, nil, `{"python":{"filename":"7.py","filecontent":"print(104743)"}}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.UpsertRecords(context.Background(), login, records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUpsertRecords_MergesCodePerLanguage(t *testing.T) {
	repo, mock, cleanup := setupRecordMock(t)
	defer cleanup()

	login := "euler"
	records := []models.SyncRecord{
		{ID: 7, Code: map[string]models.CodeEntry{"node": {Filename: "7.js", FileContent: "console.log(104743)"}}},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectCodeSQL)).
		WithArgs(login, 7).
		WillReturnRows(sqlmock.NewRows([]string{"code"}).
			AddRow(`{"python":{"filename":"7.py","filecontent":"print(104743)"}}`))
	// Stored python entry survives next to the pushed node entry.
	mock.ExpectExec(regexp.QuoteMeta(upsertRecordSQL)).
		WithArgs(login, 7, nil, nil, nil,
			`{"node":{"filename":"7.js","filecontent":"console.log(104743)"},"python":{"filename":"7.py","filecontent":"print(104743)"}}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.UpsertRecords(context.Background(), login, records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUpsertRecords_BadStoredCodeBlob(t *testing.T) {
	repo, mock, cleanup := setupRecordMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectCodeSQL)).
		WithArgs("euler", 7).
		WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow("not-a-json"))
	mock.ExpectRollback()

	err := repo.UpsertRecords(context.Background(), "euler", []models.SyncRecord{
		{ID: 7, Code: map[string]models.CodeEntry{"node": {Filename: "7.js"}}},
	})
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUpsertRecords_InvalidIDRollsBack(t *testing.T) {
	repo, mock, cleanup := setupRecordMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := repo.UpsertRecords(context.Background(), "euler", []models.SyncRecord{{ID: 0}})
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUpsertRecords_ExecErrorRollsBack(t *testing.T) {
	repo, mock, cleanup := setupRecordMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO records`)).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err := repo.UpsertRecords(context.Background(), "euler", []models.SyncRecord{{ID: 1}})
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
