package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"askdb/config"
)

func newMockConnector(t *testing.T) (*MssqlConnector, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewMssqlConnectorFromDB(db, "SalesDW", "dbo"), mock
}

func TestExecuteRawSQLToJSON(t *testing.T) {
	conn, mock := newMockConnector(t)

	rows := sqlmock.NewRows([]string{"Region", "Total"}).
		AddRow("West", 42).
		AddRow([]byte("East"), 17)
	mock.ExpectQuery("SELECT Region").WillReturnRows(rows)

	got, err := conn.ExecuteRawSQLToJSON(context.Background(), "SELECT Region, Total FROM dbo.Sales")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	want := `[{"Region":"West","Total":42},{"Region":"East","Total":17}]`
	if got != want {
		t.Errorf("json = %s, want %s", got, want)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestExecuteRawSQLToJSONEmptyResult(t *testing.T) {
	conn, mock := newMockConnector(t)
	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"A"}))

	got, err := conn.ExecuteRawSQLToJSON(context.Background(), "SELECT A FROM T")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	// An empty array, never null: renderers expect a JSON list.
	if got != "[]" {
		t.Errorf("json = %q, want []", got)
	}
}

func TestExecuteRawSQLToJSONPassesErrorThrough(t *testing.T) {
	conn, mock := newMockConnector(t)
	mock.ExpectQuery("SELECT").WillReturnError(errors.New("Invalid column name 'Amount'"))

	_, err := conn.ExecuteRawSQLToJSON(context.Background(), "SELECT Amount FROM dbo.Sales")
	if err == nil || !strings.Contains(err.Error(), "Invalid column name") {
		t.Errorf("err = %v, want the engine error passed through", err)
	}
}

func TestGetTableSummaryNotFound(t *testing.T) {
	conn, mock := newMockConnector(t)
	mock.ExpectQuery("SELECT RawJson, AISummary").
		WithArgs("Sales").
		WillReturnRows(sqlmock.NewRows([]string{"RawJson", "AISummary"}))

	_, _, found, err := conn.GetTableSummary(context.Background(), "Sales")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if found {
		t.Error("found = true for a missing row")
	}
}

func TestGetTableSummaryFound(t *testing.T) {
	conn, mock := newMockConnector(t)
	mock.ExpectQuery("SELECT RawJson, AISummary").
		WithArgs("Sales").
		WillReturnRows(sqlmock.NewRows([]string{"RawJson", "AISummary"}).
			AddRow(`{"name":"Sales"}`, "Stores sales facts."))

	raw, summary, found, err := conn.GetTableSummary(context.Background(), "Sales")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !found || raw != `{"name":"Sales"}` || summary != "Stores sales facts." {
		t.Errorf("got (%q, %q, %v)", raw, summary, found)
	}
}

func TestSaveTableSummaryUpserts(t *testing.T) {
	conn, mock := newMockConnector(t)
	mock.ExpectExec("MERGE ASKDB_DB_SUMMARIES").
		WithArgs("Sales", `{"name":"Sales"}`, "Stores sales facts.").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := conn.SaveTableSummary(context.Background(), "Sales", `{"name":"Sales"}`, "Stores sales facts."); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestBuildConnectionString(t *testing.T) {
	cfg := config.SQLServerConfig{
		Server:   "db01",
		Port:     "1433",
		Database: "SalesDW",
		Schema:   "dbo",
		UserID:   "app",
		Password: "secret",
		Encrypt:  true,
	}
	got := buildConnectionString(cfg)
	for _, part := range []string{"server=db01", "port=1433", "database=SalesDW", "user id=app", "password=secret", "encrypt=true", "TrustServerCertificate=true"} {
		if !strings.Contains(got, part) {
			t.Errorf("connection string missing %q: %s", part, got)
		}
	}

	cfg.UserID = ""
	cfg.Encrypt = false
	got = buildConnectionString(cfg)
	if !strings.Contains(got, "trusted_connection=true") {
		t.Errorf("expected trusted connection without a user id: %s", got)
	}
	if !strings.Contains(got, "encrypt=false") {
		t.Errorf("expected encrypt=false: %s", got)
	}
}
