package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"askdb/config"
	"askdb/models"
)

const summaryTable = "ASKDB_DB_SUMMARIES"

// MssqlConnector implements DbConnector against SQL Server. One pooled
// *sql.DB is shared; each operation takes a short-lived connection from
// the pool and is never held across pipeline stages.
type MssqlConnector struct {
	db           *sql.DB
	databaseName string
	schema       string
}

var _ DbConnector = (*MssqlConnector)(nil)

func NewMssqlConnector(cfg config.SQLServerConfig) (*MssqlConnector, error) {
	if cfg.Server == "" || cfg.Database == "" {
		return nil, fmt.Errorf("SQL Server configuration is incomplete")
	}

	db, err := sql.Open("sqlserver", buildConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQL Server connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		// Log a warning but do not fail service initialization, so the
		// application can start while SQL Server is temporarily down.
		log.Printf("Warning: failed to ping SQL Server during initialization: %v", err)
	}

	return &MssqlConnector{db: db, databaseName: cfg.Database, schema: cfg.Schema}, nil
}

// NewMssqlConnectorFromDB wraps an existing handle; used by tests.
func NewMssqlConnectorFromDB(db *sql.DB, databaseName, schema string) *MssqlConnector {
	return &MssqlConnector{db: db, databaseName: databaseName, schema: schema}
}

func buildConnectionString(cfg config.SQLServerConfig) string {
	connStr := fmt.Sprintf("server=%s;port=%s;database=%s", cfg.Server, cfg.Port, cfg.Database)

	if cfg.UserID != "" {
		connStr += fmt.Sprintf(";user id=%s;password=%s", cfg.UserID, cfg.Password)
	} else {
		connStr += ";trusted_connection=true"
	}

	if cfg.Encrypt {
		// TLS without CA verification so self-signed / internal certs work.
		connStr += ";encrypt=true;TrustServerCertificate=true"
	} else {
		connStr += ";encrypt=false"
	}

	return connStr
}

func (m *MssqlConnector) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

func (m *MssqlConnector) DatabaseName() string { return m.databaseName }
func (m *MssqlConnector) Schema() string       { return m.schema }

func (m *MssqlConnector) IsConnected() bool {
	if m.db == nil {
		return false
	}
	return m.db.Ping() == nil
}

// ExecuteRawSQLToJSON runs the statement and returns the rows as a JSON
// array of column-keyed objects.
func (m *MssqlConnector) ExecuteRawSQLToJSON(ctx context.Context, sqlText string) (string, error) {
	if m.db == nil {
		return "", fmt.Errorf("SQL Server connection is not initialized")
	}

	rows, err := m.db.QueryContext(ctx, sqlText)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return "", err
	}

	result := []map[string]interface{}{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return "", err
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			switch v := values[i].(type) {
			case nil:
				row[col] = nil
			case []byte:
				row[col] = string(v)
			default:
				row[col] = v
			}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to marshal rows: %w", err)
	}
	return string(data), nil
}

// GetDbMap introspects the database: base tables with their columns and
// foreign-key relationships. The summary table is excluded.
func (m *MssqlConnector) GetDbMap(ctx context.Context) (*models.DatabaseMap, error) {
	if m.db == nil {
		return nil, fmt.Errorf("SQL Server connection is not initialized")
	}

	tables, err := m.listTables(ctx)
	if err != nil {
		return nil, err
	}

	for i := range tables {
		cols, err := m.listColumns(ctx, tables[i].Schema, tables[i].Name)
		if err != nil {
			return nil, err
		}
		tables[i].Columns = cols

		rels, err := m.listRelations(ctx, tables[i].Schema, tables[i].Name)
		if err != nil {
			return nil, err
		}
		tables[i].Relations = rels
	}

	return &models.DatabaseMap{Database: m.databaseName, Tables: tables}, nil
}

func (m *MssqlConnector) listTables(ctx context.Context) ([]models.TableInfo, error) {
	query := `
		SELECT t.TABLE_SCHEMA, t.TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES t
		WHERE t.TABLE_TYPE = 'BASE TABLE'
		  AND t.TABLE_NAME <> @p1
		  AND (@p2 = '' OR t.TABLE_SCHEMA = @p2)
		ORDER BY t.TABLE_SCHEMA, t.TABLE_NAME`

	rows, err := m.db.QueryContext(ctx, query, summaryTable, m.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []models.TableInfo
	for rows.Next() {
		var t models.TableInfo
		if err := rows.Scan(&t.Schema, &t.Name); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (m *MssqlConnector) listColumns(ctx context.Context, schema, table string) ([]models.ColumnInfo, error) {
	query := `
		SELECT
			c.COLUMN_NAME,
			c.DATA_TYPE,
			CASE WHEN c.IS_NULLABLE = 'YES' THEN 1 ELSE 0 END,
			CASE WHEN pk.COLUMN_NAME IS NULL THEN 0 ELSE 1 END
		FROM INFORMATION_SCHEMA.COLUMNS c
		LEFT JOIN (
			SELECT ku.TABLE_SCHEMA, ku.TABLE_NAME, ku.COLUMN_NAME
			FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
			JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE ku
			  ON tc.CONSTRAINT_NAME = ku.CONSTRAINT_NAME
			WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
		) pk ON pk.TABLE_SCHEMA = c.TABLE_SCHEMA AND pk.TABLE_NAME = c.TABLE_NAME AND pk.COLUMN_NAME = c.COLUMN_NAME
		WHERE c.TABLE_SCHEMA = @p1 AND c.TABLE_NAME = @p2
		ORDER BY c.ORDINAL_POSITION`

	rows, err := m.db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns for %s.%s: %w", schema, table, err)
	}
	defer rows.Close()

	var cols []models.ColumnInfo
	for rows.Next() {
		var c models.ColumnInfo
		var nullable, primary int
		if err := rows.Scan(&c.Name, &c.DataType, &nullable, &primary); err != nil {
			return nil, err
		}
		c.IsNullable = nullable == 1
		c.IsPrimary = primary == 1
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func (m *MssqlConnector) listRelations(ctx context.Context, schema, table string) ([]models.Relation, error) {
	query := `
		SELECT
			fc.name,
			pc.name AS ref_column,
			OBJECT_NAME(f.referenced_object_id) AS ref_table,
			f.name AS constraint_name
		FROM sys.foreign_keys f
		JOIN sys.foreign_key_columns fkc ON f.object_id = fkc.constraint_object_id
		JOIN sys.columns fc ON fkc.parent_object_id = fc.object_id AND fkc.parent_column_id = fc.column_id
		JOIN sys.columns pc ON fkc.referenced_object_id = pc.object_id AND fkc.referenced_column_id = pc.column_id
		WHERE OBJECT_SCHEMA_NAME(f.parent_object_id) = @p1
		  AND OBJECT_NAME(f.parent_object_id) = @p2`

	rows, err := m.db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list relations for %s.%s: %w", schema, table, err)
	}
	defer rows.Close()

	var rels []models.Relation
	for rows.Next() {
		var r models.Relation
		if err := rows.Scan(&r.Column, &r.RefColumn, &r.RefTable, &r.ConstraintRef); err != nil {
			return nil, err
		}
		rels = append(rels, r)
	}
	return rels, rows.Err()
}

// CreateSummaryTable creates the app table holding per-table AI
// summaries when it does not exist.
func (m *MssqlConnector) CreateSummaryTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		IF NOT EXISTS (SELECT 1 FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_NAME = '%s')
		CREATE TABLE %s (
			TableName NVARCHAR(256) NOT NULL PRIMARY KEY,
			RawJson NVARCHAR(MAX) NULL,
			AISummary NVARCHAR(MAX) NULL,
			UpdatedAt DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME()
		)`, summaryTable, summaryTable)
	_, err := m.db.ExecContext(ctx, query)
	return err
}

// DropSummaryTable removes all stored summaries (used by forced
// reindexing).
func (m *MssqlConnector) DropSummaryTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		IF EXISTS (SELECT 1 FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_NAME = '%s')
		DROP TABLE %s`, summaryTable, summaryTable)
	_, err := m.db.ExecContext(ctx, query)
	return err
}

// GetTableSummary returns the stored summary for a table, or nils when
// none exists.
func (m *MssqlConnector) GetTableSummary(ctx context.Context, tableName string) (rawJSON, aiSummary string, found bool, err error) {
	query := fmt.Sprintf("SELECT RawJson, AISummary FROM %s WHERE TableName = @p1", summaryTable)
	row := m.db.QueryRowContext(ctx, query, tableName)

	var raw, summary sql.NullString
	if err := row.Scan(&raw, &summary); err != nil {
		if err == sql.ErrNoRows {
			return "", "", false, nil
		}
		return "", "", false, err
	}
	return raw.String, summary.String, true, nil
}

// SaveTableSummary upserts a table's summary row.
func (m *MssqlConnector) SaveTableSummary(ctx context.Context, tableName, rawJSON, aiSummary string) error {
	query := fmt.Sprintf(`
		MERGE %s AS target
		USING (SELECT @p1 AS TableName) AS source
		ON target.TableName = source.TableName
		WHEN MATCHED THEN
			UPDATE SET RawJson = @p2, AISummary = @p3, UpdatedAt = SYSUTCDATETIME()
		WHEN NOT MATCHED THEN
			INSERT (TableName, RawJson, AISummary) VALUES (@p1, @p2, @p3);`, summaryTable)
	_, err := m.db.ExecContext(ctx, query, tableName, rawJSON, aiSummary)
	return err
}
