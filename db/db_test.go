package db

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockTarget(t *testing.T) (*TargetDB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &TargetDB{db: conn, dbType: "postgres", cache: &schemaCache{}}, mock
}

func TestValidate_OK(t *testing.T) {
	target, mock := newMockTarget(t)

	mock.ExpectQuery("EXPLAIN SELECT id FROM orders").
		WillReturnRows(sqlmock.NewRows([]string{"QUERY PLAN"}).AddRow("Seq Scan on orders"))

	ok, msg := target.Validate(context.Background(), "SELECT id FROM orders")
	assert.True(t, ok)
	assert.Equal(t, "query is valid", msg)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidate_Invalid(t *testing.T) {
	target, mock := newMockTarget(t)

	mock.ExpectQuery("EXPLAIN SELECT totall FROM orders").
		WillReturnError(errors.New(`column "totall" does not exist`))

	ok, msg := target.Validate(context.Background(), "SELECT totall FROM orders")
	assert.False(t, ok)
	assert.Contains(t, msg, "does not exist")
}

func TestExecute_ScansRowsIntoMaps(t *testing.T) {
	target, mock := newMockTarget(t)

	mock.ExpectQuery("SELECT id, name FROM customers").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), []byte("Alice")).
			AddRow(int64(2), []byte("Bob")))

	rows, columns, err := target.Execute(context.Background(), "SELECT id, name FROM customers")
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name"}, columns)
	require.Len(t, rows, 2)
	// []byte cells come back as strings.
	assert.Equal(t, map[string]any{"id": int64(1), "name": "Alice"}, rows[0])
	assert.Equal(t, map[string]any{"id": int64(2), "name": "Bob"}, rows[1])
}

func TestExecute_EmptyResult(t *testing.T) {
	target, mock := newMockTarget(t)

	mock.ExpectQuery("SELECT id FROM orders").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rows, columns, err := target.Execute(context.Background(), "SELECT id FROM orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, columns)
	assert.Empty(t, rows)
	assert.NotNil(t, rows)
}

func TestExecute_QueryError(t *testing.T) {
	target, mock := newMockTarget(t)

	mock.ExpectQuery("SELECT \\* FROM missing").
		WillReturnError(errors.New(`relation "missing" does not exist`))

	_, _, err := target.Execute(context.Background(), "SELECT * FROM missing")
	assert.Error(t, err)
}

func TestBuildDSN(t *testing.T) {
	driver, dsn, err := buildDSN(Config{Type: "postgres", Host: "localhost", Port: 5432, Name: "analytics", User: "app", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", driver)
	assert.Equal(t, "host=localhost port=5432 user=app password=secret dbname=analytics sslmode=disable", dsn)

	driver, dsn, err = buildDSN(Config{Type: "mysql", Host: "db", Port: 3306, Name: "analytics", User: "app", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "mysql", driver)
	assert.Equal(t, "app:secret@tcp(db:3306)/analytics?parseTime=true", dsn)

	_, _, err = buildDSN(Config{Type: "sqlite"})
	assert.Error(t, err)
}

func TestSchemaInfo_CachesAndInvalidates(t *testing.T) {
	target, _ := newMockTarget(t)

	cached := &SchemaInfo{TableNames: []string{"orders"}}
	target.cache.set(cached)

	// A cached snapshot is returned without touching the database.
	info, err := target.SchemaInfo(context.Background())
	require.NoError(t, err)
	assert.Same(t, cached, info)

	target.InvalidateSchemaCache()
	assert.Nil(t, target.cache.get())
}
