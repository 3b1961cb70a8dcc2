package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// Config describes the target database the generated queries run against.
type Config struct {
	Type     string // postgres or mysql
	Host     string
	Port     int
	Name     string
	User     string
	Password string
}

// TargetDB owns the connection to the target database and implements query
// validation, execution and schema introspection against it.
type TargetDB struct {
	db     *sql.DB
	dbType string
	cache  *schemaCache
}

func Connect(ctx context.Context, cfg Config) (*TargetDB, error) {
	driver, dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(10)
	conn.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Printf("[DB] Connected to %s database %q on %s:%d", driver, cfg.Name, cfg.Host, cfg.Port)
	return &TargetDB{
		db:     conn,
		dbType: driver,
		cache:  &schemaCache{},
	}, nil
}

func buildDSN(cfg Config) (string, string, error) {
	switch cfg.Type {
	case "postgres", "postgresql":
		return "postgres", fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name), nil
	case "mysql":
		return "mysql", fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name), nil
	default:
		return "", "", fmt.Errorf("unsupported database type: %q", cfg.Type)
	}
}

func (t *TargetDB) Ping(ctx context.Context) error {
	return t.db.PingContext(ctx)
}

// Validate probes the statement with EXPLAIN: the planner parses and resolves
// it without touching any rows.
func (t *TargetDB) Validate(ctx context.Context, query string) (bool, string) {
	rows, err := t.db.QueryContext(ctx, "EXPLAIN "+query)
	if err != nil {
		return false, err.Error()
	}
	rows.Close()
	return true, "query is valid"
}

// Execute runs the statement and scans every row into a map keyed by column
// name. []byte cells are normalized to strings so results serialize cleanly.
func (t *TargetDB) Execute(ctx context.Context, query string) ([]map[string]any, []string, error) {
	rows, err := t.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	out := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	log.Printf("[DB] Query executed successfully, returned %d rows", len(out))
	return out, columns, nil
}

func (t *TargetDB) Close() error {
	if t.db != nil {
		t.cache.Invalidate()
		log.Println("[DB] Target database connection closed")
		return t.db.Close()
	}
	return nil
}
