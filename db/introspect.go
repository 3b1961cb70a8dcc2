package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
)

type ColumnInfo struct {
	Name     string
	Type     string
	Nullable bool
	Default  string
}

type ForeignKey struct {
	Constraint    string
	SourceTable   string
	SourceColumns []string
	TargetTable   string
	TargetColumns []string
}

type TableInfo struct {
	Columns     []ColumnInfo
	PrimaryKeys []string
	ForeignKeys []ForeignKey
	SampleRows  []map[string]any
	RowCount    sql.NullInt64
}

type ViewInfo struct {
	Columns []ColumnInfo
}

type SchemaInfo struct {
	TableNames    []string // introspection order, sorted
	ViewNames     []string
	Tables        map[string]TableInfo
	Views         map[string]ViewInfo
	Relationships []ForeignKey
}

// schemaCache holds the last introspection snapshot. Nothing repopulates it
// implicitly; refresh goes through Invalidate.
type schemaCache struct {
	mu   sync.Mutex
	info *SchemaInfo
}

func (c *schemaCache) get() *SchemaInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info
}

func (c *schemaCache) set(info *SchemaInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.info = info
}

func (c *schemaCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.info = nil
}

func (t *TargetDB) InvalidateSchemaCache() {
	t.cache.Invalidate()
}

const sampleRowLimit = 3

// SchemaInfo returns the cached introspection snapshot, running a full
// introspection pass on first use or after InvalidateSchemaCache.
func (t *TargetDB) SchemaInfo(ctx context.Context) (*SchemaInfo, error) {
	if info := t.cache.get(); info != nil {
		return info, nil
	}

	info, err := t.introspect(ctx)
	if err != nil {
		return nil, err
	}
	t.cache.set(info)
	log.Printf("[DB] Schema information cached for %d tables and %d views", len(info.Tables), len(info.Views))
	return info, nil
}

func (t *TargetDB) introspect(ctx context.Context) (*SchemaInfo, error) {
	info := &SchemaInfo{
		Tables: make(map[string]TableInfo),
		Views:  make(map[string]ViewInfo),
	}

	tableNames, err := t.listRelations(ctx, "BASE TABLE")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	viewNames, err := t.listRelations(ctx, "VIEW")
	if err != nil {
		return nil, fmt.Errorf("failed to list views: %w", err)
	}
	info.TableNames = tableNames
	info.ViewNames = viewNames

	for _, name := range tableNames {
		table, err := t.tableInfo(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to introspect table %q: %w", name, err)
		}
		info.Tables[name] = table
		info.Relationships = append(info.Relationships, table.ForeignKeys...)
	}

	for _, name := range viewNames {
		columns, err := t.columnInfo(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to introspect view %q: %w", name, err)
		}
		info.Views[name] = ViewInfo{Columns: columns}
	}

	return info, nil
}

func (t *TargetDB) tableInfo(ctx context.Context, table string) (TableInfo, error) {
	columns, err := t.columnInfo(ctx, table)
	if err != nil {
		return TableInfo{}, err
	}

	pks, err := t.primaryKeys(ctx, table)
	if err != nil {
		return TableInfo{}, err
	}

	fks, err := t.foreignKeys(ctx, table)
	if err != nil {
		return TableInfo{}, err
	}

	info := TableInfo{
		Columns:     columns,
		PrimaryKeys: pks,
		ForeignKeys: fks,
	}

	// Sample data and row count are best effort: a table we cannot read is
	// still worth describing.
	sample, _, err := t.Execute(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", table, sampleRowLimit))
	if err != nil {
		log.Printf("[DB] Could not get sample data for %s: %v", table, err)
	} else {
		info.SampleRows = sample
	}

	var count int64
	if err := t.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
		log.Printf("[DB] Could not get row count for %s: %v", table, err)
	} else {
		info.RowCount = sql.NullInt64{Int64: count, Valid: true}
	}

	return info, nil
}

// schemaFilter restricts information_schema lookups to the schema the
// generated queries actually see.
func (t *TargetDB) schemaFilter() string {
	if t.dbType == "mysql" {
		return "table_schema = DATABASE()"
	}
	return "table_schema = 'public'"
}

func (t *TargetDB) bindVar(i int) string {
	if t.dbType == "mysql" {
		return "?"
	}
	return fmt.Sprintf("$%d", i)
}

func (t *TargetDB) listRelations(ctx context.Context, tableType string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT table_name FROM information_schema.tables
		WHERE %s AND table_type = %s
		ORDER BY table_name`, t.schemaFilter(), t.bindVar(1))

	rows, err := t.db.QueryContext(ctx, query, tableType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (t *TargetDB) columnInfo(ctx context.Context, table string) ([]ColumnInfo, error) {
	query := fmt.Sprintf(`
		SELECT column_name, data_type, is_nullable, COALESCE(column_default, '')
		FROM information_schema.columns
		WHERE %s AND table_name = %s
		ORDER BY ordinal_position`, t.schemaFilter(), t.bindVar(1))

	rows, err := t.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []ColumnInfo
	for rows.Next() {
		var col ColumnInfo
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Default); err != nil {
			return nil, err
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (t *TargetDB) primaryKeys(ctx context.Context, table string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name AND tc.table_name = kcu.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.%s AND tc.table_name = %s
		ORDER BY kcu.ordinal_position`, t.schemaFilter(), t.bindVar(1))

	rows, err := t.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (t *TargetDB) foreignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	var query string
	if t.dbType == "mysql" {
		query = `
			SELECT constraint_name, column_name, referenced_table_name, referenced_column_name
			FROM information_schema.key_column_usage
			WHERE table_schema = DATABASE() AND table_name = ? AND referenced_table_name IS NOT NULL
			ORDER BY constraint_name, ordinal_position`
	} else {
		query = `
			SELECT tc.constraint_name, kcu.column_name, ccu.table_name, ccu.column_name
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
			  ON tc.constraint_name = kcu.constraint_name
			JOIN information_schema.constraint_column_usage ccu
			  ON tc.constraint_name = ccu.constraint_name
			WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = 'public' AND tc.table_name = $1
			ORDER BY tc.constraint_name, kcu.ordinal_position`
	}

	rows, err := t.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// Composite keys arrive as one row per column; group by constraint name.
	byConstraint := make(map[string]*ForeignKey)
	var order []string
	for rows.Next() {
		var constraint, sourceCol, targetTable, targetCol string
		if err := rows.Scan(&constraint, &sourceCol, &targetTable, &targetCol); err != nil {
			return nil, err
		}
		fk, ok := byConstraint[constraint]
		if !ok {
			fk = &ForeignKey{
				Constraint:  constraint,
				SourceTable: table,
				TargetTable: targetTable,
			}
			byConstraint[constraint] = fk
			order = append(order, constraint)
		}
		fk.SourceColumns = append(fk.SourceColumns, sourceCol)
		fk.TargetColumns = append(fk.TargetColumns, targetCol)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	fks := make([]ForeignKey, 0, len(order))
	for _, name := range order {
		fks = append(fks, *byConstraint[name])
	}
	return fks, nil
}
