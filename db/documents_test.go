package db

import (
	"database/sql"
	"testing"

	"ragsql/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSchemaInfo() *SchemaInfo {
	return &SchemaInfo{
		TableNames: []string{"customers", "orders"},
		ViewNames:  []string{"daily_revenue"},
		Tables: map[string]TableInfo{
			"customers": {
				Columns: []ColumnInfo{
					{Name: "id", Type: "integer", Nullable: false, Default: "nextval('customers_id_seq')"},
					{Name: "name", Type: "text", Nullable: false},
					{Name: "email", Type: "text", Nullable: true},
				},
				PrimaryKeys: []string{"id"},
				SampleRows: []map[string]any{
					{"id": int64(1), "name": "Alice"},
					{"id": int64(2), "name": "Bob"},
					{"id": int64(3), "name": "Carol"},
				},
				RowCount: sql.NullInt64{Int64: 1200, Valid: true},
			},
			"orders": {
				Columns: []ColumnInfo{
					{Name: "id", Type: "integer", Nullable: false},
					{Name: "customer_id", Type: "integer", Nullable: false},
				},
				PrimaryKeys: []string{"id"},
				ForeignKeys: []ForeignKey{{
					Constraint:    "orders_customer_id_fkey",
					SourceTable:   "orders",
					SourceColumns: []string{"customer_id"},
					TargetTable:   "customers",
					TargetColumns: []string{"id"},
				}},
			},
		},
		Views: map[string]ViewInfo{
			"daily_revenue": {Columns: []ColumnInfo{
				{Name: "day", Type: "date"},
				{Name: "revenue", Type: "numeric"},
			}},
		},
		Relationships: []ForeignKey{{
			Constraint:    "orders_customer_id_fkey",
			SourceTable:   "orders",
			SourceColumns: []string{"customer_id"},
			TargetTable:   "customers",
			TargetColumns: []string{"id"},
		}},
	}
}

func TestBuildSchemaDocuments_OrderAndKinds(t *testing.T) {
	docs := BuildSchemaDocuments(sampleSchemaInfo())
	require.Len(t, docs, 4)

	assert.Equal(t, "customers", docs[0].Name)
	assert.Equal(t, types.KindTable, docs[0].Kind)
	assert.Equal(t, "orders", docs[1].Name)
	assert.Equal(t, types.KindTable, docs[1].Kind)
	assert.Equal(t, "daily_revenue", docs[2].Name)
	assert.Equal(t, types.KindView, docs[2].Kind)
	assert.Equal(t, "database_relationships", docs[3].Name)
	assert.Equal(t, types.KindRelationships, docs[3].Kind)
}

func TestBuildSchemaDocuments_TableContent(t *testing.T) {
	docs := BuildSchemaDocuments(sampleSchemaInfo())

	content := docs[0].Content
	assert.Contains(t, content, "Table: customers")
	assert.Contains(t, content, "- id (integer, NOT NULL, DEFAULT nextval('customers_id_seq'))")
	assert.Contains(t, content, "- email (text)")
	assert.Contains(t, content, "Primary Key: id")
	assert.Contains(t, content, "Approximate row count: 1200")

	// Sample data is capped at two rows.
	assert.Contains(t, content, `"name":"Alice"`)
	assert.Contains(t, content, `"name":"Bob"`)
	assert.NotContains(t, content, "Carol")

	assert.Contains(t, docs[1].Content, "Foreign Key: customer_id -> customers.id")

	require.True(t, docs[0].RowCount.Valid)
	assert.Equal(t, int64(1200), docs[0].RowCount.Int64)
}

func TestBuildSchemaDocuments_ViewAndRelationships(t *testing.T) {
	docs := BuildSchemaDocuments(sampleSchemaInfo())

	assert.Contains(t, docs[2].Content, "View: daily_revenue")
	assert.Contains(t, docs[2].Content, "- revenue (numeric)")

	assert.Contains(t, docs[3].Content, "- orders.customer_id references customers.id")
}

func TestBuildSchemaDocuments_NoRelationships(t *testing.T) {
	info := &SchemaInfo{
		TableNames: []string{"events"},
		Tables: map[string]TableInfo{
			"events": {Columns: []ColumnInfo{{Name: "id", Type: "integer"}}},
		},
	}

	docs := BuildSchemaDocuments(info)
	require.Len(t, docs, 1)
	assert.Equal(t, types.KindTable, docs[0].Kind)
}
