package db

import (
	"encoding/json"
	"fmt"
	"strings"

	"ragsql/types"
)

// BuildSchemaDocuments turns an introspection snapshot into the natural
// language documents the vector store embeds: one per table, one per view,
// and a single document for the relationship graph.
func BuildSchemaDocuments(info *SchemaInfo) []types.SchemaDocument {
	var docs []types.SchemaDocument

	for _, name := range info.TableNames {
		table := info.Tables[name]
		docs = append(docs, types.SchemaDocument{
			Name:     name,
			Kind:     types.KindTable,
			Content:  formatTableDocument(name, table),
			RowCount: table.RowCount,
		})
	}

	for _, name := range info.ViewNames {
		docs = append(docs, types.SchemaDocument{
			Name:    name,
			Kind:    types.KindView,
			Content: formatViewDocument(name, info.Views[name]),
		})
	}

	if len(info.Relationships) > 0 {
		docs = append(docs, types.SchemaDocument{
			Name:    "database_relationships",
			Kind:    types.KindRelationships,
			Content: formatRelationshipsDocument(info.Relationships),
		})
	}

	return docs
}

func formatTableDocument(name string, table TableInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Table: %s\n", name)
	fmt.Fprintf(&b, "Description: This is a database table named %s\n", name)

	b.WriteString("Columns:\n")
	for _, col := range table.Columns {
		fmt.Fprintf(&b, "- %s (%s", col.Name, col.Type)
		if !col.Nullable {
			b.WriteString(", NOT NULL")
		}
		if col.Default != "" {
			fmt.Fprintf(&b, ", DEFAULT %s", col.Default)
		}
		b.WriteString(")\n")
	}

	if len(table.PrimaryKeys) > 0 {
		fmt.Fprintf(&b, "Primary Key: %s\n", strings.Join(table.PrimaryKeys, ", "))
	}

	for _, fk := range table.ForeignKeys {
		fmt.Fprintf(&b, "Foreign Key: %s -> %s.%s\n",
			strings.Join(fk.SourceColumns, ", "),
			fk.TargetTable,
			strings.Join(fk.TargetColumns, ", "))
	}

	if len(table.SampleRows) > 0 {
		b.WriteString("Sample data shows:\n")
		limit := len(table.SampleRows)
		if limit > 2 {
			limit = 2
		}
		for _, row := range table.SampleRows[:limit] {
			encoded, err := json.Marshal(row)
			if err != nil {
				continue
			}
			fmt.Fprintf(&b, "- %s\n", encoded)
		}
	}

	if table.RowCount.Valid {
		fmt.Fprintf(&b, "Approximate row count: %d\n", table.RowCount.Int64)
	}

	return b.String()
}

func formatViewDocument(name string, view ViewInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "View: %s\n", name)
	fmt.Fprintf(&b, "Description: This is a database view named %s\n", name)

	b.WriteString("Columns:\n")
	for _, col := range view.Columns {
		fmt.Fprintf(&b, "- %s (%s)\n", col.Name, col.Type)
	}

	return b.String()
}

func formatRelationshipsDocument(relationships []ForeignKey) string {
	var b strings.Builder
	b.WriteString("Database Relationships:\n")
	b.WriteString("This document describes the foreign key relationships between tables.\n\n")

	for _, rel := range relationships {
		fmt.Fprintf(&b, "- %s.%s references %s.%s\n",
			rel.SourceTable,
			strings.Join(rel.SourceColumns, ", "),
			rel.TargetTable,
			strings.Join(rel.TargetColumns, ", "))
	}

	return b.String()
}
