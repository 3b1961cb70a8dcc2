package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSQL_TaggedFence(t *testing.T) {
	raw := "```sql\nSELECT 1\n```"
	got, ok := ExtractSQL(raw)
	require.True(t, ok)
	assert.Equal(t, "SELECT 1", got)
}

func TestExtractSQL_TaggedFenceWithProse(t *testing.T) {
	raw := "Here is the query you asked for:\n\n```sql\nSELECT name, total\nFROM orders\nWHERE total > 100\n```\n\nHope that helps!"
	got, ok := ExtractSQL(raw)
	require.True(t, ok)
	assert.Equal(t, "SELECT name, total\nFROM orders\nWHERE total > 100", got)
}

func TestExtractSQL_TaggedFenceCaseInsensitive(t *testing.T) {
	raw := "```SQL\nselect count(*) from users\n```"
	got, ok := ExtractSQL(raw)
	require.True(t, ok)
	assert.Equal(t, "select count(*) from users", got)
}

func TestExtractSQL_UntaggedFenceWithKeyword(t *testing.T) {
	raw := "The statement:\n```\nDELETE FROM sessions WHERE expired = true\n```"
	got, ok := ExtractSQL(raw)
	require.True(t, ok)
	assert.Equal(t, "DELETE FROM sessions WHERE expired = true", got)
}

func TestExtractSQL_UntaggedFenceWithoutKeywordIgnored(t *testing.T) {
	// The fence holds no SQL, and the surrounding text has no clause
	// keywords either, so nothing is extracted.
	raw := "```\njust some notes\n```"
	_, ok := ExtractSQL(raw)
	assert.False(t, ok)
}

func TestExtractSQL_LineScanStopsAtTerminator(t *testing.T) {
	raw := "Sure! Here's the result:\n\nSELECT * FROM orders WHERE id = 1;\n\nLet me know if you need more."
	got, ok := ExtractSQL(raw)
	require.True(t, ok)
	assert.Equal(t, "SELECT * FROM orders WHERE id = 1;", got)
}

func TestExtractSQL_LineScanMultiLine(t *testing.T) {
	raw := "The query below answers that.\n\nSELECT customer_id, SUM(total) AS revenue\n-- group per customer\nFROM orders\nGROUP BY customer_id;\n\nAnything else?"
	got, ok := ExtractSQL(raw)
	require.True(t, ok)
	assert.Equal(t, "SELECT customer_id, SUM(total) AS revenue\nFROM orders\nGROUP BY customer_id;", got)
}

func TestExtractSQL_LineScanStopsAtEmptyLine(t *testing.T) {
	raw := "Try this\n\nWITH recent AS (SELECT 1)\nSELECT * FROM recent\n\ntrailing prose without keywords here"
	got, ok := ExtractSQL(raw)
	require.True(t, ok)
	assert.Equal(t, "WITH recent AS (SELECT 1)\nSELECT * FROM recent", got)
}

func TestExtractSQL_KeywordFallback(t *testing.T) {
	raw := "you could look at the rows FROM the orders table"
	got, ok := ExtractSQL(raw)
	require.True(t, ok)
	assert.Equal(t, raw, got)
}

func TestExtractSQL_NothingFound(t *testing.T) {
	got, ok := ExtractSQL("I cannot answer this.")
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestExtractSQL_Idempotent(t *testing.T) {
	first, ok := ExtractSQL("```sql\nSELECT COUNT(*) FROM orders WHERE order_date = CURRENT_DATE - 1\n```")
	require.True(t, ok)

	// Re-extracting from the own output wrapped in a fresh fence yields the
	// same statement.
	second, ok := ExtractSQL("```sql\n" + first + "\n```")
	require.True(t, ok)
	assert.Equal(t, first, second)

	third, ok := ExtractSQL(second)
	require.True(t, ok)
	assert.Equal(t, first, third)
}
