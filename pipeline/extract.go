package pipeline

import (
	"regexp"
	"strings"
)

var (
	taggedFenceRe   = regexp.MustCompile("(?is)```sql\\s*(.*?)\\s*```")
	untaggedFenceRe = regexp.MustCompile("(?s)```\\s*(.*?)\\s*```")
)

// statementKeywords open a SQL statement; clauseKeywords merely hint that a
// blob of text is SQL-ish.
var (
	statementKeywords = []string{"SELECT", "WITH", "INSERT", "UPDATE", "DELETE"}
	clauseKeywords    = []string{"SELECT", "FROM", "WHERE", "JOIN"}
)

// ExtractSQL pulls a single candidate SQL statement out of free-form model
// output. Models wrap SQL in varying amounts of prose and markdown, so the
// strategies run in order from the most explicitly delimited candidate to the
// loosest; the first hit wins. The second return is false when nothing usable
// was found.
func ExtractSQL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)

	for _, extract := range []func(string) (string, bool){
		extractTaggedFence,
		extractUntaggedFence,
		extractLineScan,
		extractKeywordFallback,
	} {
		if query, ok := extract(raw); ok {
			return query, true
		}
	}
	return "", false
}

// extractTaggedFence returns the interior of the first ```sql fenced block.
func extractTaggedFence(raw string) (string, bool) {
	if m := taggedFenceRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	return "", false
}

// extractUntaggedFence returns the interior of the first fenced block of any
// kind, provided it contains at least one statement keyword.
func extractUntaggedFence(raw string) (string, bool) {
	if m := untaggedFenceRe.FindStringSubmatch(raw); m != nil {
		interior := strings.TrimSpace(m[1])
		if containsAnyFold(interior, statementKeywords) {
			return interior, true
		}
	}
	return "", false
}

// extractLineScan finds the first line opening a SQL statement and
// accumulates until an empty line or a line ending in the statement
// terminator. Comment-only lines inside the statement are skipped.
func extractLineScan(raw string) (string, bool) {
	var sqlLines []string
	inSQL := false

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)

		if !inSQL {
			if startsWithStatementKeyword(line) {
				inSQL = true
				sqlLines = append(sqlLines, line)
				if strings.HasSuffix(line, ";") {
					break
				}
			}
			continue
		}

		if line == "" {
			break
		}
		if strings.HasPrefix(line, "--") || strings.HasPrefix(line, "#") {
			continue
		}
		sqlLines = append(sqlLines, line)
		if strings.HasSuffix(line, ";") {
			break
		}
	}

	if len(sqlLines) == 0 {
		return "", false
	}
	return strings.Join(sqlLines, "\n"), true
}

// extractKeywordFallback returns the whole text as a best-effort candidate
// when it at least mentions a SQL clause somewhere.
func extractKeywordFallback(raw string) (string, bool) {
	if containsAnyFold(raw, clauseKeywords) {
		return strings.TrimSpace(raw), true
	}
	return "", false
}

func containsAnyFold(s string, keywords []string) bool {
	upper := strings.ToUpper(s)
	for _, kw := range keywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

func startsWithStatementKeyword(line string) bool {
	upper := strings.ToUpper(line)
	for _, kw := range statementKeywords {
		if strings.HasPrefix(upper, kw) {
			return true
		}
	}
	return false
}
