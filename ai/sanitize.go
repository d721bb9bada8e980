package ai

import (
	"regexp"
	"strings"
)

var (
	fenceOpenRe    = regexp.MustCompile("(?i)```[a-z]*")
	sqlPrefixRe    = regexp.MustCompile(`(?i)\b(sql|query)\s*:\s*`)
	lineCommentRe  = regexp.MustCompile(`(?m)--.*`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// CleanRawSQL strips the formatting noise models wrap around SQL: code
// fences (with or without a language tag), "SQL:"/"Query:" prefixes,
// line and block comments, quote characters, and whitespace runs. It is
// idempotent and does no SQL-semantic validation; the SELECT-only policy
// is enforced by the prompts.
func CleanRawSQL(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}

	// One removal can expose another: stripping quotes out of "-''-"
	// leaves a "--" line comment, stripping a block comment out of
	// "-/*x*/-" does the same. Loop the passes to a fixpoint so the
	// output never carries a comment and a second call is a no-op.
	sql := input
	for {
		prev := sql
		sql = fenceOpenRe.ReplaceAllString(sql, "")
		sql = sqlPrefixRe.ReplaceAllString(sql, "")
		sql = lineCommentRe.ReplaceAllString(sql, "")
		sql = blockCommentRe.ReplaceAllString(sql, "")
		sql = strings.ReplaceAll(sql, `"`, "")
		sql = strings.ReplaceAll(sql, "'", "")
		if sql == prev {
			break
		}
	}
	sql = whitespaceRe.ReplaceAllString(sql, " ")
	return strings.TrimSpace(sql)
}
