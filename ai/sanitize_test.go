package ai

import (
	"strings"
	"testing"
)

func TestCleanRawSQL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "fenced with language tag",
			in:   "```sql\nSELECT * FROM Sales\n```",
			want: "SELECT * FROM Sales",
		},
		{
			name: "fenced without tag",
			in:   "```\nSELECT 1\n```",
			want: "SELECT 1",
		},
		{
			name: "sql prefix",
			in:   "SQL: SELECT Region FROM Sales",
			want: "SELECT Region FROM Sales",
		},
		{
			name: "query prefix case insensitive",
			in:   "query:  SELECT 1",
			want: "SELECT 1",
		},
		{
			name: "line comments removed",
			in:   "SELECT Region -- grouping column\nFROM Sales",
			want: "SELECT Region FROM Sales",
		},
		{
			name: "block comments removed",
			in:   "SELECT /* all rows */ * FROM Sales",
			want: "SELECT * FROM Sales",
		},
		{
			name: "quotes stripped",
			in:   `SELECT Name FROM Users WHERE City = 'Oslo'`,
			want: "SELECT Name FROM Users WHERE City = Oslo",
		},
		{
			name: "whitespace runs collapsed",
			in:   "SELECT\n\tRegion,\n\tSUM(Amount)\nFROM   Sales",
			want: "SELECT Region, SUM(Amount) FROM Sales",
		},
		{
			name: "quote removal exposing a line comment",
			in:   "SELECT a -''- b",
			want: "SELECT a",
		},
		{
			name: "block removal exposing a line comment",
			in:   "SELECT a -/*x*/- b",
			want: "SELECT a",
		},
		{
			name: "already clean",
			in:   "SELECT 1",
			want: "SELECT 1",
		},
		{
			name: "empty",
			in:   "   \n ",
			want: "",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := CleanRawSQL(c.in); got != c.want {
				t.Errorf("CleanRawSQL(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestCleanRawSQLIdempotent(t *testing.T) {
	inputs := []string{
		"```sql\nSELECT * FROM Sales -- all\n```",
		"SQL: SELECT /* x */ 1",
		"SELECT Region,\n  SUM(Amount)\nFROM Sales",
		"SELECT a -''- b",
		"SELECT a -/*x*/- b",
		`SELECT '-' + "-" FROM T`,
	}
	for _, in := range inputs {
		once := CleanRawSQL(in)
		twice := CleanRawSQL(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
		if strings.Contains(once, "--") {
			t.Errorf("output for %q still carries a comment: %q", in, once)
		}
	}
}
