package ai

import (
	"fmt"
	"strings"
)

// Prompt builders for every pipeline stage. Each returns a system and a
// user prompt; closed-output contracts (intent tokens, SQL-only replies)
// are spelled out in the system prompt because the prompt is the main
// guard, not post-hoc parsing.

// BuildDistillPrompt asks for a natural-language digest of the schema
// context sufficient to write SQL, without producing any SQL itself.
// tableNames is the authoritative list of tables in the database and is
// included to pin the model to tables that actually exist.
func BuildDistillPrompt(question, contextBlock string, tableNames []string) (systemPrompt, userPrompt string) {
	var sys strings.Builder
	sys.WriteString("You are a professional database expert.\n")
	sys.WriteString("You will produce the digest needed to write a SQL SELECT query.\n")
	sys.WriteString("You will be given table names, columns and a JSON or text description of each relevant table.\n")
	sys.WriteString("Find the tables relevant to the user's question inside the supplied context and summarize them.\n")
	sys.WriteString("Stay strictly inside the supplied context: do not invent tables, columns or relationships.\n")
	sys.WriteString("The digest must be written so a language model can produce SQL from it.\n")
	sys.WriteString("Write at least 10 and at most 20 paragraphs.\n")
	sys.WriteString("Do NOT include any SQL in the digest.\n")
	sys.WriteString("List the needed tables and their columns, and double-check every table and column name.\n")
	sys.WriteString("Table names in this database: ")
	sys.WriteString(strings.Join(tableNames, ", "))

	var user strings.Builder
	user.WriteString("Produce a digest from which the requested SQL can be written. Do not go outside the supplied context.\n\n")
	user.WriteString("Question: ")
	user.WriteString(question)
	user.WriteString("\n\nRelevant tables, their columns and descriptions (JSON or text):\n")
	user.WriteString(contextBlock)

	return sys.String(), user.String()
}

// BuildSQLSynthesisPrompt asks for exactly one SELECT statement from the
// digest produced by BuildDistillPrompt.
func BuildSQLSynthesisPrompt(question, digest string, tableNames []string) (systemPrompt, userPrompt string) {
	var sys strings.Builder
	sys.WriteString("You are a SQL generator. Return only a valid SQL SELECT statement.\n")
	sys.WriteString("Rules:\n")
	sys.WriteString("- Produce only the SQL query: no explanation, no text, no markdown.\n")
	sys.WriteString("- Use table and column names exactly as given in the context; do not invent names.\n")
	sys.WriteString("- Verify every table and column exists before using it.\n")
	sys.WriteString("- You will produce ONLY a SELECT query.\n")
	sys.WriteString("- When the question needs multiple tables, use their relationships with JOIN, LEFT JOIN, INNER JOIN or RIGHT JOIN.\n")
	sys.WriteString("- Embed literal values directly; no bind variables or parameters.\n")
	sys.WriteString("- INSERT/UPDATE/DELETE/CREATE are strictly forbidden.\n")
	sys.WriteString("- WITH common table expressions are allowed when useful. DML/DDL is not.\n")
	sys.WriteString("- Table names in this database: ")
	sys.WriteString(strings.Join(tableNames, ", "))

	var user strings.Builder
	user.WriteString("Question: ")
	user.WriteString(question)
	user.WriteString("\n\nReturn only SQL. No code fences, no explanation.\n\n")
	user.WriteString("The full digest is below; write the SQL query from it:\n")
	user.WriteString(digest)

	return sys.String(), user.String()
}

// BuildExplanationPrompt asks for a prose answer grounded in the schema
// context, for questions that want an explanation rather than data.
func BuildExplanationPrompt(question, contextBlock string) (systemPrompt, userPrompt string) {
	var sys strings.Builder
	sys.WriteString("You are a professional database expert.\n")
	sys.WriteString("Using the table descriptions supplied, write the explanation the user is asking for.\n")
	sys.WriteString("Do not invent anything: understand the question and answer it from the supplied context only.\n")

	var user strings.Builder
	user.WriteString("Write an explanation for the question below. Do not go outside the supplied context.\n\n")
	user.WriteString("Question: ")
	user.WriteString(question)
	user.WriteString("\n\nRelevant tables, their columns and descriptions (JSON or text):\n")
	user.WriteString(contextBlock)

	return sys.String(), user.String()
}

// BuildCorrectionPrompt asks the model to fix a SQL statement that
// failed to execute, given the error it produced and the digest it was
// generated from.
func BuildCorrectionPrompt(question, failedSQL, execError, digest string) (systemPrompt, userPrompt string) {
	var sys strings.Builder
	sys.WriteString("You are a professional database and SQL expert.\n")
	sys.WriteString("A user asked a question, a SQL query was generated for it, and the query failed to run. You will fix it.\n")
	sys.WriteString("You will be given the user's question, the generated SQL, the execution error, and the digest used to generate the SQL.\n")
	sys.WriteString("Search the digest, understand the error, and write the corrected SQL.\n")
	sys.WriteString("Stay strictly inside the digest: do not invent tables or columns.\n")
	sys.WriteString("Reply with only the corrected SQL SELECT statement.\n")

	var user strings.Builder
	user.WriteString("User's question: ")
	user.WriteString(question)
	user.WriteString("\nGenerated SQL: ")
	user.WriteString(failedSQL)
	user.WriteString("\nError while executing: ")
	user.WriteString(execError)
	user.WriteString("\nDigest the SQL was generated from:\n")
	user.WriteString(digest)
	user.WriteString("\n\nFix the SQL using the information above and return only SQL. No code fences, no explanation.")

	return sys.String(), user.String()
}

// BuildIntentPrompt asks for exactly one of the three intent tokens.
func BuildIntentPrompt(question string) (systemPrompt, userPrompt string) {
	var sys strings.Builder
	sys.WriteString("You are a professional intent classifier.\n")
	sys.WriteString("From the user's question you will return exactly one of three values:\n")
	sys.WriteString("1- If the user only wants an explanation, return \"TEXT_ONLY\"\n")
	sys.WriteString("2- If the user only wants to see the data, return \"TABLE_ONLY\"\n")
	sys.WriteString("3- If the user wants a chart, return \"DRAW_GRAPHIC\"\n")
	sys.WriteString("Return only one of these three values. Add nothing else.")

	var user strings.Builder
	user.WriteString("User's question: ")
	user.WriteString(question)
	user.WriteString("\n\nClassify the user's intent and return exactly one of: \"TEXT_ONLY\", \"TABLE_ONLY\", \"DRAW_GRAPHIC\"")

	return sys.String(), user.String()
}

// BuildChartPrompt asks for a self-contained HTML document visualizing
// the result rows with Apache ECharts from a CDN. The model may choose
// between a chart and a table when the user did not specify.
func BuildChartPrompt(question, digest, sql, dataJSON string) (systemPrompt, userPrompt string) {
	var sys strings.Builder
	sys.WriteString("You are a professional software developer.\n")
	sys.WriteString("You will be given the user's question, the AI-generated digest, the AI-generated SQL query, and the resulting data as JSON.\n")
	sys.WriteString("Use them to build the visualization as a single HTML document with Apache ECharts.\n")
	sys.WriteString("Return the HTML directly. Use a CDN reference for Apache ECharts.\n")
	sys.WriteString("Titles and labels must match the content.\n")
	sys.WriteString("Use only the supplied data; do not fabricate values.\n")
	sys.WriteString("If the user asked for a specific chart type, build that.\n")
	sys.WriteString("If not, decide yourself whether a chart or a table fits better and build that.\n")
	sys.WriteString("Do not put any comments inside the generated HTML or JavaScript.")

	return sys.String(), buildRenderUserPrompt(question, digest, sql, dataJSON)
}

// BuildTablePrompt is the table-only renderer variant: same inputs as
// BuildChartPrompt but the system instruction forbids charts.
func BuildTablePrompt(question, digest, sql, dataJSON string) (systemPrompt, userPrompt string) {
	var sys strings.Builder
	sys.WriteString("You are a professional software developer.\n")
	sys.WriteString("You will be given the user's question, the AI-generated digest, the AI-generated SQL query, and the resulting data as JSON.\n")
	sys.WriteString("Use them to build a table as a single HTML document with Apache ECharts.\n")
	sys.WriteString("Return the HTML directly. Use a CDN reference for Apache ECharts.\n")
	sys.WriteString("Titles and labels must match the content.\n")
	sys.WriteString("Use only the supplied data; do not fabricate values.\n")
	sys.WriteString("Build only a table. Do not build any chart.\n")
	sys.WriteString("Do not put any comments inside the generated HTML or JavaScript.")

	return sys.String(), buildRenderUserPrompt(question, digest, sql, dataJSON)
}

func buildRenderUserPrompt(question, digest, sql, dataJSON string) string {
	var user strings.Builder
	user.WriteString("User's question: ")
	user.WriteString(question)
	user.WriteString("\n\nAI database digest: ")
	user.WriteString(digest)
	user.WriteString("\n\nAI SQL query: ")
	user.WriteString(sql)
	user.WriteString("\n\nResulting data:\n")
	user.WriteString(dataJSON)
	user.WriteString("\n\nGenerate the code. Output only code, no comments or anything else.")
	return user.String()
}

// BuildTableSummaryPrompt is used by the indexing job: it asks for a
// natural-language summary of one table's JSON description.
func BuildTableSummaryPrompt(tableJSON string) (systemPrompt, userPrompt string) {
	var sys strings.Builder
	sys.WriteString("You are a data model analyst.\n")
	sys.WriteString("The JSON below describes a single table of a relational database: its columns, keys and foreign-key relationships.\n")
	sys.WriteString("Write a clear natural-language summary of what the table stores, its important columns, and how it relates to other tables.\n")
	sys.WriteString("Mention column names exactly as written. Do not invent columns or relationships.\n")
	sys.WriteString("Return only the summary text.")

	user := fmt.Sprintf("Table JSON:\n%s", tableJSON)
	return sys.String(), user
}
