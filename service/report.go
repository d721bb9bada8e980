package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"askdb/ai"
	"askdb/models"
	"askdb/retry"
	"askdb/vector"
)

const repairMaxAttempts = 3

// pipelineResult accumulates the per-request state that flows between
// stages. It lives for one Ask call and is never persisted; only the
// final answer text becomes a chat turn.
type pipelineResult struct {
	Digest       string
	GeneratedSQL string
	Data         string
	Rendered     string
	Err          error
}

// tableCtx is one retrieved schema fragment.
type tableCtx struct {
	Schema  string
	Table   string
	Summary string
}

// ReportService runs the question-to-answer pipeline: intent
// classification, schema-context retrieval, two-step SQL generation,
// execution with model-assisted repair, and result rendering.
type ReportService struct {
	chatRepo  ChatRepository
	chatAI    ai.Provider
	embedAI   ai.Provider
	vec       VectorSearcher
	connector DbConnector
	settings  DbMapProvider
}

func NewReportService(chatRepo ChatRepository, chatAI, embedAI ai.Provider, vec VectorSearcher, connector DbConnector, settings DbMapProvider) *ReportService {
	return &ReportService{
		chatRepo:  chatRepo,
		chatAI:    chatAI,
		embedAI:   embedAI,
		vec:       vec,
		connector: connector,
		settings:  settings,
	}
}

// topK scales the context budget sub-linearly with the number of
// indexed tables, bounded so the prompt never starves or overflows.
func topK(numTables int) int {
	k := int(math.Round(math.Sqrt(float64(numTables)) + 4))
	if k < 6 {
		k = 6
	}
	if k > 20 {
		k = 20
	}
	return k
}

func buildContextText(ctxs []tableCtx) string {
	sections := make([]string, 0, len(ctxs))
	for _, c := range ctxs {
		sections = append(sections, fmt.Sprintf("### [%s].[%s]\n%s", c.Schema, c.Table, c.Summary))
	}
	return strings.Join(sections, "\n\n")
}

func payloadString(payload map[string]interface{}, key string) string {
	if v, ok := payload[key].(string); ok && v != "" {
		return v
	}
	return "?"
}

// RetrieveContext embeds the question and fetches the nearest table
// summaries for this database. No hits means an empty context block,
// not an error; retrieval never fabricates tables.
func (r *ReportService) RetrieveContext(ctx context.Context, question string) (string, error) {
	qVec, err := r.embedAI.EmbedText(ctx, question)
	if err != nil {
		return "", err
	}

	numTables := 0
	if dbMap, err := r.settings.GetDbMapFast(ctx); err == nil {
		numTables = len(dbMap.Tables)
	} else {
		log.Printf("[REPORT] db map unavailable for topK sizing: %v", err)
	}

	hits, err := r.vec.Search(ctx, qVec, topK(numTables), []vector.Condition{
		{Key: "db", Value: r.connector.DatabaseName()},
		{Key: "kind", Value: "table_summary"},
	})
	if err != nil {
		return "", err
	}

	contexts := make([]tableCtx, 0, len(hits))
	for _, h := range hits {
		contexts = append(contexts, tableCtx{
			Schema:  payloadString(h.Payload, "schema"),
			Table:   payloadString(h.Payload, "table"),
			Summary: "Summary: " + payloadString(h.Payload, "text"),
		})
	}
	return buildContextText(contexts), nil
}

func (r *ReportService) tableNames(ctx context.Context) []string {
	dbMap, err := r.settings.GetDbMapFast(ctx)
	if err != nil {
		log.Printf("[REPORT] table name list unavailable: %v", err)
		return nil
	}
	names := make([]string, 0, len(dbMap.Tables))
	for _, t := range dbMap.Tables {
		names = append(names, t.Name)
	}
	return names
}

// GenerateQuestionSQL runs the two-step generation: first distill the
// raw context into a digest, then synthesize SQL from the digest alone.
// The digest keeps the final SQL prompt small and grounded.
func (r *ReportService) GenerateQuestionSQL(ctx context.Context, question, contextBlock string) (*pipelineResult, error) {
	names := r.tableNames(ctx)

	system, user := ai.BuildDistillPrompt(question, contextBlock, names)
	digest, err := r.chatAI.Chat(ctx, system, user, nil)
	if err != nil {
		return nil, fmt.Errorf("distillation failed: %w", err)
	}

	system, user = ai.BuildSQLSynthesisPrompt(question, digest, names)
	rawSQL, err := r.chatAI.Chat(ctx, system, user, nil)
	if err != nil {
		return nil, fmt.Errorf("SQL synthesis failed: %w", err)
	}

	return &pipelineResult{
		Digest:       digest,
		GeneratedSQL: ai.CleanRawSQL(rawSQL),
	}, nil
}

// GenerateTextExplanation answers prose-only questions straight from
// the retrieved context, no SQL involved.
func (r *ReportService) GenerateTextExplanation(ctx context.Context, question, contextBlock string) (string, error) {
	system, user := ai.BuildExplanationPrompt(question, contextBlock)
	return r.chatAI.Chat(ctx, system, user, nil)
}

// CorrectSQL asks the model to repair a failed statement given the
// execution error and the digest the statement came from.
func (r *ReportService) CorrectSQL(ctx context.Context, question string, res *pipelineResult, execError string) (string, error) {
	system, user := ai.BuildCorrectionPrompt(question, res.GeneratedSQL, execError, res.Digest)
	fixed, err := r.chatAI.Chat(ctx, system, user, nil)
	if err != nil {
		return "", err
	}
	return ai.CleanRawSQL(fixed), nil
}

// DetectIntent classifies the question into one of the three intent
// tokens. Any other or empty reply maps to TEXT_ONLY.
func (r *ReportService) DetectIntent(ctx context.Context, question string) (string, error) {
	system, user := ai.BuildIntentPrompt(question)
	reply, err := r.chatAI.Chat(ctx, system, user, nil)
	if err != nil {
		return models.IntentTextOnly, err
	}
	switch intent := strings.TrimSpace(strings.Trim(strings.TrimSpace(reply), `"'`)); intent {
	case models.IntentTableOnly, models.IntentDrawGraphic, models.IntentTextOnly:
		return intent, nil
	default:
		return models.IntentTextOnly, nil
	}
}

// executeWithRepair runs the generated SQL; on failure the model is
// asked to correct it and the corrected statement is re-executed, up to
// repairMaxAttempts times. Each repair sees the error of the attempt
// right before it.
func (r *ReportService) executeWithRepair(ctx context.Context, question string, res *pipelineResult) (string, error) {
	return retry.ExecuteWithFallback(
		func() (string, error) {
			return r.connector.ExecuteRawSQLToJSON(ctx, res.GeneratedSQL)
		},
		func(lastErr error) (string, error) {
			fixed, err := r.CorrectSQL(ctx, question, res, lastErr.Error())
			if err != nil {
				return "", err
			}
			res.GeneratedSQL = fixed
			return r.connector.ExecuteRawSQLToJSON(ctx, res.GeneratedSQL)
		},
		retry.Options{
			AlternativeMaxRetries: repairMaxAttempts,
			OnFallback: func(err error) {
				log.Printf("[REPORT] execution failed, asking model to repair: %v", err)
			},
			OnAlternativeRetry: func(err error, wait time.Duration, attempt int) {
				log.Printf("[REPORT] repair attempt #%d failed, retrying in %v: %v", attempt, wait, err)
			},
		},
	)
}

// RenderChart asks for a self-contained ECharts HTML document; the
// model may pick chart or table when the user did not specify.
func (r *ReportService) RenderChart(ctx context.Context, question string, res *pipelineResult) (string, error) {
	system, user := ai.BuildChartPrompt(question, res.Digest, res.GeneratedSQL, res.Data)
	return r.chatAI.Chat(ctx, system, user, nil)
}

// RenderTable is the table-only renderer variant.
func (r *ReportService) RenderTable(ctx context.Context, question string, res *pipelineResult) (string, error) {
	system, user := ai.BuildTablePrompt(question, res.Digest, res.GeneratedSQL, res.Data)
	return r.chatAI.Chat(ctx, system, user, nil)
}

// Ask runs one full question-answering transaction. Every external
// call is wrapped so its failure becomes a captured error on the
// answer; the caller always gets a response turn, even if it only
// carries the error text.
func (r *ReportService) Ask(ctx context.Context, req models.AskRequest) models.Answer {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = models.DefaultChatSessionID
	}

	if err := r.chatRepo.AddChatHistory(models.ChatTurn{
		SessionID: sessionID,
		Role:      "user",
		Content:   req.Question,
	}); err != nil {
		log.Printf("[REPORT] history save error: %v", err)
	}

	start := time.Now()
	ans := models.Answer{}
	res := &pipelineResult{}

	intent, err := r.DetectIntent(ctx, req.Question)
	if err != nil {
		log.Printf("[REPORT] intent detection failed, defaulting to %s: %v", models.IntentTextOnly, err)
		res.Err = err
	}
	ans.DetectedIntent = intent

	contextBlock, err := r.RetrieveContext(ctx, req.Question)
	if err != nil {
		// Degrade gracefully: answer generation continues with an
		// empty context rather than failing the whole request.
		log.Printf("[REPORT] context retrieval failed, continuing without context: %v", err)
		res.Err = err
		contextBlock = ""
	}

	switch intent {
	case models.IntentTableOnly:
		r.runSQLBranch(ctx, req.Question, contextBlock, res, r.RenderTable)
	case models.IntentDrawGraphic:
		r.runSQLBranch(ctx, req.Question, contextBlock, res, r.RenderChart)
	default:
		explanation, err := r.GenerateTextExplanation(ctx, req.Question, contextBlock)
		if err != nil {
			res.Err = err
		} else {
			res.Err = nil
			res.Data = explanation
		}
	}

	ans.Answer = res.Data
	ans.HTML = res.Rendered
	if res.Err != nil {
		ans.Error = res.Err.Error()
	}
	ans.ElapsedMinutes = elapsedMinutes(time.Since(start))

	content := ans.HTML
	isHTML := content != ""
	if content == "" {
		content = ans.Answer
	}
	if content == "" {
		content = ans.Error
	}
	if content == "" {
		content = "No response"
	}
	if err := r.chatRepo.AddChatHistory(models.ChatTurn{
		SessionID: sessionID,
		Role:      "assistant",
		Content:   content,
		IsHTML:    isHTML,
	}); err != nil {
		log.Printf("[REPORT] history save error: %v", err)
	}

	return ans
}

// runSQLBranch is the shared TABLE_ONLY / DRAW_GRAPHIC path: generate,
// execute with repair, render.
func (r *ReportService) runSQLBranch(ctx context.Context, question, contextBlock string, res *pipelineResult, render func(context.Context, string, *pipelineResult) (string, error)) {
	generated, err := r.GenerateQuestionSQL(ctx, question, contextBlock)
	if err != nil {
		res.Err = err
		return
	}
	res.Digest = generated.Digest
	res.GeneratedSQL = generated.GeneratedSQL

	data, err := r.executeWithRepair(ctx, question, res)
	if err != nil {
		res.Err = err
		return
	}
	res.Err = nil
	res.Data = data

	rendered, err := render(ctx, question, res)
	if err != nil {
		// Rendering is cosmetic; the raw rows still answer the question.
		log.Printf("[REPORT] rendering failed, returning raw data: %v", err)
		return
	}
	res.Rendered = rendered
}

// elapsedMinutes reports wall-clock minutes, floored to 1 so a fast
// answer never reads as "0 minutes".
func elapsedMinutes(d time.Duration) int {
	minutes := int(d.Minutes())
	if minutes == 0 {
		minutes = 1
	}
	return minutes
}
