package handlers

import (
	"log"
	"net/http"

	"askdb/models"
	"askdb/validation"

	"github.com/gin-gonic/gin"
)

// AskHandler answers a natural-language question about the database
// @Summary      Ask a question about the database
// @Description  Classifies the question's intent, retrieves the relevant schema context, generates and executes SQL (with model-assisted repair on failure) and renders the result as text, a table or a chart
// @Tags         Report
// @Accept       json
// @Produce      json
// @Param        request  body      models.AskRequest  true  "Question and optional session id"
// @Success      200      {object}  models.Answer      "The answer; failures are captured in its error field"
// @Failure      400      {object}  map[string]string  "Invalid request"
// @Router       /api/report/ask [post]
func (h *Handlers) AskHandler(c *gin.Context) {
	var req models.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !validation.IsValidQuestion(req.Question) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The question appears to be invalid or gibberish. Please provide a meaningful question."})
		return
	}

	log.Printf("[ASK] question received (session=%s): %s", req.SessionID, req.Question)

	// Ask never fails the request: pipeline errors come back captured on
	// the answer so the client always gets a response turn.
	ans := h.report.Ask(c.Request.Context(), req)
	c.JSON(http.StatusOK, ans)
}
