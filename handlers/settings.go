package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetDbMapHandler returns the database map
// @Summary      Get the database map
// @Description  Tables with their columns, foreign keys and stored AI summaries; served from cache when available
// @Tags         Settings
// @Produce      json
// @Success      200  {object}  models.DatabaseMap
// @Failure      500  {object}  map[string]string  "Introspection failed"
// @Router       /api/settings/dbmap [get]
func (h *Handlers) GetDbMapHandler(c *gin.Context) {
	dbMap, err := h.settings.GetDbMapFast(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dbMap)
}

// ReindexHandler summarizes every table and rebuilds the vector index
// @Summary      Summarize and index the database
// @Description  Builds an AI summary for every table (all of them when force=true, only missing ones otherwise) and upserts one point per table into the vector index
// @Tags         Settings
// @Produce      json
// @Param        force  query     bool  false  "Rebuild summaries that already exist"
// @Success      200    {object}  models.DatabaseMap
// @Failure      500    {object}  map[string]string  "Indexing failed"
// @Router       /api/settings/reindex [post]
func (h *Handlers) ReindexHandler(c *gin.Context) {
	force := c.Query("force") == "true"
	log.Printf("[SETTINGS] reindex requested (force=%v)", force)

	dbMap, err := h.settings.SummaryAndIndexDb(c.Request.Context(), force)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dbMap)
}
