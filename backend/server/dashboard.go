package server

import (
	"net/http"

	"buscapet/backend/db"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

func (h *handler) Dashboard(c *gin.Context) {
	stats, err := db.Stats(c.Request.Context(), h.dbc)
	if err != nil {
		log.Errorf("Failed to compute stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro interno. Tente novamente."})
		return
	}
	c.JSON(http.StatusOK, stats)
}
