package server

import (
	"net/http"

	"buscapet/backend/mapview"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

func (h *handler) GetMap(c *gin.Context) {
	m, err := h.builder.Build(c.Request.Context())
	if err != nil {
		log.Errorf("Failed to build map: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro interno. Tente novamente."})
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *handler) GetMapGeoJSON(c *gin.Context) {
	m, err := h.builder.Build(c.Request.Context())
	if err != nil {
		log.Errorf("Failed to build map: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro interno. Tente novamente."})
		return
	}
	c.JSON(http.StatusOK, mapview.ToGeoJSON(m))
}
