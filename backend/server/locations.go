package server

import (
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

func (h *handler) Neighborhoods(c *gin.Context) {
	names, err := h.locations.Neighborhoods(c.Request.Context())
	if err != nil {
		log.Errorf("Failed to list neighborhoods: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro interno. Tente novamente."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"neighborhoods": names})
}

func (h *handler) Streets(c *gin.Context) {
	neighborhood := c.Query("neighborhood")
	if neighborhood == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Informe o bairro."})
		return
	}
	names, err := h.locations.Streets(c.Request.Context(), neighborhood)
	if err != nil {
		log.Errorf("Failed to list streets for %q: %v", neighborhood, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro interno. Tente novamente."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"streets": names})
}
