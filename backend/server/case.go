package server

import (
	"errors"
	"net/http"
	"strconv"

	"buscapet/backend/db"
	"buscapet/backend/server/api"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

const latestMessagesLimit = 50

func caseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido."})
		return 0, false
	}
	return id, true
}

func (h *handler) PetDetails(c *gin.Context) {
	id, ok := caseID(c)
	if !ok {
		return
	}

	cs, err := db.GetCase(c.Request.Context(), h.dbc, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "PET não encontrado."})
			return
		}
		log.Errorf("Failed to get case %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro interno. Tente novamente."})
		return
	}

	msgs, err := db.LatestMessages(c.Request.Context(), h.dbc, id, latestMessagesLimit)
	if err != nil {
		log.Errorf("Failed to get messages for case %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro interno. Tente novamente."})
		return
	}

	resp := api.CaseDetailResponse{
		Case:     *cs,
		Messages: msgs,
	}
	if cs.PhotoKey != "" {
		resp.PhotoURL = h.store.URL(cs.PhotoKey)
	}
	c.JSON(http.StatusOK, resp)
}
