package server

import (
	"errors"
	"net/http"

	"buscapet/backend/db"
	"buscapet/backend/server/api"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

func (h *handler) AddMessage(c *gin.Context) {
	id, ok := caseID(c)
	if !ok {
		return
	}

	var args api.AddMessageArgs
	if err := c.BindJSON(&args); err != nil {
		log.Errorf("Failed to parse message args: %v", err)
		// BindJSON already wrote a 400 status.
		return
	}

	msgID, err := db.AddMessage(c.Request.Context(), h.dbc, id,
		args.CommenterName, args.MessageText, h.cfg.MaxMessageLen)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "PET não encontrado."})
		case errors.Is(err, db.ErrEmptyMessage):
			c.JSON(http.StatusBadRequest, gin.H{"error": "A mensagem não pode estar vazia."})
		case errors.Is(err, db.ErrMessageTooLong):
			c.JSON(http.StatusBadRequest, gin.H{"error": "A mensagem é muito longa."})
		default:
			log.Errorf("Failed to add message to case %d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro interno. Tente novamente."})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": msgID})
}
