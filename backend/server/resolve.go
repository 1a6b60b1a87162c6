package server

import (
	"errors"
	"net/http"
	"time"

	"buscapet/backend/db"
	"buscapet/backend/server/api"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// ResolveCase marks a case as resolved and removes its stored photos.
// Resolution is one way; repeated calls report a conflict.
func (h *handler) ResolveCase(c *gin.Context) {
	id, ok := caseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	// Grab the keys before the update so the assets can still be
	// removed after the row flips to resolved.
	photoKey, thumbKey, err := db.CaseAssetKeys(ctx, h.dbc, id)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		log.Errorf("Failed to read asset keys for case %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro interno. Tente novamente."})
		return
	}

	if err := db.ResolveCase(ctx, h.dbc, id, time.Now()); err != nil {
		switch {
		case errors.Is(err, db.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "PET não encontrado."})
		case errors.Is(err, db.ErrAlreadyResolved):
			c.JSON(http.StatusConflict, api.ResolveResponse{
				Success: false,
				Message: "Este caso já foi resolvido.",
			})
		default:
			log.Errorf("Failed to resolve case %d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro interno. Tente novamente."})
		}
		return
	}

	// Asset cleanup is best effort; the case is resolved either way.
	for _, key := range []string{photoKey, thumbKey} {
		if err := h.store.Delete(ctx, key); err != nil {
			log.Warnf("Orphaned asset %q for resolved case %d: %v", key, id, err)
		}
	}

	c.JSON(http.StatusOK, api.ResolveResponse{
		Success: true,
		Message: "Caso resolvido. Ficamos felizes pelo reencontro!",
	})
}
