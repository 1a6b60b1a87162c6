package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *handler) Help(c *gin.Context) {
	c.String(http.StatusOK, `
	BuscaPet API:
	Lost and found pet registry for Americana/SP, version 1.0.
	`)
}
