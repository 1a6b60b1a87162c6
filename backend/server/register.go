package server

import (
	"errors"
	"fmt"
	"net/http"

	"buscapet/backend/image"
	"buscapet/backend/server/api"
	"buscapet/backend/workflow"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// RegisterPet creates a new case from a multipart form. The photo field is
// mandatory; address fields are optional and only affect map placement.
func (h *handler) RegisterPet(c *gin.Context) {
	in := &workflow.Input{
		PetName:      c.PostForm("pet_name"),
		Species:      c.PostForm("species"),
		Street:       c.PostForm("street"),
		Neighborhood: c.PostForm("neighborhood"),
		City:         c.PostForm("city"),
		Contact:      c.PostForm("contact"),
		Comment:      c.PostForm("comment"),
		Status:       c.PostForm("status"),
	}

	fh, err := c.FormFile("photo")
	if err == nil {
		f, openErr := fh.Open()
		if openErr != nil {
			log.Errorf("Failed to open uploaded photo: %v", openErr)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao processar a imagem."})
			return
		}
		defer f.Close()
		in.Filename = fh.Filename
		in.File = f
	}

	res, err := h.registrar.Register(c.Request.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, workflow.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, image.ErrDecode):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Erro ao processar a imagem."})
		default:
			log.Errorf("Failed to register pet: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro interno. Tente novamente."})
		}
		return
	}

	resp := api.RegisterResponse{ID: res.CaseID}
	switch {
	case !res.LocationTried:
		resp.Warning = "Endereço não informado. O PET não aparecerá no mapa."
	case !res.LocationFound:
		resp.Warning = fmt.Sprintf(
			"Coordenadas não encontradas para %s, %s. O PET não aparecerá no mapa.",
			in.Street, in.Neighborhood)
	}
	c.JSON(http.StatusCreated, resp)
}
