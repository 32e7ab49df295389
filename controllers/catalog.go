package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"barberpro-backend/config"
	"barberpro-backend/models"
	"barberpro-backend/repository"
	"barberpro-backend/storage"
	"barberpro-backend/utils"
	"barberpro-backend/validation"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ServiceInput is a catalog item form. Price and duration are optional.
type ServiceInput struct {
	Name            string       `json:"name" validate:"required,max=100" label:"nombre"`
	Description     string       `json:"description" validate:"max=500" label:"descripción"`
	Price           *json.Number `json:"price" validate:"omitempty,amount" label:"precio"`
	DurationMinutes *int         `json:"duration_minutes" validate:"omitempty,min=0" label:"duración"`
}

func (in *ServiceInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
}

func (in *ServiceInput) price() decimal.NullDecimal {
	if in.Price == nil || in.Price.String() == "" {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.RequireFromString(in.Price.String()))
}

func (in *ServiceInput) fields() map[string]any {
	return map[string]any{
		"name":             in.Name,
		"description":      optionalString(in.Description),
		"price":            in.price(),
		"duration_minutes": in.DurationMinutes,
	}
}

func (in *ServiceInput) model() *models.Service {
	return &models.Service{
		Name:            in.Name,
		Description:     optionalString(in.Description),
		Price:           in.price(),
		DurationMinutes: in.DurationMinutes,
	}
}

// CatalogController manages the services shown on the public site.
type CatalogController struct {
	Services  *repository.Repository[models.Service]
	Images    storage.ImageStore
	Validator *validation.Validator
	Now       func() time.Time
}

// GetServices lists the catalog in creation order. Used by both the public
// site and the admin panel.
func (cc *CatalogController) GetServices(c *gin.Context) {
	services, err := cc.Services.List(c.Request.Context(), repository.OrderBy("created_at ASC"))
	if err != nil {
		respondDataError(c, "GetServices", "obtener los servicios", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

func (cc *CatalogController) GetService(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	service, err := cc.Services.Get(c.Request.Context(), id)
	if err != nil {
		respondDataError(c, "GetService", "obtener el servicio", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"service": service})
}

func (cc *CatalogController) CreateService(c *gin.Context) {
	var input ServiceInput
	if !bindForm(c, cc.Validator, &input) {
		return
	}

	service := input.model()
	if err := cc.Services.Create(c.Request.Context(), service); err != nil {
		respondDataError(c, "CreateService", "crear el servicio", err, "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Servicio creado", "service": service})
}

// UpdateService rewrites the editable columns and leaves the images alone.
func (cc *CatalogController) UpdateService(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var input ServiceInput
	if !bindForm(c, cc.Validator, &input) {
		return
	}

	if err := cc.Services.Patch(c.Request.Context(), id, input.fields()); err != nil {
		respondDataError(c, "UpdateService", "actualizar el servicio", err, "")
		return
	}
	service, err := cc.Services.Get(c.Request.Context(), id)
	if err != nil {
		respondDataError(c, "UpdateService", "actualizar el servicio", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Servicio actualizado", "service": service})
}

func (cc *CatalogController) DeleteService(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	service, err := cc.Services.Get(c.Request.Context(), id)
	if err != nil {
		respondDataError(c, "DeleteService", "eliminar el servicio", err, "")
		return
	}
	if err := cc.Services.Delete(c.Request.Context(), id); err != nil {
		respondDataError(c, "DeleteService", "eliminar el servicio", err, "")
		return
	}
	cc.removeImages(c, service.ImageURL, service.ThumbnailURL)
	c.JSON(http.StatusOK, gin.H{"message": "Servicio eliminado"})
}

// UploadImage accepts a multipart "image" field, stores it with a thumbnail
// and replaces any previous image of the service.
func (cc *CatalogController) UploadImage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	service, err := cc.Services.Get(c.Request.Context(), id)
	if err != nil {
		respondDataError(c, "UploadImage", "subir la imagen", err, "")
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Debe adjuntar una imagen")
		return
	}
	if header.Size > storage.MaxImageSize {
		utils.RespondWithError(c, http.StatusBadRequest, storage.ErrTooLarge.Error())
		return
	}
	file, err := header.Open()
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "No se pudo leer la imagen")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, storage.MaxImageSize+1))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "No se pudo leer la imagen")
		return
	}

	processed, err := storage.ProcessImage(data)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, storage.ErrNotImage) {
			msg = storage.ErrNotImage.Error()
		}
		utils.RespondWithError(c, http.StatusBadRequest, msg)
		return
	}

	stored, err := storage.SaveImage(c.Request.Context(), cc.Images, "services/"+id.String(), processed, cc.Now())
	if err != nil {
		config.LogError(config.GetLogger(), "controllers", "UploadImage", "save image", id.String(), err)
		utils.RespondWithError(c, http.StatusInternalServerError, "Error al subir la imagen: "+err.Error())
		return
	}

	err = cc.Services.Patch(c.Request.Context(), id, map[string]any{
		"image_url":     stored.ImageURL,
		"thumbnail_url": stored.ThumbnailURL,
	})
	if err != nil {
		cc.removeImages(c, &stored.ImageURL, &stored.ThumbnailURL)
		respondDataError(c, "UploadImage", "subir la imagen", err, "")
		return
	}
	cc.removeImages(c, service.ImageURL, service.ThumbnailURL)

	service.ImageURL = &stored.ImageURL
	service.ThumbnailURL = &stored.ThumbnailURL
	c.JSON(http.StatusOK, gin.H{"message": "Imagen actualizada", "service": service})
}

func (cc *CatalogController) removeImages(c *gin.Context, urls ...*string) {
	for _, u := range urls {
		if u == nil || *u == "" {
			continue
		}
		if err := cc.Images.Delete(c.Request.Context(), *u); err != nil {
			config.LogError(config.GetLogger(), "controllers", "removeImages", "delete image", *u, err)
		}
	}
}
