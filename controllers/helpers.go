package controllers

import (
	"errors"
	"net/http"

	"barberpro-backend/config"
	"barberpro-backend/repository"
	"barberpro-backend/utils"
	"barberpro-backend/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const invalidInput = "Datos inválidos"

// bindForm decodes the JSON body into form and validates it. It writes the
// 400 response itself and returns false on any failure.
func bindForm(c *gin.Context, v *validation.Validator, form any) bool {
	if err := c.ShouldBindJSON(form); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, invalidInput+": "+err.Error())
		return false
	}
	return validateForm(c, v, form)
}

func validateForm(c *gin.Context, v *validation.Validator, form any) bool {
	err := v.Struct(form)
	if err == nil {
		return true
	}
	var verr *validation.Error
	if errors.As(err, &verr) {
		utils.RespondWithFields(c, http.StatusBadRequest, invalidInput, verr.Fields)
		return false
	}
	utils.RespondWithError(c, http.StatusBadRequest, invalidInput+": "+err.Error())
	return false
}

// respondValidation writes a *validation.Error and reports whether err was one.
func respondValidation(c *gin.Context, err error) bool {
	var verr *validation.Error
	if !errors.As(err, &verr) {
		return false
	}
	utils.RespondWithFields(c, http.StatusBadRequest, invalidInput, verr.Fields)
	return true
}

// respondDataError maps a repository failure to a status. conflict is the
// message used for unique violations.
func respondDataError(c *gin.Context, fn, action string, err error, conflict string) {
	switch repository.CodeOf(err) {
	case repository.CodeNotFound:
		utils.RespondWithError(c, http.StatusNotFound, "Registro no encontrado")
		return
	case repository.CodeUniqueViolation:
		if conflict == "" {
			conflict = "El registro ya existe"
		}
		utils.RespondWithError(c, http.StatusConflict, conflict)
		return
	case repository.CodeUnavailable:
		utils.RespondWithError(c, http.StatusServiceUnavailable, "Servicio no disponible, intente nuevamente")
		return
	}
	config.LogError(config.GetLogger(), "controllers", fn, action, c.Request.URL.Path, err)
	utils.RespondWithError(c, http.StatusInternalServerError, "Error al "+action+": "+err.Error())
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "ID inválido")
		return uuid.Nil, false
	}
	return id, true
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
