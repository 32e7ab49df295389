package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"barberpro-backend/models"
	"barberpro-backend/repository"
	"barberpro-backend/services"
	"barberpro-backend/utils"

	"github.com/gin-gonic/gin"
)

const defaultReminderLogLimit = 100

type ReminderController struct {
	Logs      *repository.Repository[models.ReminderLog]
	Reminders *services.ReminderService
}

// GetReminderLogs returns the newest send attempts first. ?status= and
// ?limit= narrow the list.
func (rc *ReminderController) GetReminderLogs(c *gin.Context) {
	limit := defaultReminderLogLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			utils.RespondWithFields(c, http.StatusBadRequest, invalidInput, map[string]string{"limit": "limit debe ser un entero positivo"})
			return
		}
		limit = n
	}

	qs := []repository.Query{repository.OrderBy("sent_at DESC"), repository.Limit(limit)}
	if status := c.Query("status"); status != "" {
		qs = append(qs, repository.Where("status = ?", status))
	}

	logs, err := rc.Logs.List(c.Request.Context(), qs...)
	if err != nil {
		respondDataError(c, "GetReminderLogs", "obtener los recordatorios", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// RunReminders sends tomorrow's reminders now instead of waiting for cron.
func (rc *ReminderController) RunReminders(c *gin.Context) {
	summary, err := rc.Reminders.SendDailyReminders(c.Request.Context())
	if errors.Is(err, services.ErrLockHeld) {
		utils.RespondWithError(c, http.StatusConflict, "Ya hay un envío de recordatorios en curso")
		return
	}
	if err != nil {
		respondDataError(c, "RunReminders", "enviar los recordatorios", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
