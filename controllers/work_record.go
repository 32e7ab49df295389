package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"barberpro-backend/models"
	"barberpro-backend/report"
	"barberpro-backend/repository"
	"barberpro-backend/services"
	"barberpro-backend/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	currencySymbol = "₲"
	labelSeparator = " / "
)

// WorkRecordInput is shared by create and update. client_id and client_name
// are both optional; a referenced client takes precedence when displayed.
type WorkRecordInput struct {
	ServiceDate        string      `json:"service_date" validate:"required,date" label:"fecha"`
	ClientID           string      `json:"client_id" validate:"omitempty,uuid" label:"cliente"`
	ClientName         string      `json:"client_name" validate:"max=100" label:"nombre del cliente"`
	ServiceDescription string      `json:"service_description" validate:"required,max=500" label:"servicio"`
	AmountCharged      json.Number `json:"amount_charged" validate:"required,amount" label:"monto"`
	Notes              string      `json:"notes" validate:"max=500" label:"notas"`
}

func (in *WorkRecordInput) Normalize() {
	in.ServiceDate = strings.TrimSpace(in.ServiceDate)
	in.ClientID = strings.TrimSpace(in.ClientID)
	in.ClientName = strings.TrimSpace(in.ClientName)
	in.ServiceDescription = strings.TrimSpace(in.ServiceDescription)
	in.Notes = strings.TrimSpace(in.Notes)
}

// model must only be called on a validated input.
func (in *WorkRecordInput) model() *models.WorkRecord {
	date, _ := models.ParseDate(in.ServiceDate)
	rec := &models.WorkRecord{
		ServiceDate:        date,
		ClientName:         optionalString(in.ClientName),
		ServiceDescription: in.ServiceDescription,
		AmountCharged:      decimal.RequireFromString(in.AmountCharged.String()),
		Notes:              optionalString(in.Notes),
	}
	if in.ClientID != "" {
		id := uuid.MustParse(in.ClientID)
		rec.ClientID = &id
	}
	return rec
}

type workRecordView struct {
	models.WorkRecord
	ClientLabel string `json:"client_label"`
}

type statsView struct {
	services.AggregateStats
	TotalFormatted   string `json:"total_formatted"`
	AverageFormatted string `json:"average_formatted"`
}

// WorkRecordController serves the earnings ledger.
type WorkRecordController struct {
	Records   *repository.Repository[models.WorkRecord]
	Clients   *repository.Repository[models.Client]
	Registry  *services.WorkRegistry
	Validator *validation.Validator
}

// GetWorkRecords evaluates ?filter=all|today|month|custom (&from=&to=) and
// returns the matching records with their stats. The filter and generation
// time are echoed so clients can discard stale responses.
func (wc *WorkRecordController) GetWorkRecords(c *gin.Context) {
	agg, ok := wc.aggregate(c, "GetWorkRecords")
	if !ok {
		return
	}

	records := make([]workRecordView, len(agg.Records))
	for i := range agg.Records {
		records[i] = workRecordView{
			WorkRecord:  agg.Records[i],
			ClientLabel: agg.Records[i].ClientLabel(labelSeparator),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"filter":  agg.Filter,
		"period":  report.PeriodLabel(agg.Filter),
		"records": records,
		"stats": statsView{
			AggregateStats:   agg.Stats,
			TotalFormatted:   report.FormatMoney(currencySymbol, agg.Stats.Total),
			AverageFormatted: report.FormatMoney(currencySymbol, agg.Stats.Average),
		},
		"generated_at": agg.GeneratedAt,
	})
}

func (wc *WorkRecordController) GetWorkRecord(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	rec, err := wc.Records.Get(c.Request.Context(), id, repository.Preload("Client"))
	if err != nil {
		respondDataError(c, "GetWorkRecord", "obtener el registro", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": workRecordView{WorkRecord: *rec, ClientLabel: rec.ClientLabel(labelSeparator)}})
}

func (wc *WorkRecordController) CreateWorkRecord(c *gin.Context) {
	var input WorkRecordInput
	if !bindForm(c, wc.Validator, &input) || !wc.clientExists(c, &input) {
		return
	}

	rec := input.model()
	if err := wc.Records.Create(c.Request.Context(), rec); err != nil {
		respondDataError(c, "CreateWorkRecord", "guardar el registro", err, "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Registro guardado", "record": rec})
}

func (wc *WorkRecordController) UpdateWorkRecord(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var input WorkRecordInput
	if !bindForm(c, wc.Validator, &input) || !wc.clientExists(c, &input) {
		return
	}

	if err := wc.Records.Update(c.Request.Context(), id, input.model()); err != nil {
		respondDataError(c, "UpdateWorkRecord", "actualizar el registro", err, "")
		return
	}
	rec, err := wc.Records.Get(c.Request.Context(), id, repository.Preload("Client"))
	if err != nil {
		respondDataError(c, "UpdateWorkRecord", "actualizar el registro", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Registro actualizado", "record": rec})
}

func (wc *WorkRecordController) DeleteWorkRecord(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := wc.Records.Delete(c.Request.Context(), id); err != nil {
		respondDataError(c, "DeleteWorkRecord", "eliminar el registro", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Registro eliminado"})
}

func (wc *WorkRecordController) aggregate(c *gin.Context, fn string) (*services.Aggregate, bool) {
	filter, err := services.ParseDateFilter(c.Query("filter"), c.Query("from"), c.Query("to"))
	if err != nil {
		if !respondValidation(c, err) {
			respondDataError(c, fn, "leer el filtro", err, "")
		}
		return nil, false
	}
	agg, err := wc.Registry.Aggregate(c.Request.Context(), filter)
	if err != nil {
		respondDataError(c, fn, "obtener los registros", err, "")
		return nil, false
	}
	return agg, true
}

func (wc *WorkRecordController) clientExists(c *gin.Context, in *WorkRecordInput) bool {
	if in.ClientID == "" {
		return true
	}
	_, err := wc.Clients.Get(c.Request.Context(), uuid.MustParse(in.ClientID), repository.Select("id"))
	if err == nil {
		return true
	}
	if repository.CodeOf(err) == repository.CodeNotFound {
		respondValidation(c, validation.NewError("client_id", "El cliente seleccionado no existe"))
		return false
	}
	respondDataError(c, "clientExists", "verificar el cliente", err, "")
	return false
}
