package controllers

import (
	"errors"
	"net/http"

	"barberpro-backend/config"
	"barberpro-backend/report"
	"barberpro-backend/utils"

	"github.com/gin-gonic/gin"
)

// ExportWorkRecords renders the filtered ledger as ?format=pdf|xlsx and
// sends it as a download. The document reflects exactly the records and
// stats of the same filter on GetWorkRecords.
func (wc *WorkRecordController) ExportWorkRecords(c *gin.Context) {
	format, err := report.ParseFormat(c.DefaultQuery("format", string(report.FormatPDF)))
	if err != nil {
		utils.RespondWithFields(c, http.StatusBadRequest, invalidInput, map[string]string{"format": err.Error()})
		return
	}

	agg, ok := wc.aggregate(c, "ExportWorkRecords")
	if !ok {
		return
	}

	data, err := report.Render(format, report.FromAggregate(agg))
	if errors.Is(err, report.ErrNothingToExport) {
		utils.RespondWithError(c, http.StatusUnprocessableEntity, "No hay datos para descargar")
		return
	}
	if err != nil {
		config.LogError(config.GetLogger(), "controllers", "ExportWorkRecords", "render "+string(format), agg.Filter, err)
		utils.RespondWithError(c, http.StatusInternalServerError, "Error al generar el reporte: "+err.Error())
		return
	}

	sink := report.HTTPSink{C: c}
	if _, err := sink.Save(report.FileName(format, agg.GeneratedAt), format.ContentType(), data); err != nil {
		config.LogError(config.GetLogger(), "controllers", "ExportWorkRecords", "send", agg.Filter, err)
	}
}
