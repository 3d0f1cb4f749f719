package echo

import (
	e "github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(server *e.Echo, importHandler *ImportHandler, patientHandler *PatientHandler) {
	api := server.Group("/api/v1")

	if importHandler != nil {
		api.POST("/patients/import", importHandler.StartImport)
		api.POST("/patients/import/preview", importHandler.PreviewImport)
		api.GET("/patients/import/:jobId/status", importHandler.GetStatus)
		api.GET("/patients/import/:jobId/errors", importHandler.DownloadErrors)
		api.POST("/patients/import/:jobId/cancel", importHandler.CancelImport)
	}
	if patientHandler != nil {
		api.GET("/patients/:id", patientHandler.GetPatientByID)
	}

	server.GET("/metrics", e.WrapHandler(promhttp.Handler()))
}
