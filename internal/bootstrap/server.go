package bootstrap

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	httpecho "github.com/mohammadpnp/patient-import/internal/interfaces/http/echo"
)

// multipartOverhead leaves room for boundaries and form fields around the file.
const multipartOverhead = 1 << 20

func NewHTTPServer(a *App) *echo.Echo {
	server := echo.New()
	server.HideBanner = true

	server.Use(middleware.Recover())
	server.Use(middleware.RequestID())
	server.Use(middleware.BodyLimit(fmt.Sprintf("%dB", a.Config.Import.MaxUploadBytes+multipartOverhead)))

	importHandler := httpecho.NewImportHandler(httpecho.ImportHandlerDeps{
		Start:   a.StartImport,
		Preview: a.PreviewImport,
		Status:  a.ImportStatus,
		Report:  a.ErrorReport,
		Cancel:  a.CancelImport,
	})
	patientHandler := httpecho.NewPatientHandler(a.GetPatient)

	httpecho.RegisterRoutes(server, importHandler, patientHandler)

	server.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	return server
}
