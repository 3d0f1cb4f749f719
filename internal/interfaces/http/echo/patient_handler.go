package echo

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	app "github.com/mohammadpnp/patient-import/internal/application/patient"
)

type PatientHandler struct {
	useCase app.GetPatientByID
	log     *zap.SugaredLogger
}

func NewPatientHandler(useCase app.GetPatientByID) *PatientHandler {
	return &PatientHandler{useCase: useCase, log: zap.S().Named("http")}
}

func (h *PatientHandler) GetPatientByID(c echo.Context) error {
	out, err := h.useCase.Execute(c.Request().Context(), app.GetPatientByIDInput{
		ID: c.Param("id"),
	})
	if err != nil {
		return failWith(c, h.log, err, "failed to get patient")
	}
	return c.JSON(http.StatusOK, apiResponse{Data: out})
}
