package handlers

import (
	"errors"
	"net/http"

	"shelfstock/internal/common"
	"shelfstock/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// httpError maps a service error onto the HTTP status its kind dictates.
// Typed messages are operator-safe; anything untyped stays a generic 500.
func httpError(err error) error {
	var e *common.Error
	if errors.As(err, &e) {
		switch e.Kind {
		case common.KindNotFound:
			return echo.NewHTTPError(http.StatusNotFound, e.Message)
		case common.KindConflict:
			return echo.NewHTTPError(http.StatusConflict, e.Message)
		case common.KindBadRequest:
			return echo.NewHTTPError(http.StatusBadRequest, e.Message)
		}
	}
	logger.Error().Err(err).Msg("request failed")
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}

func parseUUIDParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
