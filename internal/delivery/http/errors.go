package http

import (
	"errors"
	"net/http"

	"github.com/piyushdan-dataslush/bms-analytics/internal/models"
	repository "github.com/piyushdan-dataslush/bms-analytics/internal/repository/redis"
	"github.com/piyushdan-dataslush/bms-analytics/internal/service"
	pkgErrors "github.com/piyushdan-dataslush/bms-analytics/pkg/errors"
)

var (
	errInvalidCursor       = pkgErrors.NewHTTPError(20001, "Invalid campaign cursor")
	errUnknownCity         = pkgErrors.NewHTTPError(20002, "Unknown city")
	errScheduleUnavailable = pkgErrors.NewHTTPError(20003, "Schedule unavailable").WithStatus(http.StatusBadGateway)
	errUploadFailed        = pkgErrors.NewHTTPError(20004, "Upload failed").WithStatus(http.StatusInternalServerError)
	errShowNotFound        = pkgErrors.NewHTTPError(20005, "Show not found").WithStatus(http.StatusNotFound)
)

func mapError(err error) error {
	switch {
	case errors.Is(err, models.ErrInvalidCursor):
		return errInvalidCursor
	case errors.Is(err, service.ErrUnknownCity):
		return errUnknownCity
	case errors.Is(err, service.ErrScheduleUnavailable):
		return errScheduleUnavailable
	case errors.Is(err, service.ErrUploadFailed):
		return errUploadFailed
	case errors.Is(err, repository.ErrShowNotFound):
		return errShowNotFound
	}
	return err
}
