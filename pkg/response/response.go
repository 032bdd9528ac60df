package response

import (
	"encoding/json"
	"errors"
	"net/http"

	pkgErrors "github.com/piyushdan-dataslush/bms-analytics/pkg/errors"
)

type Resp struct {
	ErrorCode int    `json:"error_code"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Errors    any    `json:"errors,omitempty"`
}

func parseHttpError(err error) (int, Resp) {
	var parsedErr *pkgErrors.HTTPError
	if errors.As(err, &parsedErr) {
		statusCode := parsedErr.StatusCode
		if statusCode == 0 {
			statusCode = http.StatusBadRequest
		}

		return statusCode, Resp{
			ErrorCode: parsedErr.Code,
			Message:   parsedErr.Message,
		}
	}

	return http.StatusInternalServerError, Resp{
		ErrorCode: 500,
		Message:   "Internal server error",
	}
}

// JSON writes data as the response body with statusCode.
func JSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// Error maps err onto an error envelope. Unknown errors answer 500 without
// leaking their text; details, when set, go to the errors field.
func Error(w http.ResponseWriter, err error, details any) error {
	statusCode, resp := parseHttpError(err)
	resp.Errors = details
	return JSON(w, statusCode, resp)
}
