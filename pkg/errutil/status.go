package errutil

import "net/http"

type CoreStatus string

const (
	StatusInternal           CoreStatus = "internal"
	StatusBadRequest         CoreStatus = "bad_request"
	StatusServiceUnavailable CoreStatus = "service_unavailable"
)

// HTTPStatus converts the CoreStatus to the HTTP status code rendered by the
// gin error middleware.
func (s CoreStatus) HTTPStatus() int {
	switch s {
	case StatusBadRequest:
		return http.StatusBadRequest
	case StatusServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
