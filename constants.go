package wasmhtmx

import "net/http"

const (
	StatusOK          = http.StatusOK
	StatusClientError = http.StatusBadRequest
	StatusNotFound    = http.StatusNotFound
	StatusServerError = http.StatusInternalServerError
)
