package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-key-gossip/internal/store"
)

var errorStatusMap = map[error]int{
	errInvalidQuery: http.StatusBadRequest,
	errInvalidBody:  http.StatusBadRequest,

	store.ErrDeviceNotFound:  http.StatusNotFound,
	store.ErrSessionNotFound: http.StatusNotFound,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}

// writeError logs err and answers with its status. Internal errors are not
// echoed to the client.
func writeError(w http.ResponseWriter, r *http.Request, fn string, err error) {
	status := statusFromError(err)
	log := loggerFromRequest(r)
	if status >= http.StatusInternalServerError {
		log.Err(err).Str("func", fn).Msg("request failed")
		http.Error(w, http.StatusText(status), status)
		return
	}
	log.Debug().Err(err).Str("func", fn).Msg("request rejected")
	http.Error(w, err.Error(), status)
}
