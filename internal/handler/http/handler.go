package http

import (
	"net/http"

	"github.com/MKhiriev/go-key-gossip/internal/logger"
	"github.com/MKhiriev/go-key-gossip/internal/service"
	"github.com/MKhiriev/go-key-gossip/internal/store"
	"github.com/MKhiriev/go-key-gossip/models"
)

type Handler struct {
	crypto   service.CryptoService
	storages *store.Storages
	metrics  http.Handler
	build    models.AppBuildInfo

	logger *logger.Logger
}

// NewHandler returns the status API handler. metrics serves GET /metrics
// and may be nil.
func NewHandler(crypto service.CryptoService, storages *store.Storages, metrics http.Handler, build models.AppBuildInfo, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		crypto:   crypto,
		storages: storages,
		metrics:  metrics,
		build:    build,
		logger:   logger.Component("http_handler"),
	}
}
