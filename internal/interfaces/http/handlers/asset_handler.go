package handlers

import (
	"net/http"
	"strings"

	"github.com/turtacn/KeyIP-Docket/internal/application/portfolio"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

// AssetHandler serves the asset search.
type AssetHandler struct {
	searchSvc portfolio.SearchService
	logger    logging.Logger
}

// NewAssetHandler creates a new AssetHandler.
func NewAssetHandler(searchSvc portfolio.SearchService, logger logging.Logger) *AssetHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &AssetHandler{searchSvc: searchSvc, logger: logger}
}

// Search handles GET /api/v1/assets/search?q=&limit=.
func (h *AssetHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeAppError(w, h.logger, errors.InvalidParam("query parameter q is required"))
		return
	}
	limit := parseLimit(r, portfolio.DefaultSearchLimit, portfolio.MaxSearchLimit)

	res, err := h.searchSvc.Search(r.Context(), query, limit)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

//Personal.AI order the ending
