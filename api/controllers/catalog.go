package controllers

import (
	"net/http"
	"strings"

	"github.com/homefix/homeservices-backend/api/responses"
	"github.com/homefix/homeservices-backend/internal/catalog"
	pkgerrors "github.com/homefix/homeservices-backend/pkg/errors"
	"github.com/homefix/homeservices-backend/pkg/logger"
)

// ListServices returns the active service catalog, optionally filtered by
// category and a free-text search over name and description.
func ListServices(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		query := r.URL.Query()
		items, err := svc.ListActive(r.Context(), catalog.ListFilter{
			Category: strings.TrimSpace(query.Get("category")),
			Search:   strings.TrimSpace(query.Get("search")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

func ListCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		items, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}
