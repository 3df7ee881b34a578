package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/homefix/homeservices-backend/api/responses"
	"github.com/homefix/homeservices-backend/api/validators"
	"github.com/homefix/homeservices-backend/internal/providers"
	pkgerrors "github.com/homefix/homeservices-backend/pkg/errors"
	"github.com/homefix/homeservices-backend/pkg/logger"
)

// SearchProviders lists available providers for the public directory.
func SearchProviders(svc providers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "providers unavailable"))
			return
		}

		params, err := parseProviderSearch(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Search(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ProviderDetail(svc providers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "providers unavailable"))
			return
		}

		providerID, err := validators.ParseUUIDParam(r, "providerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Detail(r.Context(), providerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func parseProviderSearch(r *http.Request) (providers.SearchParams, error) {
	query := r.URL.Query()
	params := providers.SearchParams{
		Category: strings.TrimSpace(query.Get("category")),
		City:     strings.TrimSpace(query.Get("city")),
		SortBy:   providers.SortOrder(query.Get("sortBy")),
	}

	page, err := validators.ParseQueryInt(r, "page", 1, 1, 10000)
	if err != nil {
		return params, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", providers.DefaultSearchLimit, 1, providers.MaxSearchLimit)
	if err != nil {
		return params, err
	}
	params.Page, params.Limit = page, limit

	if raw := strings.TrimSpace(query.Get("minRating")); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return params, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": "minRating"})
		}
		params.MinRating = rating
	}
	if raw := strings.TrimSpace(query.Get("maxPrice")); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return params, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": "maxPrice"})
		}
		params.MaxPrice = &price
	}
	return params, nil
}
