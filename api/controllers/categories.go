package controllers

import (
	"net/http"

	"github.com/angelmondragon/pos-inventory/api/responses"
	"github.com/angelmondragon/pos-inventory/api/validators"
	"github.com/angelmondragon/pos-inventory/internal/menu"
	"github.com/angelmondragon/pos-inventory/pkg/logger"
)

type createCategoryRequest struct {
	Name      string `json:"name" validate:"required,max=120"`
	SortOrder int    `json:"sort_order" validate:"gte=0"`
}

func ListCategories(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

func CreateCategory(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createCategoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := svc.CreateCategory(r.Context(), menu.CreateCategoryInput{
			Name:      validators.CleanText(payload.Name, 120),
			SortOrder: payload.SortOrder,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, category)
	}
}
