package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/pos-inventory/api/responses"
	"github.com/angelmondragon/pos-inventory/api/validators"
	"github.com/angelmondragon/pos-inventory/internal/menu"
	"github.com/angelmondragon/pos-inventory/pkg/logger"
)

type createMenuItemRequest struct {
	CategoryID string `json:"category_id" validate:"required,uuid"`
	Name       string `json:"name" validate:"required,max=160"`
	BasePrice  *int64 `json:"base_price" validate:"required,gte=0"`
	IsActive   *bool  `json:"is_active,omitempty"`
}

// CreateMenuItem adds a menu item. Items in tracked categories come back with
// their zero-stock inventory row.
func CreateMenuItem(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createMenuItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.CreateMenuItem(r.Context(), menu.CreateMenuItemInput{
			CategoryID: uuid.MustParse(payload.CategoryID),
			Name:       validators.CleanText(payload.Name, 160),
			BasePrice:  *payload.BasePrice,
			IsActive:   payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

func ListMenuItems(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := validators.ParseQueryUUID(r, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.ListMenuItems(r.Context(), categoryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}
