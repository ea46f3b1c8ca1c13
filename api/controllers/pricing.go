package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/pos-inventory/api/responses"
	"github.com/angelmondragon/pos-inventory/api/validators"
	"github.com/angelmondragon/pos-inventory/internal/inventory"
	"github.com/angelmondragon/pos-inventory/pkg/logger"
)

func pricePathIDs(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	menuItemID, err := validators.ParseUUIDParam(r, "menuItemId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	portionID, err := validators.ParseUUIDParam(r, "portionId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return menuItemID, portionID, nil
}

// GetPortionPrice quotes one portion of a menu item.
func GetPortionPrice(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		menuItemID, portionID, err := pricePathIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quote, err := svc.GetPortionPrice(r.Context(), menuItemID, portionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// ListPortionPrices returns the full price ladder the POS shows when the item
// is tapped.
func ListPortionPrices(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		menuItemID, err := validators.ParseUUIDParam(r, "menuItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListPortionPrices(r.Context(), menuItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

type setPortionPriceRequest struct {
	Price *int64 `json:"price" validate:"required,gte=0"`
}

func SetPortionPrice(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		menuItemID, portionID, err := pricePathIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload setPortionPriceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quote, err := svc.SetItemPortionPrice(r.Context(), menuItemID, portionID, *payload.Price)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// ClearPortionPrice drops an override and returns the price that applies now.
func ClearPortionPrice(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		menuItemID, portionID, err := pricePathIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quote, err := svc.ClearItemPortionPrice(r.Context(), menuItemID, portionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}
