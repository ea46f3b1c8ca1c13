package controllers

import (
	"net/http"

	"github.com/angelmondragon/pos-inventory/api/responses"
	"github.com/angelmondragon/pos-inventory/api/validators"
	"github.com/angelmondragon/pos-inventory/internal/inventory"
	"github.com/angelmondragon/pos-inventory/pkg/logger"
	"github.com/angelmondragon/pos-inventory/pkg/types"
)

type registerTrackingRequest struct {
	UnitType          string `json:"unit_type" validate:"required"`
	LowStockThreshold string `json:"low_stock_threshold,omitempty" validate:"omitempty,decimal"`
}

// RegisterTracking opts a category into stock tracking and returns the seeded
// portion ladder.
func RegisterTracking(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := validators.ParseUUIDParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload registerTrackingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		threshold, err := validators.ParseDecimalField("low_stock_threshold", payload.LowStockThreshold)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tracking, err := svc.RegisterCategory(r.Context(), inventory.RegisterCategoryInput{
			CategoryID:        categoryID,
			UnitType:          payload.UnitType,
			LowStockThreshold: threshold,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, tracking)
	}
}

// UnregisterTracking removes every inventory record of the category. The
// caller must pass confirm=true.
func UnregisterTracking(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := validators.ParseUUIDParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		confirmed, err := validators.ParseQueryBool(r, "confirm")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.UnregisterCategory(r.Context(), categoryID, confirmed)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func GetTracking(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := validators.ParseUUIDParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tracking, err := svc.GetTracking(r.Context(), categoryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tracking)
	}
}

type updatePortionRequest struct {
	Name            *string               `json:"name,omitempty"`
	Size            *string               `json:"size,omitempty"`
	PriceMultiplier *string               `json:"price_multiplier,omitempty"`
	FixedPrice      types.Nullable[int64] `json:"fixed_price"`
}

func (p updatePortionRequest) toInput() (inventory.UpdatePortionInput, error) {
	input := inventory.UpdatePortionInput{Name: p.Name, FixedPrice: p.FixedPrice}
	if p.Size != nil {
		size, err := validators.ParseDecimalField("size", *p.Size)
		if err != nil {
			return input, err
		}
		input.Size = size
	}
	if p.PriceMultiplier != nil {
		multiplier, err := validators.ParseDecimalField("price_multiplier", *p.PriceMultiplier)
		if err != nil {
			return input, err
		}
		input.PriceMultiplier = multiplier
	}
	return input, nil
}

// UpdatePortion edits one rung of a category's portion ladder. An explicit
// null fixed_price clears it.
func UpdatePortion(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		portionID, err := validators.ParseUUIDParam(r, "portionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updatePortionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		portion, err := svc.UpdatePortionOption(r.Context(), portionID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, portion)
	}
}
