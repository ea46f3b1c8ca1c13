package controllers

import (
	"net/http"

	"github.com/angelmondragon/pos-inventory/api/responses"
	"github.com/angelmondragon/pos-inventory/api/validators"
	"github.com/angelmondragon/pos-inventory/internal/inventory"
	pkgerrors "github.com/angelmondragon/pos-inventory/pkg/errors"
	"github.com/angelmondragon/pos-inventory/pkg/logger"
	"github.com/angelmondragon/pos-inventory/pkg/pagination"
)

const maxNotesLength = 500

// receiveStockRequest mirrors the stock entry form. Quantities arrive as the
// strings typed by staff and are parsed here.
type receiveStockRequest struct {
	Quantity     string `json:"quantity,omitempty" validate:"omitempty,decimal"`
	BottleCount  *int64 `json:"bottle_count,omitempty"`
	BottleSizeML string `json:"bottle_size_ml,omitempty" validate:"omitempty,decimal"`
	Notes        string `json:"notes,omitempty" validate:"max=500"`
}

// ReceiveStock records a delivery either as a raw quantity or as a bottle
// count with a size.
func ReceiveStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		menuItemID, err := validators.ParseUUIDParam(r, "menuItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload receiveStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quantity, err := validators.ParseDecimalField("quantity", payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		size, err := validators.ParseDecimalField("bottle_size_ml", payload.BottleSizeML)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := logg.WithMenuItemID(r.Context(), menuItemID.String())
		updated, err := svc.ReceiveStock(ctx, inventory.StockEntryForm{
			MenuItemID:   menuItemID,
			Quantity:     quantity,
			BottleCount:  payload.BottleCount,
			BottleSizeML: size,
			Notes:        validators.CleanText(payload.Notes, maxNotesLength),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, updated)
	}
}

type adjustStockRequest struct {
	Delta string `json:"delta" validate:"required,decimal"`
	Notes string `json:"notes,omitempty" validate:"max=500"`
}

// AdjustStock applies a signed correction such as breakage or a recount.
func AdjustStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		menuItemID, err := validators.ParseUUIDParam(r, "menuItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		delta, err := validators.ParseDecimalField("delta", payload.Delta)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if delta == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "delta is required"))
			return
		}
		ctx := logg.WithMenuItemID(r.Context(), menuItemID.String())
		updated, err := svc.AdjustStock(ctx, inventory.AdjustStockInput{
			MenuItemID: menuItemID,
			Delta:      *delta,
			Notes:      validators.CleanText(payload.Notes, maxNotesLength),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, updated)
	}
}

func ListStockEntries(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		menuItemID, err := validators.ParseUUIDParam(r, "menuItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListStockEntries(r.Context(), menuItemID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, page.Items, len(page.Items), page.NextCursor)
	}
}

type bottleSizeRequest struct {
	SizeML string `json:"size_ml" validate:"required,decimal"`
}

func SetBottleSize(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		menuItemID, err := validators.ParseUUIDParam(r, "menuItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload bottleSizeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		size, err := validators.ParseDecimalField("size_ml", payload.SizeML)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if size == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "size_ml is required"))
			return
		}
		item, err := svc.SetDefaultBottleSize(r.Context(), menuItemID, *size)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// BottleSizes lists the quick-pick sizes for the stock entry form.
func BottleSizes(svc inventory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{"sizes_ml": svc.BottleSizes()})
	}
}

func LowStockItems(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListLowStockItems(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}
