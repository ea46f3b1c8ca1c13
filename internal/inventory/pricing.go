package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pos-inventory/internal/portions"
	"github.com/angelmondragon/pos-inventory/pkg/db/models"
	"github.com/angelmondragon/pos-inventory/pkg/enums"
	pkgerrors "github.com/angelmondragon/pos-inventory/pkg/errors"
	"github.com/angelmondragon/pos-inventory/pkg/outbox"
	"github.com/angelmondragon/pos-inventory/pkg/outbox/payloads"
)

// pricingContext is everything needed to price any portion of one menu item.
type pricingContext struct {
	menuItem  *models.MenuItem
	portions  []models.PortionOption
	options   []portions.Option
	overrides map[uuid.UUID]int64
}

func (s *service) loadPricing(ctx context.Context, repo *Repository, menuItemID uuid.UUID) (*pricingContext, error) {
	menuItem, err := repo.FindMenuItem(ctx, menuItemID)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu item")
	}
	pc := &pricingContext{menuItem: menuItem, overrides: map[uuid.UUID]int64{}}

	tracking, err := repo.FindTracking(ctx, menuItem.CategoryID)
	if err != nil {
		if isNotFound(err) {
			return pc, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tracking")
	}
	pc.portions, err = repo.ListPortions(ctx, tracking.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list portions")
	}
	pc.options = make([]portions.Option, 0, len(pc.portions))
	for _, p := range pc.portions {
		pc.options = append(pc.options, portions.Option{Multiplier: p.PriceMultiplier, FixedPrice: p.FixedPrice})
	}
	prices, err := repo.ListItemPrices(ctx, menuItemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list price overrides")
	}
	for _, price := range prices {
		pc.overrides[price.PortionOptionID] = price.Price
	}
	return pc, nil
}

// portion finds portionID among the item's category portions. A portion that
// exists elsewhere is a validation error; an unknown id is NotFound.
func (pc *pricingContext) portion(ctx context.Context, repo *Repository, portionID uuid.UUID) (*models.PortionOption, error) {
	for i := range pc.portions {
		if pc.portions[i].ID == portionID {
			return &pc.portions[i], nil
		}
	}
	if _, err := repo.FindPortion(ctx, portionID); err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "portion not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load portion")
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "portion does not belong to the menu item's category")
}

func (pc *pricingContext) quote(p *models.PortionOption) (*PortionPriceDTO, error) {
	var override *int64
	if price, ok := pc.overrides[p.ID]; ok {
		override = &price
	}
	q, err := portions.Resolve(pc.menuItem.BasePrice, pc.options, portions.Option{
		Multiplier: p.PriceMultiplier,
		FixedPrice: p.FixedPrice,
	}, override)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, "portion pricing is misconfigured").
			WithDetails(map[string]any{"portion_option_id": p.ID})
	}
	id := p.ID
	return &PortionPriceDTO{
		MenuItemID:      pc.menuItem.ID,
		PortionOptionID: &id,
		Name:            p.Name,
		Size:            p.Size,
		Price:           q.Price,
		Source:          q.Source,
		Tiered:          q.Tiered,
		IsOverride:      q.Source == portions.SourceOverride,
	}, nil
}

func (pc *pricingContext) basePrice() *PortionPriceDTO {
	return &PortionPriceDTO{
		MenuItemID: pc.menuItem.ID,
		Price:      pc.menuItem.BasePrice,
		Source:     portions.SourceBase,
	}
}

func (s *service) GetPortionPrice(ctx context.Context, menuItemID, portionID uuid.UUID) (*PortionPriceDTO, error) {
	pc, err := s.loadPricing(ctx, s.repo, menuItemID)
	if err != nil {
		return nil, err
	}
	if len(pc.portions) == 0 {
		return pc.basePrice(), nil
	}
	p, err := pc.portion(ctx, s.repo, portionID)
	if err != nil {
		return nil, err
	}
	return pc.quote(p)
}

func (s *service) ListPortionPrices(ctx context.Context, menuItemID uuid.UUID) (*PortionPriceList, error) {
	pc, err := s.loadPricing(ctx, s.repo, menuItemID)
	if err != nil {
		return nil, err
	}
	list := &PortionPriceList{
		MenuItemID: pc.menuItem.ID,
		BasePrice:  pc.menuItem.BasePrice,
		Tiered:     len(pc.portions) > 0,
		Portions:   make([]PortionPriceDTO, 0, len(pc.portions)),
	}
	for i := range pc.portions {
		dto, err := pc.quote(&pc.portions[i])
		if err != nil {
			return nil, err
		}
		list.Portions = append(list.Portions, *dto)
	}
	return list, nil
}

func (s *service) SetItemPortionPrice(ctx context.Context, menuItemID, portionID uuid.UUID, price int64) (*PortionPriceDTO, error) {
	if price < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be >= 0")
	}
	var dto *PortionPriceDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		pc, err := s.loadPricing(ctx, repo, menuItemID)
		if err != nil {
			return err
		}
		p, err := pc.portion(ctx, repo, portionID)
		if err != nil {
			return err
		}
		if err := repo.UpsertItemPrice(ctx, &models.ItemPortionPrice{
			MenuItemID:      menuItemID,
			PortionOptionID: portionID,
			Price:           price,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save price override")
		}
		pc.overrides[portionID] = price
		if dto, err = pc.quote(p); err != nil {
			return err
		}
		return s.emitOverride(ctx, tx, menuItemID, portionID, &price)
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(s.logg.WithMenuItemID(ctx, menuItemID.String()), map[string]any{
		"portion_option_id": portionID.String(),
		"price":             price,
	}), "portion price overridden")
	return dto, nil
}

// ClearItemPortionPrice drops the override and returns the price now in
// effect. Clearing a pair without an override is a no-op.
func (s *service) ClearItemPortionPrice(ctx context.Context, menuItemID, portionID uuid.UUID) (*PortionPriceDTO, error) {
	var dto *PortionPriceDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		pc, err := s.loadPricing(ctx, repo, menuItemID)
		if err != nil {
			return err
		}
		p, err := pc.portion(ctx, repo, portionID)
		if err != nil {
			return err
		}
		removed, err := repo.DeleteItemPrice(ctx, menuItemID, portionID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete price override")
		}
		delete(pc.overrides, portionID)
		if dto, err = pc.quote(p); err != nil {
			return err
		}
		if removed == 0 {
			return nil
		}
		return s.emitOverride(ctx, tx, menuItemID, portionID, nil)
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (s *service) emitOverride(ctx context.Context, tx *gorm.DB, menuItemID, portionID uuid.UUID, price *int64) error {
	if err := s.emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventPortionPriceOverridden,
		AggregateType: enums.AggregateMenuItem,
		AggregateID:   menuItemID,
		Data: payloads.PortionPriceOverriddenEvent{
			MenuItemID:      menuItemID,
			PortionOptionID: portionID,
			Price:           price,
		},
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue price event")
	}
	return nil
}
