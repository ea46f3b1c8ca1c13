package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ensureID assigns a v4 id when the caller left it empty. Postgres would
// default the column too, but sqlite has no gen_random_uuid().
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (c *Category) BeforeCreate(*gorm.DB) error          { ensureID(&c.ID); return nil }
func (m *MenuItem) BeforeCreate(*gorm.DB) error          { ensureID(&m.ID); return nil }
func (c *InventoryCategory) BeforeCreate(*gorm.DB) error { ensureID(&c.ID); return nil }
func (p *PortionOption) BeforeCreate(*gorm.DB) error     { ensureID(&p.ID); return nil }
func (i *InventoryItem) BeforeCreate(*gorm.DB) error     { ensureID(&i.ID); return nil }
func (p *ItemPortionPrice) BeforeCreate(*gorm.DB) error  { ensureID(&p.ID); return nil }
func (s *StockEntry) BeforeCreate(*gorm.DB) error        { ensureID(&s.ID); return nil }
func (o *OutboxEvent) BeforeCreate(*gorm.DB) error       { ensureID(&o.ID); return nil }
func (d *OutboxDLQ) BeforeCreate(*gorm.DB) error         { ensureID(&d.ID); return nil }
