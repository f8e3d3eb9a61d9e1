package model

import "time"

type Product struct {
	BaseModel
	StoreID           string `db:"store_id" json:"store_id"`
	Name              string `db:"name" json:"name"`
	UnitPrice         int64  `db:"unit_price" json:"unit_price"`                 // minor currency units
	AvailableQuantity int64  `db:"available_quantity" json:"available_quantity"` // single source of truth for stock
}

type MovementType string

const (
	MovementReservation        MovementType = "reservation"
	MovementReservationRelease MovementType = "reservation_release"
)

// StockMovement is an append-only audit row written alongside every stock
// change. It is never read back to compute availability.
type StockMovement struct {
	ID             string       `db:"id"`
	ProductID      string       `db:"product_id"`
	StoreID        string       `db:"store_id"`
	MovementType   MovementType `db:"movement_type"`
	QuantityChange int64        `db:"quantity_change"`
	QuantityBefore int64        `db:"quantity_before"`
	QuantityAfter  int64        `db:"quantity_after"`
	ReferenceID    string       `db:"reference_id"`
	CreatedAt      time.Time    `db:"created_at"`
}
