package dto

// ReservedItem carries the price and owning store read from the product
// record at the moment its stock was decremented.
type ReservedItem struct {
	ProductID string
	StoreID   string
	Name      string
	Quantity  int64
	UnitPrice int64
}

type Reservation struct {
	ReferenceID string
	Items       []ReservedItem
}
