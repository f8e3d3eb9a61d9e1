package dto

// ReservationRequest is one (productId, quantity) pair of a cart, in the
// order the buyer supplied it.
type ReservationRequest struct {
	ProductID string
	Quantity  int64
}
