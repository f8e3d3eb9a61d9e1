package model

type Store struct {
	BaseModel
	OwnerUserID      string  `db:"owner_user_id" json:"owner_user_id"`
	Name             string  `db:"name" json:"name"`
	Email            string  `db:"email" json:"email"`
	Phone            *string `db:"phone" json:"phone"`
	Address          *string `db:"address" json:"address"`
	PaymentAccountID *string `db:"payment_account_id" json:"payment_account_id"` // nil until onboarding completes
}

// PaymentAccount returns the connected gateway account, or "" when onboarding
// has not attached one yet.
func (s *Store) PaymentAccount() string {
	if s == nil || s.PaymentAccountID == nil {
		return ""
	}
	return *s.PaymentAccountID
}
