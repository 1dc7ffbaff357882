package models

import "time"

type Merchant struct {
	ID             uint64    `json:"id"`
	Address        string    `json:"address"`
	Active         bool      `json:"active"`
	Verified       bool      `json:"verified"`
	DateRegistered time.Time `json:"date_registered"`
}

// MerchantFilter predicates are AND-combined; a nil field matches everything.
type MerchantFilter struct {
	IsActive   *bool
	IsVerified *bool
}

func (f MerchantFilter) Matches(m *Merchant) bool {
	if f.IsActive != nil && m.Active != *f.IsActive {
		return false
	}
	if f.IsVerified != nil && m.Verified != *f.IsVerified {
		return false
	}
	return true
}
