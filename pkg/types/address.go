package types

import "strings"

// Address mirrors the backend's shipping address payload.
type Address struct {
	ID         string `json:"id,omitempty"`
	FullName   string `json:"fullName,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"isDefault,omitempty"`
}

// Complete reports whether the address carries everything checkout needs.
func (a Address) Complete() bool {
	for _, field := range []string{a.Address, a.City, a.PostalCode, a.Country} {
		if strings.TrimSpace(field) == "" {
			return false
		}
	}
	return true
}
