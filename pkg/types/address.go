package types

import "strings"

// Address is the shipping destination captured at checkout.
type Address struct {
	Street  string `json:"street" validate:"required,max=200"`
	City    string `json:"city" validate:"required,max=100"`
	State   string `json:"state" validate:"required,max=100"`
	ZipCode string `json:"zipCode" validate:"required,max=20"`
	Country string `json:"country" validate:"omitempty,max=100"`
}

// Normalize trims every field and defaults the country to US.
func (a Address) Normalize() Address {
	out := Address{
		Street:  strings.TrimSpace(a.Street),
		City:    strings.TrimSpace(a.City),
		State:   strings.TrimSpace(a.State),
		ZipCode: strings.TrimSpace(a.ZipCode),
		Country: strings.TrimSpace(a.Country),
	}
	if out.Country == "" {
		out.Country = "US"
	}
	return out
}

// Complete reports whether every required line is present.
func (a Address) Complete() bool {
	n := a.Normalize()
	return n.Street != "" && n.City != "" && n.State != "" && n.ZipCode != ""
}
