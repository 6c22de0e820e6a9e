package domain

import "github.com/shopspring/decimal"

type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type Item struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// ItemSnapshot is the catalog and stock view of an item at the moment it was checked.
// It reserves nothing.
type ItemSnapshot struct {
	ItemID            string
	Title             string
	UnitPrice         decimal.Decimal
	AvailableQuantity int
}
