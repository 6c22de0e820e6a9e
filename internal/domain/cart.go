package domain

type CartLine struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}
