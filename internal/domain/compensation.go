package domain

import (
	"time"

	"github.com/google/uuid"
)

type CompensationStatus string

const (
	CompensationPending CompensationStatus = "PENDING"
	CompensationDone    CompensationStatus = "DONE"
)

// Compensation is a restock that could not be applied while unwinding a
// failed placement and is left for the retry worker.
type Compensation struct {
	ID        uuid.UUID
	SagaID    uuid.UUID
	UserID    int64
	ItemID    string
	Quantity  int
	Status    CompensationStatus
	Attempts  int
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}
