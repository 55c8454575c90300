package catalog

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Category groups items for the consumption view.
type Category struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}

// Unit is a measurement unit referenced by items.
type Unit struct {
	ID          string
	DisplayName string
	UnitName    string
	CreatedAt   time.Time
}

// Vendor supplies items.
type Vendor struct {
	ID             string
	Name           string
	Address        string
	Mobile         string
	Email          string
	OpeningBalance decimal.Decimal
	CreatedAt      time.Time
}

// ErrInvalidInput indicates a create request that fails its preconditions.
var ErrInvalidInput = errors.New("catalog: invalid input")
