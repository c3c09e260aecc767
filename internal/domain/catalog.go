package domain

import (
	"time"

	"github.com/google/uuid"
)

// Service represents a bookable treatment from the catalog
type Service struct {
	ID              uuid.UUID
	Name            string
	DurationMinutes int
	Price           int64 // CLP, no minor units
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Customer represents a client of the spa
type Customer struct {
	ID        uuid.UUID
	Name      string
	LastName  *string
	Email     *string
	Phone     *string
	Rut       *string // Chilean national id
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName joins name and last name
func (c *Customer) FullName() string {
	if c.LastName == nil || *c.LastName == "" {
		return c.Name
	}
	return c.Name + " " + *c.LastName
}
