package domain

import "time"

// Preset is a named immutable snapshot of a delivery recipe.
type Preset struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Settings  DeliverSettings `json:"settings"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
