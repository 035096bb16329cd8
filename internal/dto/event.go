package dto

// CreateEventRequest payload for publishing a campus event.
type CreateEventRequest struct {
	Title             string `json:"title" validate:"required"`
	Date              string `json:"date" validate:"required"`
	Time              string `json:"time" validate:"required"`
	Location          string `json:"location" validate:"required"`
	Description       string `json:"description" validate:"required"`
	Category          string `json:"category" validate:"required"`
	RegistrationLimit int    `json:"registration_limit" validate:"gte=0"`
}

// RegistrationResponse confirms an event registration.
type RegistrationResponse struct {
	EventID         string `json:"event_id"`
	RegisteredCount int    `json:"registered_count"`
}
