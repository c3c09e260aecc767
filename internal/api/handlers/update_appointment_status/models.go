package update_appointment_status

// UpdateStatusRequest HTTP request model
type UpdateStatusRequest struct {
	Status string `json:"status"` // PENDING, CONFIRMED, CANCELLED, NO_SHOW, COMPLETED
}
