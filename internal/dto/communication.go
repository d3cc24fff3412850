package dto

// SendCommunicationRequest is the admin broadcast payload. UniversityIDs is
// ignored when SendToAll is set.
type SendCommunicationRequest struct {
	Subject       string   `json:"subject" validate:"required"`
	Message       string   `json:"message" validate:"required"`
	UniversityIDs []string `json:"university_ids"`
	SendToAll     bool     `json:"send_to_all"`
}

// CommunicationQuery mirrors supported history filters.
type CommunicationQuery struct {
	Limit  int
	Offset int
}
