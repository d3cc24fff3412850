package dto

// CreateQueryRequest opens a new thread with its first message.
type CreateQueryRequest struct {
	Subject string `json:"subject" validate:"required"`
	Message string `json:"message" validate:"required"`
}

// ReplyQueryRequest appends a message to an open thread.
type ReplyQueryRequest struct {
	Message string `json:"message" validate:"required"`
}
