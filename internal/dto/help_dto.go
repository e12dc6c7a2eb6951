package dto

// HelpRequestCreate is a student help request forwarded to the broadcast
// hub (and from there to the support bot).
type HelpRequestCreate struct {
	Category    string   `json:"category" validate:"required"`
	Subject     string   `json:"subject" validate:"required,min=3"`
	Description string   `json:"description" validate:"required,min=3"`
	UserID      string   `json:"userId" validate:"required"`
	Images      []string `json:"images" validate:"omitempty,dive,url"`
}

// HelpRequestResponse acknowledges a stored help request.
type HelpRequestResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}
