package models

// ChatMessage is one turn of the assistant conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BookingDetails is the viewing request a visitor submits through the assistant
type BookingDetails struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	PropertyRef   string `json:"propertyRef"`
	PropertyTitle string `json:"propertyTitle"`
	PreferredDate string `json:"preferredDate"`
	Message       string `json:"message"`
}

type ChatRequest struct {
	Message             string          `json:"message"`
	ConversationHistory []ChatMessage   `json:"conversationHistory"`
	Action              string          `json:"action"`
	BookingDetails      *BookingDetails `json:"bookingDetails"`
	Language            string          `json:"language"`
}

type ChatResponse struct {
	Response         string    `json:"response"`
	Properties       []Listing `json:"properties"`
	Language         string    `json:"language"`
	BookingReference string    `json:"bookingReference,omitempty"`
}

// ContactRequest is the public contact form payload
type ContactRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Phone       string `json:"phone"`
	Message     string `json:"message" binding:"required"`
	PropertyRef string `json:"propertyRef"`
}
