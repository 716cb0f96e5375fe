package conversationrequests

// CreateConversationRequest represents the request to create a conversation
type CreateConversationRequest struct {
	Title string `json:"title"`
}

// UpdateConversationRequest represents the request to rename a conversation
type UpdateConversationRequest struct {
	Title string `json:"title" binding:"required" validate:"required"`
}

// AddMessageRequest represents the request to append a message
type AddMessageRequest struct {
	Role    string `json:"role" binding:"required,oneof=user assistant system" validate:"required,oneof=user assistant system"`
	Content string `json:"content" binding:"required" validate:"required"`
}

// HistoryQueryParams represents query parameters for the history endpoint
type HistoryQueryParams struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=200" validate:"omitempty,min=1,max=200"`
}
