package api

type CreateChatRequest struct {
	Title string `json:"title"`
}

type RenameChatRequest struct {
	Title string `json:"title"`
}

type ListChatsParams struct {
	Limit int `schema:"limit"`
}

type DeleteChatResponse struct {
	Success bool `json:"success"`
}

type PostMessageRequest struct {
	Question string `json:"question"`
	Model    string `json:"model,omitempty"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CompletionRequest struct {
	Messages []ChatMessage `json:"messages"`
	ChatID   string        `json:"chatId,omitempty"`
	Model    string        `json:"model,omitempty"`
}

type ModelsResponse struct {
	Models  []string `json:"models"`
	Default string   `json:"default"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
