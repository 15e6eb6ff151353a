package assistant

import "github.com/hudaib2009/AI-DR-Assistant/pkg/response"

var (
	ErrAssistantUnavailable = response.NewError(503, "assistant model is not available")
	ErrEmptyMessage         = response.NewError(400, "message cannot be empty")
	ErrFileTooLarge         = response.NewError(400, "file size exceeds the allowed limit")
	ErrChatFailed           = response.NewError(500, "failed to get a response from the assistant")
)
