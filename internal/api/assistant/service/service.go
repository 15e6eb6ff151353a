package assistantService

import (
	"context"

	"github.com/hudaib2009/AI-DR-Assistant/internal/api/assistant"
	"github.com/hudaib2009/AI-DR-Assistant/pkg/gemini"
	"github.com/sirupsen/logrus"
)

type IAssistantService interface {
	Chat(ctx context.Context, message string, attachment *gemini.Attachment) (*assistant.ChatResponse, error)
}

type assistantService struct {
	log    *logrus.Logger
	gemini gemini.IGemini
}

func New(
	log *logrus.Logger,
	gemini gemini.IGemini,
) IAssistantService {
	return &assistantService{
		log:    log,
		gemini: gemini,
	}
}
