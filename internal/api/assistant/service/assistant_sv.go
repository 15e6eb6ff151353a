package assistantService

import (
	"fmt"
	"strings"

	"github.com/hudaib2009/AI-DR-Assistant/internal/api/assistant"
	contextPkg "github.com/hudaib2009/AI-DR-Assistant/pkg/context"
	"github.com/hudaib2009/AI-DR-Assistant/pkg/gemini"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

func (s *assistantService) Chat(ctx context.Context, message string, attachment *gemini.Attachment) (*assistant.ChatResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if s.gemini == nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
		}).Warn("Chat requested while assistant is unavailable")
		return nil, assistant.ErrAssistantUnavailable
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, assistant.ErrEmptyMessage
	}

	var attachments []gemini.Attachment
	if attachment != nil {
		if !isSupportedAttachment(attachment.MIMEType) {
			s.log.WithFields(logrus.Fields{
				"request_id":   requestID,
				"content_type": attachment.MIMEType,
			}).Info("Unsupported attachment type, replying without model call")
			return &assistant.ChatResponse{
				Reply: fmt.Sprintf("I'm sorry, but I can't process files of type '%s'. I can handle images (PNG, JPG) and plain text files.", attachment.MIMEType),
			}, nil
		}
		attachments = append(attachments, *attachment)
	}

	reply, err := s.gemini.GenerateReply(ctx, message, attachments)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate assistant reply")
		return nil, assistant.ErrChatFailed
	}

	return &assistant.ChatResponse{Reply: reply}, nil
}

func isSupportedAttachment(contentType string) bool {
	return strings.HasPrefix(contentType, "image/") || contentType == "text/plain"
}
