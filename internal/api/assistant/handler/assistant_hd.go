package assistantHandler

import (
	"time"

	"github.com/hudaib2009/AI-DR-Assistant/internal/api/assistant"
	contextPkg "github.com/hudaib2009/AI-DR-Assistant/pkg/context"
	"github.com/hudaib2009/AI-DR-Assistant/pkg/gemini"
	"github.com/hudaib2009/AI-DR-Assistant/pkg/handlerUtil"
	"github.com/hudaib2009/AI-DR-Assistant/pkg/log"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

const maxAttachmentSize = 5 * 1024 * 1024

func (h *AssistantHandler) Chat(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 30*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing chat request")

	message := ctx.FormValue("message")
	if message == "" {
		var req assistant.ChatRequest
		if err := ctx.BodyParser(&req); err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_request_body")
		}

		if err := h.validator.Struct(req); err != nil {
			return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
		}

		message = req.Message
	}

	var attachment *gemini.Attachment

	file, err := ctx.FormFile("file")
	if err == nil && file != nil {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
			"file_name":  file.Filename,
			"file_size":  file.Size,
		}).Debug("Processing chat attachment")

		if file.Size > maxAttachmentSize {
			return errHandler.Handle(ctx, requestID, assistant.ErrFileTooLarge, ctx.Path(), "validate_attachment")
		}

		data, err := h.utils.ReadMultipartFile(file)
		if err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_attachment")
		}

		attachment = &gemini.Attachment{
			MIMEType: file.Header.Get("Content-Type"),
			Data:     data,
		}
	}

	result, err := h.assistantService.Chat(c, message, attachment)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "chat")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
		}).Info("Chat reply generated")
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
	}
}
