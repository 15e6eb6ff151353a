package assistantService

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/hudaib2009/AI-DR-Assistant/internal/api/assistant"
	"github.com/hudaib2009/AI-DR-Assistant/pkg/gemini"
	"github.com/sirupsen/logrus"
)

type fakeGemini struct {
	reply           string
	err             error
	calls           int
	lastMessage     string
	lastAttachments []gemini.Attachment
}

func (f *fakeGemini) GenerateReply(ctx context.Context, message string, attachments []gemini.Attachment) (string, error) {
	f.calls++
	f.lastMessage = message
	f.lastAttachments = attachments
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newTestService(g gemini.IGemini) IAssistantService {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(logger, g)
}

func TestChatReturnsReply(t *testing.T) {
	g := &fakeGemini{reply: "Drink plenty of water."}
	svc := newTestService(g)

	result, err := svc.Chat(context.Background(), "What should I do?", nil)
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if result.Reply != "Drink plenty of water." {
		t.Errorf("unexpected reply %q", result.Reply)
	}
	if g.calls != 1 {
		t.Errorf("expected one model call, got %d", g.calls)
	}
	if g.lastMessage != "What should I do?" {
		t.Errorf("unexpected message %q", g.lastMessage)
	}
}

func TestChatUnavailable(t *testing.T) {
	svc := newTestService(nil)

	_, err := svc.Chat(context.Background(), "hello", nil)
	if !errors.Is(err, assistant.ErrAssistantUnavailable) {
		t.Fatalf("expected ErrAssistantUnavailable, got %v", err)
	}
}

func TestChatEmptyMessage(t *testing.T) {
	g := &fakeGemini{reply: "never used"}
	svc := newTestService(g)

	_, err := svc.Chat(context.Background(), "   ", nil)
	if !errors.Is(err, assistant.ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if g.calls != 0 {
		t.Errorf("model should not be called for empty message, got %d calls", g.calls)
	}
}

func TestChatForwardsImageAttachment(t *testing.T) {
	g := &fakeGemini{reply: "The image shows a healthy retina."}
	svc := newTestService(g)

	attachment := &gemini.Attachment{MIMEType: "image/png", Data: []byte("png bytes")}
	result, err := svc.Chat(context.Background(), "What does this scan show?", attachment)
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if result.Reply == "" {
		t.Error("expected non-empty reply")
	}
	if len(g.lastAttachments) != 1 || g.lastAttachments[0].MIMEType != "image/png" {
		t.Errorf("expected image attachment to be forwarded, got %+v", g.lastAttachments)
	}
}

func TestChatForwardsTextAttachment(t *testing.T) {
	g := &fakeGemini{reply: "Summarized."}
	svc := newTestService(g)

	attachment := &gemini.Attachment{MIMEType: "text/plain", Data: []byte("lab results")}
	if _, err := svc.Chat(context.Background(), "Summarize this.", attachment); err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if len(g.lastAttachments) != 1 || g.lastAttachments[0].MIMEType != "text/plain" {
		t.Errorf("expected text attachment to be forwarded, got %+v", g.lastAttachments)
	}
}

func TestChatUnsupportedAttachment(t *testing.T) {
	g := &fakeGemini{reply: "never used"}
	svc := newTestService(g)

	attachment := &gemini.Attachment{MIMEType: "application/pdf", Data: []byte("%PDF-1.4")}
	result, err := svc.Chat(context.Background(), "Read this.", attachment)
	if err != nil {
		t.Fatalf("unsupported attachment should produce a reply, got error %v", err)
	}
	if !strings.Contains(result.Reply, "application/pdf") {
		t.Errorf("refusal should name the content type, got %q", result.Reply)
	}
	if g.calls != 0 {
		t.Errorf("model should not be called for unsupported attachment, got %d calls", g.calls)
	}
}

func TestChatGenerateError(t *testing.T) {
	g := &fakeGemini{err: errors.New("quota exceeded")}
	svc := newTestService(g)

	_, err := svc.Chat(context.Background(), "hello", nil)
	if !errors.Is(err, assistant.ErrChatFailed) {
		t.Fatalf("expected ErrChatFailed, got %v", err)
	}
}
