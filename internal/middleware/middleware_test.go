package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestSanitizeRequestBodyRedactsImagePayload(t *testing.T) {
	body := `{"image_base64":"iVBORw0KGgoAAAANSUhEUg","note":"left eye"}`

	got := sanitizeRequestBody(body)
	if strings.Contains(got, "iVBORw0KGgo") {
		t.Errorf("image payload leaked into log: %s", got)
	}
	if !strings.Contains(got, "[REDACTED]") {
		t.Errorf("expected redaction marker, got %s", got)
	}
	if !strings.Contains(got, "left eye") {
		t.Errorf("non-sensitive fields should survive, got %s", got)
	}
}

func TestSanitizeRequestBodyNonJSON(t *testing.T) {
	if got := sanitizeRequestBody("\x89PNG binary junk"); got != "[non-JSON body]" {
		t.Errorf("expected non-JSON placeholder, got %q", got)
	}
}

func TestSanitizeRequestBodyTruncatesLongBodies(t *testing.T) {
	long := `{"note":"` + strings.Repeat("a", maxLoggedBodyLen*2) + `"}`

	got := sanitizeRequestBody(long)
	if len(got) > maxLoggedBodyLen+len("...[truncated]") {
		t.Errorf("sanitized body too long: %d bytes", len(got))
	}
	if !strings.HasSuffix(got, "...[truncated]") {
		t.Errorf("expected truncation suffix, got %q", got)
	}
}

func TestRequestIDMiddlewareGeneratesID(t *testing.T) {
	app := fiber.New()
	app.Use(NewRequestIDMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(RequestIDKey).(string))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	header := resp.Header.Get(RequestIDKey)
	if len(header) != 26 {
		t.Errorf("expected generated ULID in %s header, got %q", RequestIDKey, header)
	}

	body, _ := io.ReadAll(resp.Body)
	if string(body) != header {
		t.Errorf("locals value %q does not match header %q", body, header)
	}
}

func TestRequestIDMiddlewareKeepsClientID(t *testing.T) {
	app := fiber.New()
	app.Use(NewRequestIDMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDKey, "client-supplied-id")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get(RequestIDKey); got != "client-supplied-id" {
		t.Errorf("expected client id to be kept, got %q", got)
	}
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	m := New(discardLogger())

	app := fiber.New()
	app.Get("/limited", m.NewRateLimiter, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	var blocked int
	for i := 0; i < 250; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/limited", nil))
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
		if resp.StatusCode == fiber.StatusTooManyRequests {
			blocked++
		} else if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("unexpected status %d on request %d", resp.StatusCode, i)
		}
		resp.Body.Close()
	}

	if blocked == 0 {
		t.Error("expected requests beyond the burst to be rejected")
	}
}

func TestGetLimiterFromReusesPerIP(t *testing.T) {
	limiter := newRateLimiter(50, 100)

	first := limiter.GetLimiterFrom("10.0.0.1")
	second := limiter.GetLimiterFrom("10.0.0.1")
	other := limiter.GetLimiterFrom("10.0.0.2")

	if first != second {
		t.Error("same IP should reuse its limiter")
	}
	if first == other {
		t.Error("different IPs should get separate limiters")
	}
}
