package utils

import (
	"encoding/base64"
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"
)

func imageFileHeader(name, contentType string, size int64) *multipart.FileHeader {
	return &multipart.FileHeader{
		Filename: name,
		Size:     size,
		Header:   textproto.MIMEHeader{"Content-Type": []string{contentType}},
	}
}

func TestNewULIDFromTimestamp(t *testing.T) {
	u := New()

	id, err := u.NewULIDFromTimestamp(time.Now())
	if err != nil {
		t.Fatalf("NewULIDFromTimestamp returned error: %v", err)
	}
	if len(id) != 26 {
		t.Errorf("expected 26-character ULID, got %d (%q)", len(id), id)
	}

	second, err := u.NewULIDFromTimestamp(time.Now())
	if err != nil {
		t.Fatalf("NewULIDFromTimestamp returned error: %v", err)
	}
	if id == second {
		t.Errorf("expected distinct ULIDs, got %q twice", id)
	}
}

func TestDecodeBase64Image(t *testing.T) {
	u := New()
	raw := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}

	decoded, err := u.DecodeBase64Image(base64.StdEncoding.EncodeToString(raw))
	if err != nil {
		t.Fatalf("DecodeBase64Image returned error: %v", err)
	}
	if string(decoded) != string(raw) {
		t.Errorf("decoded bytes do not match input: %v", decoded)
	}
}

func TestDecodeBase64ImageDataURI(t *testing.T) {
	u := New()
	raw := []byte("fake image bytes")
	payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

	decoded, err := u.DecodeBase64Image(payload)
	if err != nil {
		t.Fatalf("DecodeBase64Image returned error for data URI: %v", err)
	}
	if string(decoded) != string(raw) {
		t.Errorf("decoded bytes do not match input: %v", decoded)
	}
}

func TestDecodeBase64ImageRejectsInvalidInput(t *testing.T) {
	u := New()

	if _, err := u.DecodeBase64Image("not-base64!!!"); err == nil {
		t.Error("expected error for invalid base64 input")
	}
	if _, err := u.DecodeBase64Image("   "); err == nil {
		t.Error("expected error for empty payload")
	}
}

func TestHashImageBytes(t *testing.T) {
	u := New()

	first := u.HashImageBytes([]byte("abc"))
	if first != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Errorf("unexpected SHA-256 for %q: %s", "abc", first)
	}
	if u.HashImageBytes([]byte("abc")) != first {
		t.Error("hash is not deterministic")
	}
	if u.HashImageBytes([]byte("abd")) == first {
		t.Error("different inputs produced the same hash")
	}
}

func TestValidateImageFile(t *testing.T) {
	u := New()

	if err := u.ValidateImageFile(nil); err == nil {
		t.Error("expected error for nil file")
	}

	if err := u.ValidateImageFile(imageFileHeader("retina.png", "image/png", 1024)); err != nil {
		t.Errorf("expected png upload to validate, got %v", err)
	}

	if err := u.ValidateImageFile(imageFileHeader("retina.png", "image/png", 6*1024*1024)); err == nil {
		t.Error("expected error for oversized file")
	}

	if err := u.ValidateImageFile(imageFileHeader("notes.txt", "text/plain", 10)); err == nil {
		t.Error("expected error for non-image content type")
	}
}
