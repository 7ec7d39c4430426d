package validation

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-qrscan/internal/scan"
)

func TestScanInput_Valid(t *testing.T) {
	v := New()

	for _, score := range []int{0, 10, 74, 75, 99, 100} {
		in := scan.NewInput("https://example.com/a", "https://example.com/b", score)
		if err := v.Struct(in); err != nil {
			t.Fatalf("score %d: expected valid, got error: %v", score, err)
		}
	}
}

func TestScanInput_InconsistentSafety(t *testing.T) {
	v := New()

	in := scan.NewInput("https://example.com/a", "https://example.com/a", 80)
	in.IsSafe = true

	err := v.Struct(in)
	if err == nil {
		t.Fatal("expected validation error for is_safe mismatch, got nil")
	}
	fields := validationErrorsToMap(err)
	if _, ok := fields["Input.IsSafe"]; !ok {
		t.Fatalf("expected IsSafe field error, got %v", fields)
	}
}

func TestScanInput_OutOfRangeAndMissing(t *testing.T) {
	v := New()

	in := scan.Input{RiskScore: 101}
	if err := v.Struct(in); err == nil {
		t.Fatal("expected validation errors for missing urls and range, got nil")
	}
}

func init() {
	gin.SetMode(gin.TestMode)
}

func uploadRequest(t *testing.T, field string, payload []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if field != "" {
		fw, err := w.CreateFormFile(field, "qr.png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write(payload)
	} else {
		w.WriteField("note", "no file here")
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/scan", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func runUpload(req *http.Request, maxBytes int64) (*httptest.ResponseRecorder, []byte, error) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = req
	data, err := ReadUpload(c, maxBytes)
	return rec, data, err
}

func TestReadUpload_OK(t *testing.T) {
	payload := []byte("not really an image")
	rec, data, err := runUpload(uploadRequest(t, "file", payload), 1<<20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Fatalf("payload mismatch: %q", data)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("no response should be written on success, got %s", rec.Body.String())
	}
}

func TestReadUpload_MissingFile(t *testing.T) {
	rec, _, err := runUpload(uploadRequest(t, "", nil), 1<<20)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestReadUpload_WrongField(t *testing.T) {
	rec, _, err := runUpload(uploadRequest(t, "image", []byte("x")), 1<<20)
	if err == nil {
		t.Fatal("expected error for wrong field name")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestReadUpload_TooLarge(t *testing.T) {
	rec, _, err := runUpload(uploadRequest(t, "file", bytes.Repeat([]byte("a"), 4096)), 1024)
	if err == nil {
		t.Fatal("expected error for oversized upload")
	}
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}
