package validation

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
)

// ErrMissingFile is returned when the multipart form has no "file" part.
var ErrMissingFile = errors.New("missing file field")

// ErrTooLarge is returned when the request body exceeds the upload limit.
var ErrTooLarge = errors.New("upload too large")

// ReadUpload binds the multipart form on c and returns the uploaded file's bytes.
// The body is capped at maxBytes. On failure it writes a 400 or 413 response and
// returns an error for the handler to short-circuit.
func ReadUpload(c *gin.Context, maxBytes int64) ([]byte, error) {
	if maxBytes > 0 && c.Request.ContentLength > maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"detail": "Uploaded file is too large."})
		return nil, ErrTooLarge
	}
	if maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	}

	var req ScanUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		if isTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"detail": "Uploaded file is too large."})
			return nil, fmt.Errorf("%w: %v", ErrTooLarge, err)
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": "A file must be uploaded in the 'file' form field.",
			"fields": validationErrorsToMap(err),
		})
		return nil, fmt.Errorf("%w: %v", ErrMissingFile, err)
	}

	if maxBytes > 0 && req.File.Size > maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"detail": "Uploaded file is too large."})
		return nil, ErrTooLarge
	}

	f, err := req.File.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Could not read uploaded file."})
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Could not read uploaded file."})
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	// mime/multipart does not always wrap the reader error.
	return strings.Contains(err.Error(), "request body too large")
}

func validationErrorsToMap(err error) map[string]string {
	out := map[string]string{}
	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fe.StructNamespace()] = fe.Error()
		}
	} else {
		out["error"] = err.Error()
	}
	return out
}
