package validation

import "mime/multipart"

// ScanUploadRequest is the multipart payload for POST /scan.
type ScanUploadRequest struct {
	File *multipart.FileHeader `form:"file" binding:"required"` // the uploaded image
}
