package basehdl

import (
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v3"

	basesvc "servicehub/internal/api/base/service"
	"servicehub/internal/common"
)

// Upload limits
const (
	MaxUploadFiles = 10
	MaxUploadBytes = 10 << 20
)

// ParseUploads reads the files posted under field. A request that is not multipart has none.
func ParseUploads(c fiber.Ctx, field string) ([]basesvc.Upload, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, common.NewError(common.ErrCodeValidationFormat, "Invalid multipart form", common.StatusBadRequest, err.Error())
	}
	headers := form.File[field]
	if len(headers) > MaxUploadFiles {
		return nil, common.ValidationError(fmt.Sprintf("At most %d files per request", MaxUploadFiles), nil)
	}

	uploads := make([]basesvc.Upload, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > MaxUploadBytes {
			return nil, common.ValidationError("File is too large", map[string]interface{}{"file": fh.Filename, "maxBytes": MaxUploadBytes})
		}
		f, err := fh.Open()
		if err != nil {
			return nil, common.NewError(common.ErrCodeValidationFormat, "Unreadable file", common.StatusBadRequest, fh.Filename)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, common.NewError(common.ErrCodeValidationFormat, "Unreadable file", common.StatusBadRequest, fh.Filename)
		}
		uploads = append(uploads, basesvc.Upload{Name: fh.Filename, Data: data})
	}
	return uploads, nil
}
