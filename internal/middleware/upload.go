package middleware

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const uploadsLocalKey = "stagedUploads"

// StagedFile is a multipart file written to local temp storage for the duration of a request.
type StagedFile struct {
	Field        string
	OriginalName string
	Path         string
	ContentType  string
	Size         int64
}

// StageUploads writes the named multipart fields to dir before the handler runs and
// removes every staged file once the handler returns, whatever its outcome.
// Missing fields are skipped; handlers decide which files are required.
func StageUploads(dir string, maxBytes int64, fields ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		staged := make(map[string]*StagedFile, len(fields))
		defer func() {
			for _, f := range staged {
				if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
					Logger.WarnContext(c.UserContext(), "failed to remove staged upload",
						slog.String("path", f.Path), slog.String("error", err.Error()))
				}
			}
		}()

		if !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
			c.Locals(uploadsLocalKey, staged)
			return c.Next()
		}

		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create upload dir: %w", err)
		}

		for _, field := range fields {
			fh, err := c.FormFile(field)
			if err != nil || fh == nil {
				continue
			}
			if maxBytes > 0 && fh.Size > maxBytes {
				return fiber.NewError(fiber.StatusRequestEntityTooLarge,
					fmt.Sprintf("%s exceeds the maximum upload size", field))
			}

			path := filepath.Join(dir, uuid.NewString()+filepath.Ext(fh.Filename))
			if err := c.SaveFile(fh, path); err != nil {
				return fmt.Errorf("stage %s: %w", field, err)
			}
			staged[field] = &StagedFile{
				Field:        field,
				OriginalName: fh.Filename,
				Path:         path,
				ContentType:  fh.Header.Get(fiber.HeaderContentType),
				Size:         fh.Size,
			}
		}

		c.Locals(uploadsLocalKey, staged)
		return c.Next()
	}
}

// StagedUpload returns the staged file for field, if the client sent one.
func StagedUpload(c *fiber.Ctx, field string) (*StagedFile, bool) {
	staged, ok := c.Locals(uploadsLocalKey).(map[string]*StagedFile)
	if !ok {
		return nil, false
	}
	f, ok := staged[field]
	return f, ok
}
