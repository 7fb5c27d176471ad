package server

import (
	"strconv"
	"strings"
	"unicode"

	"vidtube/internal/auth"
	"vidtube/internal/middleware"
	"vidtube/internal/models"
	"vidtube/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// parseID extracts a route parameter by name as a positive uint.
// The error message is derived from the parameter name (e.g. "videoId" -> "Invalid video ID").
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 32)
	if err != nil || id == 0 {
		return 0, models.NewValidationError("Invalid " + humanizeParam(param))
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID", "playlistId" -> "playlist ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// parsePage reads the page and limit query parameters. Values that are present but not
// integers are rejected; missing values fall back to page 1 and the default limit.
func parsePage(c *fiber.Ctx) (models.Page, error) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return models.Page{}, err
	}
	limit, err := queryInt(c, "limit", defaultPageLimit)
	if err != nil {
		return models.Page{}, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return models.Page{Page: page, Limit: limit}, nil
}

func queryInt(c *fiber.Ctx, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, models.NewValidationError("Invalid " + key + ": must be an integer")
	}
	return n, nil
}

// currentUserID returns the authenticated user's ID, or 0 for anonymous requests.
func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

func currentClaims(c *fiber.Ctx) *auth.AccessClaims {
	claims, _ := c.Locals("claims").(*auth.AccessClaims)
	return claims
}

// stagedFile returns the staged upload for field as a service input, or nil when absent.
func stagedFile(c *fiber.Ctx, field string) *service.FileUpload {
	f, ok := middleware.StagedUpload(c, field)
	if !ok {
		return nil
	}
	return &service.FileUpload{Path: f.Path, ContentType: f.ContentType}
}

// formValue reads a field from a JSON, urlencoded or multipart body.
// The boolean reports whether the client sent the field at all.
func formValue(c *fiber.Ctx, field string) (string, bool) {
	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return "", false
		}
		values, ok := form.Value[field]
		if !ok || len(values) == 0 {
			return "", false
		}
		return values[0], true
	}
	if c.Is("json") {
		var body map[string]any
		if err := c.BodyParser(&body); err != nil {
			return "", false
		}
		v, ok := body[field]
		if !ok || v == nil {
			return "", false
		}
		str, isString := v.(string)
		return str, isString
	}
	args := c.Request().PostArgs()
	if !args.Has(field) {
		return "", false
	}
	return string(args.Peek(field)), true
}

// optionalFormValue is formValue as a pointer, nil when the field is absent.
func optionalFormValue(c *fiber.Ctx, field string) *string {
	v, ok := formValue(c, field)
	if !ok {
		return nil
	}
	return &v
}

func respond(c *fiber.Ctx, status int, data any, message string) error {
	return models.Respond(c, status, data, message)
}
