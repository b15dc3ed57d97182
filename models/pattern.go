package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxPatternName        = 100
	MaxPatternDescription = 500
	MaxGridSide           = 128
	MaxTagName            = 30
	DefaultPageSize       = 20
	MaxPageSize           = 100
)

// Pattern is a stored bead pattern. Data is the RLE encoding of the
// width*height palette indices.
type Pattern struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Palette     Palette   `json:"palette"`
	Data        string    `json:"data"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PatternCreateRequest is the body of POST /api/patterns.
type PatternCreateRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	Palette     Palette  `json:"palette"`
	Data        string   `json:"data"`
	Tags        []string `json:"tags"`
}

// PatternUpdateRequest is the body of PUT /api/patterns/{id}. Nil fields are
// left unchanged.
type PatternUpdateRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Width       *int      `json:"width"`
	Height      *int      `json:"height"`
	Palette     *Palette  `json:"palette"`
	Data        *string   `json:"data"`
	Tags        *[]string `json:"tags"`
}

// PatternListQuery filters and pages GET /api/patterns.
type PatternListQuery struct {
	Keyword  string
	Tag      string
	Page     int
	PageSize int
	Sort     string
	Order    string
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// PatternList is a page of patterns.
type PatternList struct {
	Items      []Pattern  `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// PatternDraft is an unsaved pattern, e.g. the output of an image conversion.
type PatternDraft struct {
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Palette Palette `json:"palette"`
	Data    string  `json:"data"`
}

// ValidationError is a request that failed shape validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a request validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func validateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < 1 || n > MaxPatternName {
		return invalid("name", "must be between 1 and %d characters", MaxPatternName)
	}
	return nil
}

func validateDescription(desc string) error {
	if utf8.RuneCountInString(desc) > MaxPatternDescription {
		return invalid("description", "must be at most %d characters", MaxPatternDescription)
	}
	return nil
}

func validateSide(field string, v int) error {
	if v < 1 || v > MaxGridSide {
		return invalid(field, "must be an integer between 1 and %d", MaxGridSide)
	}
	return nil
}

func validatePaletteShape(p Palette) error {
	if len(p) < 1 {
		return invalid("palette", "must contain at least 1 slot")
	}
	return nil
}

func validateData(data string) error {
	if data == "" {
		return invalid("data", "must not be empty")
	}
	return nil
}

func validateTags(tags []string) error {
	for _, tag := range tags {
		if err := ValidateTagName(tag); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTagName checks a tag name is 1-30 characters.
func ValidateTagName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < 1 || n > MaxTagName {
		return invalid("tags", "tag names must be between 1 and %d characters", MaxTagName)
	}
	return nil
}

// Validate checks the request shape. Palette codes and RLE contents are
// checked by the patterns package.
func (r *PatternCreateRequest) Validate() error {
	if err := validateName(r.Name); err != nil {
		return err
	}
	if err := validateDescription(r.Description); err != nil {
		return err
	}
	if err := validateSide("width", r.Width); err != nil {
		return err
	}
	if err := validateSide("height", r.Height); err != nil {
		return err
	}
	if err := validatePaletteShape(r.Palette); err != nil {
		return err
	}
	if err := validateData(r.Data); err != nil {
		return err
	}
	return validateTags(r.Tags)
}

// Validate checks every field that is present.
func (r *PatternUpdateRequest) Validate() error {
	if r.Name != nil {
		if err := validateName(*r.Name); err != nil {
			return err
		}
	}
	if r.Description != nil {
		if err := validateDescription(*r.Description); err != nil {
			return err
		}
	}
	if r.Width != nil {
		if err := validateSide("width", *r.Width); err != nil {
			return err
		}
	}
	if r.Height != nil {
		if err := validateSide("height", *r.Height); err != nil {
			return err
		}
	}
	if r.Palette != nil {
		if err := validatePaletteShape(*r.Palette); err != nil {
			return err
		}
	}
	if r.Data != nil {
		if err := validateData(*r.Data); err != nil {
			return err
		}
	}
	if r.Tags != nil {
		return validateTags(*r.Tags)
	}
	return nil
}

// Apply merges the present fields into p.
func (r *PatternUpdateRequest) Apply(p *Pattern) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Width != nil {
		p.Width = *r.Width
	}
	if r.Height != nil {
		p.Height = *r.Height
	}
	if r.Palette != nil {
		p.Palette = append(Palette{}, (*r.Palette)...)
	}
	if r.Data != nil {
		p.Data = *r.Data
	}
	if r.Tags != nil {
		p.Tags = append([]string{}, (*r.Tags)...)
	}
}

// TouchesGrid reports whether the update changes anything the RLE data must
// agree with.
func (r *PatternUpdateRequest) TouchesGrid() bool {
	return r.Data != nil || r.Width != nil || r.Height != nil || r.Palette != nil
}

var sortColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"name":       true,
}

// Normalize fills defaults and validates the listing parameters.
func (q *PatternListQuery) Normalize() error {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}
	if q.Sort == "" {
		q.Sort = "updated_at"
	}
	if q.Order == "" {
		q.Order = "desc"
	}
	q.Order = strings.ToLower(q.Order)

	if q.Page < 1 {
		return invalid("page", "must be at least 1")
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		return invalid("pageSize", "must be between 1 and %d", MaxPageSize)
	}
	if !sortColumns[q.Sort] {
		return invalid("sort", "must be one of created_at, updated_at, name")
	}
	if q.Order != "asc" && q.Order != "desc" {
		return invalid("order", "must be asc or desc")
	}
	return nil
}

// Offset is the row offset of the requested page.
func (q PatternListQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}
