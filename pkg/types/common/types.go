// Package common holds value types shared by the domain, application and
// interface layers and by the public Go client.
package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ID is a string alias for an entity identifier. Most entities use UUID v4;
// deferred-billing tasks use the sequential "T-<n>" form.
type ID string

// Metadata is an open-ended key-value bag.
type Metadata map[string]interface{}

// NewID generates a new UUID v4 based ID.
func NewID() ID {
	return ID(uuid.New().String())
}

// String returns the ID as a plain string.
func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the ID is empty.
func (id ID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

// Validate checks that the ID is non-empty.
func (id ID) Validate() error {
	if id.IsZero() {
		return fmt.Errorf("ID cannot be empty")
	}
	return nil
}

// Party is a person or organization referenced by tasks and assets: an
// applicant, a client, a holder, an opponent or an invoicing party.
type Party struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
	Country string `json:"country,omitempty"`
}

// IsZero reports whether the party carries no identifying data.
func (p Party) IsZero() bool {
	return p.ID == "" && strings.TrimSpace(p.Name) == ""
}

// Document is a stored file attached to a task, an accrual or a history entry.
type Document struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	URL         string    `json:"url,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// FileUpload is an inbound file before it is written to the file store.
type FileUpload struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type,omitempty"`
	Content     []byte `json:"content"`
}

// SafeFileName reduces name to its last path element so that it can be used
// as an object key segment. Empty names become "file".
func SafeFileName(name string) string {
	n := strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	if i := strings.LastIndex(n, "/"); i >= 0 {
		n = n[i+1:]
	}
	n = strings.TrimSpace(n)
	if n == "" || n == "." || n == ".." {
		return "file"
	}
	return n
}

// Pagination defines parameters for paginated requests.
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total,omitempty"`
}

// Offset returns the zero-based row offset for the page.
func (p Pagination) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// Limit returns the page size, defaulting to 50 and capped at 500.
func (p Pagination) Limit() int {
	switch {
	case p.PageSize <= 0:
		return 50
	case p.PageSize > 500:
		return 500
	default:
		return p.PageSize
	}
}

//Personal.AI order the ending
