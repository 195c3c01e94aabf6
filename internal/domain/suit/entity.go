// Package suit defines the companion records opened for legal-suit tasks and
// their history.
package suit

import (
	"context"
	"strings"
	"time"

	"github.com/turtacn/KeyIP-Docket/pkg/errors"
	"github.com/turtacn/KeyIP-Docket/pkg/types/common"
)

// Status of a suit.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Suit is a court case opened by a parent suit task.
type Suit struct {
	ID         string        `json:"id"`
	TaskID     string        `json:"task_id"`
	Title      string        `json:"title"`
	SuitType   string        `json:"suit_type,omitempty"`
	Court      string        `json:"court,omitempty"`
	FileNumber string        `json:"file_number,omitempty"`
	Client     *common.Party `json:"client,omitempty"`
	Opponent   *common.Party `json:"opponent,omitempty"`
	AssetID    string        `json:"asset_id,omitempty"`
	Status     Status        `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Transaction is one history entry of a suit.
type Transaction struct {
	ID          string            `json:"id"`
	SuitID      string            `json:"suit_id"`
	TaskID      string            `json:"task_id"`
	Description string            `json:"description,omitempty"`
	Documents   []common.Document `json:"documents,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewSuitParams collects the inputs of NewSuit.
type NewSuitParams struct {
	TaskID     string
	Title      string
	SuitType   string
	Court      string
	FileNumber string
	Client     *common.Party
	Opponent   *common.Party
	AssetID    string
}

// NewSuit opens a suit for the task that started it.
func NewSuit(p NewSuitParams, now time.Time) (*Suit, error) {
	if strings.TrimSpace(p.TaskID) == "" {
		return nil, errors.InvalidParam("suit requires the originating task id")
	}
	if strings.TrimSpace(p.Title) == "" {
		return nil, errors.Validation("suit title is required")
	}
	return &Suit{
		ID:         string(common.NewID()),
		TaskID:     p.TaskID,
		Title:      strings.TrimSpace(p.Title),
		SuitType:   p.SuitType,
		Court:      p.Court,
		FileNumber: p.FileNumber,
		Client:     p.Client,
		Opponent:   p.Opponent,
		AssetID:    p.AssetID,
		Status:     StatusOpen,
		CreatedAt:  now,
	}, nil
}

// NewTransaction builds a history entry for suitID.
func NewTransaction(suitID, taskID, description string, docs []common.Document, now time.Time) (*Transaction, error) {
	if suitID == "" || taskID == "" {
		return nil, errors.InvalidParam("suit transaction requires suit id and task id")
	}
	return &Transaction{
		ID:          string(common.NewID()),
		SuitID:      suitID,
		TaskID:      taskID,
		Description: description,
		Documents:   append([]common.Document(nil), docs...),
		CreatedAt:   now,
	}, nil
}

// Repository persists suits. GetByID returns SUIT_001 for unknown ids and
// FindByTaskID returns nil and no error when no suit was opened by the task.
type Repository interface {
	Create(ctx context.Context, s *Suit) error
	GetByID(ctx context.Context, id string) (*Suit, error)
	FindByTaskID(ctx context.Context, taskID string) (*Suit, error)
	AddTransaction(ctx context.Context, tx *Transaction) error
	ListTransactions(ctx context.Context, suitID string) ([]*Transaction, error)
}

//Personal.AI order the ending
