// Package asset defines IP records (trademarks, patents, designs), the
// bulletin stubs they can be promoted from and their transaction history.
package asset

import (
	"strings"
	"time"

	"github.com/turtacn/KeyIP-Docket/pkg/errors"
	"github.com/turtacn/KeyIP-Docket/pkg/types/common"
)

// Type is the kind of IP right.
type Type string

const (
	TypeTrademark Type = "trademark"
	TypePatent    Type = "patent"
	TypeDesign    Type = "design"
)

// Ownership tells whether the firm's client owns the right.
type Ownership string

const (
	OwnershipSelf       Ownership = "self"
	OwnershipThirdParty Ownership = "third_party"
)

// Source tells where the record came from.
type Source string

const (
	SourcePortfolio Source = "portfolio"
	SourceBulletin  Source = "bulletin"
)

// BulletinRef points at the official bulletin entry a record was published in.
type BulletinRef struct {
	ID   string     `json:"id,omitempty"`
	No   string     `json:"no,omitempty"`
	Date *time.Time `json:"date,omitempty"`
}

// Asset is an IP record.
type Asset struct {
	ID                 string     `json:"id,omitempty"`
	Title              string     `json:"title"`
	Type               Type       `json:"type"`
	ApplicationNumber  string     `json:"application_number,omitempty"`
	RegistrationNumber string     `json:"registration_number,omitempty"`
	ApplicationDate    *time.Time `json:"application_date,omitempty"`
	RegistrationDate   *time.Time `json:"registration_date,omitempty"`
	RenewalDate        *time.Time `json:"renewal_date,omitempty"`

	// ApplicantName is an explicit display name that overrides the party lists.
	ApplicantName string         `json:"applicant_name,omitempty"`
	Applicants    []common.Party `json:"applicants,omitempty"`
	Client        *common.Party  `json:"client,omitempty"`
	Holder        *common.Party  `json:"holder,omitempty"`

	Country     string       `json:"country,omitempty"`
	Ownership   Ownership    `json:"ownership"`
	Source      Source       `json:"source"`
	BrandText   string       `json:"brand_text,omitempty"`
	NiceClasses []NiceClass  `json:"nice_classes,omitempty"`
	Bulletin    *BulletinRef `json:"bulletin,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsBulletinStub reports whether a is a third-party bulletin record that has
// not been stored as a durable asset yet.
func (a *Asset) IsBulletinStub() bool {
	return a != nil && a.ID == "" && a.Source == SourceBulletin
}

// DisplayTitle returns the title, falling back to the brand text.
func (a *Asset) DisplayTitle() string {
	if a == nil {
		return ""
	}
	if t := strings.TrimSpace(a.Title); t != "" {
		return t
	}
	return strings.TrimSpace(a.BrandText)
}

// PrimaryApplicantName resolves the name shown in task lists: the explicit
// field, then the first named applicant, then the client, then the holder.
func (a *Asset) PrimaryApplicantName() string {
	if a == nil {
		return ""
	}
	if n := strings.TrimSpace(a.ApplicantName); n != "" {
		return n
	}
	for _, p := range a.Applicants {
		if n := strings.TrimSpace(p.Name); n != "" {
			return n
		}
	}
	if a.Client != nil {
		if n := strings.TrimSpace(a.Client.Name); n != "" {
			return n
		}
	}
	if a.Holder != nil {
		return strings.TrimSpace(a.Holder.Name)
	}
	return ""
}

// Owners returns the parties that own the right: the applicants, or the
// holder when no applicant is recorded.
func (a *Asset) Owners() []common.Party {
	if a == nil {
		return nil
	}
	out := make([]common.Party, 0, len(a.Applicants))
	for _, p := range a.Applicants {
		if !p.IsZero() {
			out = append(out, p)
		}
	}
	if len(out) == 0 && a.Holder != nil && !a.Holder.IsZero() {
		out = append(out, *a.Holder)
	}
	return out
}

// RenewalBase picks the date a renewal is computed from: renewal date, then
// registration date, then application date. Nil means none is known.
func (a *Asset) RenewalBase() *time.Time {
	if a == nil {
		return nil
	}
	for _, d := range []*time.Time{a.RenewalDate, a.RegistrationDate, a.ApplicationDate} {
		if d != nil && !d.IsZero() {
			v := *d
			return &v
		}
	}
	return nil
}

// Validate checks the fields every stored asset needs.
func (a *Asset) Validate() error {
	if strings.TrimSpace(a.DisplayTitle()) == "" {
		return errors.Validation("asset title or brand text is required")
	}
	switch a.Type {
	case TypeTrademark, TypePatent, TypeDesign:
	default:
		return errors.Validation("unknown asset type").WithDetail(string(a.Type))
	}
	switch a.Ownership {
	case OwnershipSelf, OwnershipThirdParty:
	default:
		return errors.Validation("unknown asset ownership").WithDetail(string(a.Ownership))
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Construction
// ─────────────────────────────────────────────────────────────────────────────

// NewTrademarkParams collects the inputs of NewTrademark.
type NewTrademarkParams struct {
	BrandText       string
	NiceSelection   string
	Applicants      []common.Party
	Client          *common.Party
	Country         string
	ApplicationDate *time.Time
}

// NewTrademark builds a new self-owned trademark application record. The nice
// selection text is parsed into per-class goods and services.
func NewTrademark(p NewTrademarkParams, now time.Time) (*Asset, error) {
	brand := strings.TrimSpace(p.BrandText)
	if brand == "" {
		return nil, errors.Validation("brand text is required for a trademark application")
	}
	classes, err := ParseNiceSelections(p.NiceSelection)
	if err != nil {
		return nil, err
	}
	a := &Asset{
		ID:              string(common.NewID()),
		Title:           brand,
		Type:            TypeTrademark,
		ApplicationDate: p.ApplicationDate,
		Applicants:      append([]common.Party(nil), p.Applicants...),
		Client:          p.Client,
		Country:         strings.ToUpper(strings.TrimSpace(p.Country)),
		Ownership:       OwnershipSelf,
		Source:          SourcePortfolio,
		BrandText:       brand,
		NiceClasses:     classes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return a, nil
}

// PromoteBulletin copies the public fields of a bulletin stub into a new
// durable record. The result keeps third-party ownership and its bulletin
// reference.
func PromoteBulletin(stub *Asset, now time.Time) (*Asset, error) {
	if !stub.IsBulletinStub() {
		return nil, errors.New(errors.ErrCodeBulletinPromoteFailed, "asset is not a bulletin stub")
	}
	if strings.TrimSpace(stub.ApplicationNumber) == "" {
		return nil, errors.New(errors.ErrCodeBulletinPromoteFailed, "bulletin stub has no application number")
	}
	a := stub.Clone()
	a.ID = string(common.NewID())
	a.Ownership = OwnershipThirdParty
	if a.Type == "" {
		a.Type = TypeTrademark
	}
	if strings.TrimSpace(a.Title) == "" {
		a.Title = a.BrandText
	}
	if strings.TrimSpace(a.Title) == "" {
		a.Title = a.ApplicationNumber
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	return a, nil
}

// Clone returns a deep copy of a.
func (a *Asset) Clone() *Asset {
	if a == nil {
		return nil
	}
	cp := *a
	cp.ApplicationDate = cloneTime(a.ApplicationDate)
	cp.RegistrationDate = cloneTime(a.RegistrationDate)
	cp.RenewalDate = cloneTime(a.RenewalDate)
	cp.Applicants = append([]common.Party(nil), a.Applicants...)
	if a.Client != nil {
		c := *a.Client
		cp.Client = &c
	}
	if a.Holder != nil {
		h := *a.Holder
		cp.Holder = &h
	}
	if a.NiceClasses != nil {
		cp.NiceClasses = make([]NiceClass, len(a.NiceClasses))
		for i, nc := range a.NiceClasses {
			cp.NiceClasses[i] = NiceClass{ClassNo: nc.ClassNo, Items: append([]NiceItem(nil), nc.Items...)}
		}
	}
	if a.Bulletin != nil {
		b := *a.Bulletin
		b.Date = cloneTime(a.Bulletin.Date)
		cp.Bulletin = &b
	}
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// ─────────────────────────────────────────────────────────────────────────────
// Transaction history
// ─────────────────────────────────────────────────────────────────────────────

// Transaction is one entry of an asset's history, written for every task
// created against the asset.
type Transaction struct {
	ID          string            `json:"id"`
	AssetID     string            `json:"asset_id"`
	TaskID      string            `json:"task_id"`
	TaskType    string            `json:"task_type"`
	Description string            `json:"description,omitempty"`
	Documents   []common.Document `json:"documents,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewTransaction builds a history entry.
func NewTransaction(assetID, taskID, taskType, description string, docs []common.Document, now time.Time) (*Transaction, error) {
	if assetID == "" || taskID == "" {
		return nil, errors.InvalidParam("asset transaction requires asset id and task id")
	}
	return &Transaction{
		ID:          string(common.NewID()),
		AssetID:     assetID,
		TaskID:      taskID,
		TaskType:    taskType,
		Description: description,
		Documents:   append([]common.Document(nil), docs...),
		CreatedAt:   now,
	}, nil
}

//Personal.AI order the ending
