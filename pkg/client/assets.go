package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// BulletinRef points at the publication an asset was promoted from.
type BulletinRef struct {
	ID   string     `json:"id,omitempty"`
	No   string     `json:"no,omitempty"`
	Date *time.Time `json:"date,omitempty"`
}

// NiceItem is one selected goods or services item.
type NiceItem struct {
	SubIndex    int    `json:"sub_index,omitempty"`
	Description string `json:"description"`
}

// NiceClass groups the selected items of one Nice class.
type NiceClass struct {
	ClassNo int        `json:"class_no"`
	Items   []NiceItem `json:"items"`
}

// Asset is an IP right tracked by the docket.
type Asset struct {
	ID                 string       `json:"id,omitempty"`
	Title              string       `json:"title"`
	Type               string       `json:"type"`
	ApplicationNumber  string       `json:"application_number,omitempty"`
	RegistrationNumber string       `json:"registration_number,omitempty"`
	ApplicationDate    *time.Time   `json:"application_date,omitempty"`
	RegistrationDate   *time.Time   `json:"registration_date,omitempty"`
	RenewalDate        *time.Time   `json:"renewal_date,omitempty"`
	ApplicantName      string       `json:"applicant_name,omitempty"`
	Applicants         []Party      `json:"applicants,omitempty"`
	Client             *Party       `json:"client,omitempty"`
	Holder             *Party       `json:"holder,omitempty"`
	Country            string       `json:"country,omitempty"`
	Ownership          string       `json:"ownership"`
	Source             string       `json:"source"`
	BrandText          string       `json:"brand_text,omitempty"`
	NiceClasses        []NiceClass  `json:"nice_classes,omitempty"`
	Bulletin           *BulletinRef `json:"bulletin,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// SearchHit is one search result. Saved is false for bulletin entries not
// yet stored locally.
type SearchHit struct {
	Asset  *Asset `json:"asset"`
	Source string `json:"source"`
	Saved  bool   `json:"saved"`
}

// SearchResult is the answer of Search.
type SearchResult struct {
	Query    string      `json:"query"`
	Hits     []SearchHit `json:"hits"`
	Warnings []string    `json:"warnings,omitempty"`
}

// AssetsClient searches local assets and the bulletin.
type AssetsClient struct {
	client *Client
}

// Search runs a combined search. A limit of 0 leaves the server default.
func (ac *AssetsClient) Search(ctx context.Context, query string, limit int) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", ErrInvalidConfig)
	}
	q := url.Values{"q": {query}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out SearchResult
	if err := ac.client.get(ctx, apiPath("assets", "search"), q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

//Personal.AI order the ending
