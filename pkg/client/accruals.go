package client

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// Accrual is a billing record raised for a task.
type Accrual struct {
	ID                 string     `json:"id"`
	TaskID             string     `json:"task_id"`
	TaskTitle          string     `json:"task_title,omitempty"`
	OfficialFee        Money      `json:"official_fee"`
	ServiceFee         Money      `json:"service_fee"`
	VATRate            float64    `json:"vat_rate"`
	ApplyVATToOfficial bool       `json:"apply_vat_to_official"`
	TotalAmount        []Money    `json:"total_amount"`
	RemainingAmount    []Money    `json:"remaining_amount"`
	Status             string     `json:"status"`
	OfficialFeeParty   *Party     `json:"official_fee_party,omitempty"`
	ServiceFeeParty    *Party     `json:"service_fee_party,omitempty"`
	Files              []Document `json:"files,omitempty"`
	CreatedBy          string     `json:"created_by,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// AccrualFilter narrows List and Export. Zero fields are not applied; From
// and To are inclusive calendar days.
type AccrualFilter struct {
	TaskID string
	Status string
	From   time.Time
	To     time.Time
	Limit  int
}

func (f AccrualFilter) values() url.Values {
	q := url.Values{}
	if f.TaskID != "" {
		q.Set("task_id", f.TaskID)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if !f.From.IsZero() {
		q.Set("from", f.From.Format(dateLayout))
	}
	if !f.To.IsZero() {
		q.Set("to", f.To.Format(dateLayout))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

// AccrualList is a page of accruals.
type AccrualList struct {
	Items []*Accrual `json:"items"`
	Total int        `json:"total"`
}

// Export is a downloaded spreadsheet.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// AccrualsClient reads and settles accruals.
type AccrualsClient struct {
	client *Client
}

// Preview returns the per-currency totals fee would produce. Nothing is
// stored.
func (ac *AccrualsClient) Preview(ctx context.Context, fee FeeInput) ([]Money, error) {
	var out struct {
		Totals []Money `json:"totals"`
	}
	if err := ac.client.post(ctx, apiPath("accruals", "preview"), fee, &out); err != nil {
		return nil, err
	}
	return out.Totals, nil
}

func (ac *AccrualsClient) List(ctx context.Context, filter AccrualFilter) (*AccrualList, error) {
	var out AccrualList
	if err := ac.client.get(ctx, apiPath("accruals"), filter.values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (ac *AccrualsClient) Get(ctx context.Context, id string) (*Accrual, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: accrual id is required", ErrInvalidConfig)
	}
	var out Accrual
	if err := ac.client.get(ctx, apiPath("accruals", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStatus records a payment state: unpaid, partially_paid or paid.
func (ac *AccrualsClient) UpdateStatus(ctx context.Context, id, status string) (*Accrual, error) {
	var out Accrual
	body := map[string]string{"status": status}
	if err := ac.client.patch(ctx, apiPath("accruals", id, "status"), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Export downloads the accruals matching filter as an XLSX workbook.
func (ac *AccrualsClient) Export(ctx context.Context, filter AccrualFilter) (*Export, error) {
	resp, err := ac.client.send(ctx, request{
		method: http.MethodGet,
		path:   apiPath("accruals", "export"),
		query:  filter.values(),
	})
	if err != nil {
		return nil, err
	}
	out := &Export{
		Filename:    "accruals.xlsx",
		ContentType: resp.header.Get("Content-Type"),
		Data:        resp.body,
	}
	if _, params, err := mime.ParseMediaType(resp.header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		out.Filename = params["filename"]
	}
	return out, nil
}

//Personal.AI order the ending
