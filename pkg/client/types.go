package client

import "time"

// Party is a person or organisation attached to a task, asset or accrual.
type Party struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
	Country string `json:"country,omitempty"`
}

// Document is a stored file reference.
type Document struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	URL         string    `json:"url,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// FileUpload is an inline file. Content travels base64-encoded.
type FileUpload struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type,omitempty"`
	Content     []byte `json:"content"`
}

// Money is an amount in one currency.
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// FeeInput is the fee entered for a billable task.
type FeeInput struct {
	OfficialFee        Money   `json:"official_fee"`
	ServiceFee         Money   `json:"service_fee"`
	VATRate            float64 `json:"vat_rate"`
	ApplyVATToOfficial bool    `json:"apply_vat_to_official"`
}

// Warning is a non-fatal problem reported by the server.
type Warning struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}

func (w Warning) String() string { return w.Step + ": " + w.Message }

//Personal.AI order the ending
