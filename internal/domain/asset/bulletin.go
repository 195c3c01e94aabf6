package asset

import (
	"strings"
	"time"

	"github.com/turtacn/KeyIP-Docket/pkg/types/common"
)

// Bulletin is a published trademark entry as returned by the bulletin data
// source.
type Bulletin struct {
	ID                string    `json:"id"`
	BulletinNo        string    `json:"bulletin_no"`
	BulletinDate      time.Time `json:"bulletin_date"`
	ApplicationNumber string    `json:"application_number"`
	BrandText         string    `json:"brand_text,omitempty"`
	ApplicantName     string    `json:"applicant_name,omitempty"`
	NiceClasses       []int     `json:"nice_classes,omitempty"`
}

// ToStub converts the entry into an unsaved third-party asset that can be
// linked to a task and promoted on first use.
func (b *Bulletin) ToStub() *Asset {
	if b == nil {
		return nil
	}
	date := b.BulletinDate
	stub := &Asset{
		Title:             strings.TrimSpace(b.BrandText),
		Type:              TypeTrademark,
		ApplicationNumber: strings.TrimSpace(b.ApplicationNumber),
		ApplicantName:     strings.TrimSpace(b.ApplicantName),
		Ownership:         OwnershipThirdParty,
		Source:            SourceBulletin,
		BrandText:         strings.TrimSpace(b.BrandText),
		Bulletin:          &BulletinRef{ID: b.ID, No: b.BulletinNo},
	}
	if !date.IsZero() {
		stub.Bulletin.Date = &date
	}
	if stub.ApplicantName != "" {
		stub.Holder = &common.Party{Name: stub.ApplicantName}
	}
	for _, c := range b.NiceClasses {
		stub.NiceClasses = append(stub.NiceClasses, NiceClass{ClassNo: c})
	}
	return stub
}

//Personal.AI order the ending
