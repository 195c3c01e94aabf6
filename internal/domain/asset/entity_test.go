package asset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Docket/pkg/errors"
	"github.com/turtacn/KeyIP-Docket/pkg/types/common"
)

var testNow = time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC)

func tp(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestPrimaryApplicantName_ResolutionOrder(t *testing.T) {
	a := &Asset{
		ApplicantName: "Explicit",
		Applicants:    []common.Party{{Name: " "}, {Name: "First Applicant"}},
		Client:        &common.Party{Name: "Client Co"},
		Holder:        &common.Party{Name: "Holder Co"},
	}
	assert.Equal(t, "Explicit", a.PrimaryApplicantName())

	a.ApplicantName = ""
	assert.Equal(t, "First Applicant", a.PrimaryApplicantName())

	a.Applicants = nil
	assert.Equal(t, "Client Co", a.PrimaryApplicantName())

	a.Client = &common.Party{}
	assert.Equal(t, "Holder Co", a.PrimaryApplicantName())

	a.Holder = nil
	assert.Equal(t, "", a.PrimaryApplicantName())
	assert.Equal(t, "", (*Asset)(nil).PrimaryApplicantName())
}

func TestDisplayTitle(t *testing.T) {
	assert.Equal(t, "ACME", (&Asset{Title: " ACME "}).DisplayTitle())
	assert.Equal(t, "acme", (&Asset{BrandText: "acme"}).DisplayTitle())
}

func TestOwners(t *testing.T) {
	a := &Asset{Applicants: []common.Party{{Name: "A"}, {}, {Name: "B"}}}
	assert.Equal(t, []common.Party{{Name: "A"}, {Name: "B"}}, a.Owners())

	a = &Asset{Holder: &common.Party{Name: "H"}}
	assert.Equal(t, []common.Party{{Name: "H"}}, a.Owners())

	assert.Empty(t, (&Asset{}).Owners())
}

func TestRenewalBase(t *testing.T) {
	a := &Asset{ApplicationDate: tp("2014-01-10"), RegistrationDate: tp("2015-02-01"), RenewalDate: tp("2024-01-10")}
	assert.Equal(t, tp("2024-01-10"), a.RenewalBase())

	a.RenewalDate = nil
	assert.Equal(t, tp("2015-02-01"), a.RenewalBase())

	a.RegistrationDate = &time.Time{}
	assert.Equal(t, tp("2014-01-10"), a.RenewalBase())

	assert.Nil(t, (&Asset{}).RenewalBase())
}

func TestNewTrademark(t *testing.T) {
	a, err := NewTrademark(NewTrademarkParams{
		BrandText:     " ACME ",
		NiceSelection: "(35) Advertising\n(9) Software",
		Applicants:    []common.Party{{Name: "Acme Ltd."}},
		Country:       "tr",
	}, testNow)
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "ACME", a.Title)
	assert.Equal(t, TypeTrademark, a.Type)
	assert.Equal(t, OwnershipSelf, a.Ownership)
	assert.Equal(t, SourcePortfolio, a.Source)
	assert.Equal(t, "TR", a.Country)
	assert.Equal(t, []int{9, 35}, ClassNumbers(a.NiceClasses))
	assert.NoError(t, a.Validate())
}

func TestNewTrademark_Invalid(t *testing.T) {
	_, err := NewTrademark(NewTrademarkParams{}, testNow)
	assert.True(t, errors.IsValidation(err))

	_, err = NewTrademark(NewTrademarkParams{BrandText: "X", NiceSelection: "bad"}, testNow)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidNiceClass))
}

func TestPromoteBulletin(t *testing.T) {
	b := &Bulletin{
		ID:                "b-1",
		BulletinNo:        "2026/18",
		BulletinDate:      *tp("2026-06-30"),
		ApplicationNumber: "2026/012345",
		BrandText:         "RIVAL",
		ApplicantName:     "Rival AŞ",
		NiceClasses:       []int{25, 35},
	}
	stub := b.ToStub()
	require.True(t, stub.IsBulletinStub())
	assert.Equal(t, "Rival AŞ", stub.PrimaryApplicantName())

	a, err := PromoteBulletin(stub, testNow)
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.False(t, a.IsBulletinStub())
	assert.Equal(t, OwnershipThirdParty, a.Ownership)
	assert.Equal(t, "RIVAL", a.Title)
	assert.Equal(t, "2026/012345", a.ApplicationNumber)
	assert.Equal(t, "2026/18", a.Bulletin.No)
	assert.Equal(t, tp("2026-06-30"), a.Bulletin.Date)
	assert.Equal(t, []int{25, 35}, ClassNumbers(a.NiceClasses))
	assert.Equal(t, "", stub.ID, "stub left untouched")

	_, err = PromoteBulletin(a, testNow)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBulletinPromoteFailed), "durable records are not promoted again")

	noNumber := b.ToStub()
	noNumber.ApplicationNumber = ""
	_, err = PromoteBulletin(noNumber, testNow)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBulletinPromoteFailed))
}

func TestClone_Independent(t *testing.T) {
	a := &Asset{
		Applicants:  []common.Party{{Name: "A"}},
		NiceClasses: []NiceClass{{ClassNo: 9, Items: []NiceItem{{0, "x"}}}},
		RenewalDate: tp("2024-01-10"),
	}
	cp := a.Clone()
	cp.Applicants[0].Name = "B"
	cp.NiceClasses[0].Items[0].Description = "y"
	*cp.RenewalDate = time.Time{}

	assert.Equal(t, "A", a.Applicants[0].Name)
	assert.Equal(t, "x", a.NiceClasses[0].Items[0].Description)
	assert.Equal(t, tp("2024-01-10"), a.RenewalDate)
}

func TestMatches(t *testing.T) {
	a := &Asset{Title: "Acme Logo", ApplicationNumber: "2024/000123", BrandText: "ACME"}
	assert.True(t, Matches(a, "acme"))
	assert.True(t, Matches(a, "000123"))
	assert.True(t, Matches(a, ""))
	assert.False(t, Matches(a, "rival"))
}

func TestNewTransaction(t *testing.T) {
	tx, err := NewTransaction("a1", "t1", "renewal", "Renewal filed", []common.Document{{ID: "d"}}, testNow)
	require.NoError(t, err)
	assert.NotEmpty(t, tx.ID)
	assert.Len(t, tx.Documents, 1)

	_, err = NewTransaction("", "t1", "renewal", "", nil, testNow)
	assert.True(t, errors.IsValidation(err))
}

//Personal.AI order the ending
