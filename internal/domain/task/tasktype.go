package task

import (
	"fmt"
	"sort"
	"strings"

	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Type enumeration
// ─────────────────────────────────────────────────────────────────────────────

// Type identifies the kind of work a task represents. The set is closed; all
// per-type behavior is looked up from the descriptor table below.
type Type string

const (
	TypeTrademarkApplication Type = "trademark_application"
	TypeRenewal              Type = "renewal"
	TypeOpposition           Type = "opposition"
	TypeOppositionResponse   Type = "opposition_response"
	TypeOfficeActionResponse Type = "office_action_response"
	TypeAssignment           Type = "assignment"
	TypeLicense              Type = "license"
	TypeChangeOfName         Type = "change_of_name"
	TypeChangeOfAddress      Type = "change_of_address"
	TypeRegistrationFee      Type = "registration_fee"
	TypeSuit                 Type = "suit"
	TypeSuitHearing          Type = "suit_hearing"
	TypeSuitDecision         Type = "suit_decision"
	TypeCreateAccrual        Type = "create_accrual"
	TypeGeneral              Type = "general"
)

// String returns the type code.
func (t Type) String() string { return string(t) }

// ─────────────────────────────────────────────────────────────────────────────
// Behavior descriptor
// ─────────────────────────────────────────────────────────────────────────────

// RelatedPartyRule says how a task type links to parties.
type RelatedPartyRule int

const (
	// PartyOptional: parties may be given but are not required.
	PartyOptional RelatedPartyRule = iota
	// PartyRequired: at least one related party must be supplied.
	PartyRequired
	// PartyInheritOwners: owners are copied from the linked asset's applicants.
	PartyInheritOwners
)

// DueDateStrategy selects how due dates are computed.
type DueDateStrategy int

const (
	DueDateNone DueDateStrategy = iota
	DueDateRenewal
	DueDateOpposition
)

// AssetCreation selects whether the task creates its own asset.
type AssetCreation int

const (
	AssetCreateNone AssetCreation = iota
	AssetCreateTrademark
)

// SuitRole places a task type in the suit hierarchy.
type SuitRole int

const (
	SuitNone SuitRole = iota
	// SuitParent opens a new suit record.
	SuitParent
	// SuitChild adds history to the suit opened by a parent task.
	SuitChild
)

// TitleTemplate selects how a default title is synthesized.
type TitleTemplate int

const (
	// TitleFromAsset renders "<name> - <asset title>".
	TitleFromAsset TitleTemplate = iota
	// TitleFromBrand renders "<name> - <brand text>".
	TitleFromBrand
)

// Descriptor is the static behavior of one task type.
type Descriptor struct {
	Type            Type
	Name            string
	RelatedParty    RelatedPartyRule
	RecordsOpponent bool
	DueDate         DueDateStrategy
	AssetCreation   AssetCreation
	Suit            SuitRole
	Title           TitleTemplate

	// AppendRenewalDate adds the computed renewal date to the description.
	AppendRenewalDate bool

	// Internal types are raised by the system and cannot be submitted.
	Internal bool
}

var descriptors = map[Type]Descriptor{
	TypeTrademarkApplication: {
		Name:          "Trademark application",
		RelatedParty:  PartyRequired,
		AssetCreation: AssetCreateTrademark,
		Title:         TitleFromBrand,
	},
	TypeRenewal: {
		Name:              "Renewal",
		RelatedParty:      PartyInheritOwners,
		DueDate:           DueDateRenewal,
		AppendRenewalDate: true,
	},
	TypeOpposition: {
		Name:            "Opposition",
		RelatedParty:    PartyRequired,
		RecordsOpponent: true,
		DueDate:         DueDateOpposition,
	},
	TypeOppositionResponse: {
		Name:            "Response to opposition",
		RelatedParty:    PartyInheritOwners,
		RecordsOpponent: true,
	},
	TypeOfficeActionResponse: {
		Name:         "Office action response",
		RelatedParty: PartyInheritOwners,
	},
	TypeAssignment: {
		Name:         "Assignment",
		RelatedParty: PartyRequired,
	},
	TypeLicense: {
		Name:         "License registration",
		RelatedParty: PartyRequired,
	},
	TypeChangeOfName: {
		Name:         "Change of name",
		RelatedParty: PartyInheritOwners,
	},
	TypeChangeOfAddress: {
		Name:         "Change of address",
		RelatedParty: PartyInheritOwners,
	},
	TypeRegistrationFee: {
		Name:         "Registration fee",
		RelatedParty: PartyInheritOwners,
	},
	TypeSuit: {
		Name:            "Suit",
		RelatedParty:    PartyRequired,
		RecordsOpponent: true,
		Suit:            SuitParent,
	},
	TypeSuitHearing: {
		Name: "Suit hearing",
		Suit: SuitChild,
	},
	TypeSuitDecision: {
		Name: "Suit decision",
		Suit: SuitChild,
	},
	TypeCreateAccrual: {
		Name:     "Create accrual",
		Internal: true,
	},
	TypeGeneral: {
		Name: "General",
	},
}

func init() {
	for t, d := range descriptors {
		d.Type = t
		descriptors[t] = d
	}
}

// Describe returns the descriptor for t.
func Describe(t Type) (Descriptor, bool) {
	d, ok := descriptors[t]
	return d, ok
}

// MustDescribe is Describe for types known at compile time.
func MustDescribe(t Type) Descriptor {
	d, ok := descriptors[t]
	if !ok {
		panic(fmt.Sprintf("task: no descriptor for type %q", t))
	}
	return d
}

// IsValid reports whether t is a known type.
func (t Type) IsValid() bool {
	_, ok := descriptors[t]
	return ok
}

// ParseType validates a submitted type code. Empty codes, unknown codes and
// internal types are rejected.
func ParseType(s string) (Type, error) {
	code := strings.TrimSpace(s)
	if code == "" {
		return "", errors.New(errors.ErrCodeTaskTypeRequired, "task type is required")
	}
	t := Type(strings.ToLower(code))
	d, ok := descriptors[t]
	if !ok {
		return "", errors.Newf(errors.ErrCodeTaskTypeUnknown, "unknown task type %q", s)
	}
	if d.Internal {
		return "", errors.Newf(errors.ErrCodeTaskTypeUnknown, "task type %q cannot be submitted", s)
	}
	return t, nil
}

// Types returns every known type in lexical order.
func Types() []Type {
	out := make([]Type, 0, len(descriptors))
	for t := range descriptors {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DefaultTitle renders the title template. Empty subjects fall back to the
// type name alone.
func (d Descriptor) DefaultTitle(brand, assetTitle string) string {
	subject := assetTitle
	if d.Title == TitleFromBrand {
		subject = brand
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return d.Name
	}
	return d.Name + " - " + subject
}

//Personal.AI order the ending
