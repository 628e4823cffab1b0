package models

import (
	"fmt"
	"strings"
	"time"
)

// Sender is the issuing authority category the model assigns to a document.
type Sender string

const (
	SenderEmploymentAgency Sender = "Employment Agency"
	SenderTax              Sender = "Tax"
	SenderHealth           Sender = "Health"
	SenderImmigration      Sender = "Immigration"
	SenderOther            Sender = "Other"
)

// Valid reports whether s is one of the known sender categories.
func (s Sender) Valid() bool {
	switch s {
	case SenderEmploymentAgency, SenderTax, SenderHealth, SenderImmigration, SenderOther:
		return true
	}
	return false
}

// ActionType discriminates the required-action variants.
type ActionType string

const (
	ActionNone            ActionType = "no_action"
	ActionAppointment     ActionType = "appointment"
	ActionReplyRequired   ActionType = "reply_required"
	ActionPaymentRequired ActionType = "payment_required"
)

// FlexTime unmarshals the timestamps the model produces. Gemini is prompted
// for RFC 3339 but occasionally returns bare dates or drops the offset, so
// parsing falls back through the common shapes.
type FlexTime struct {
	time.Time
}

var flexTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (t *FlexTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	for _, layout := range flexTimeLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

func (t FlexTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + t.Format(time.RFC3339) + `"`), nil
}

// Appointment describes an in-person appointment the document demands.
type Appointment struct {
	Date              FlexTime `json:"date"`
	Location          string   `json:"location"`
	RequiredDocuments []string `json:"required_documents,omitempty"`
	AdditionalNotes   string   `json:"additional_notes,omitempty"`
}

// Reply describes documents that have to be sent back by a deadline.
type Reply struct {
	DocumentsToSendInOriginalLanguage []string `json:"documents_to_send_in_original_language"`
	DocumentsToSendInEnglish          []string `json:"documents_to_send_in_english"`
	Deadline                          FlexTime `json:"deadline"`
	AddressToSendTo                   string   `json:"address_to_send_to"`
}

// Payment describes a payment the document demands.
type Payment struct {
	Recipient       string            `json:"recipient"`
	Amount          float64           `json:"amount"`
	Deadline        FlexTime          `json:"deadline"`
	BankDetails     map[string]string `json:"bank_details,omitempty"`
	ReferenceNumber string            `json:"reference_number,omitempty"`
}

// RequiredAction is a tagged union: ActionType selects which detail struct is
// populated. Exactly one detail must be present for the non-trivial types.
type RequiredAction struct {
	ActionType  ActionType   `json:"action_type"`
	Appointment *Appointment `json:"appointment,omitempty"`
	Reply       *Reply       `json:"reply,omitempty"`
	Payment     *Payment     `json:"payment,omitempty"`
}

// Due returns the instant the action has to be acted on.
func (a RequiredAction) Due() (time.Time, error) {
	switch a.ActionType {
	case ActionAppointment:
		if a.Appointment == nil {
			return time.Time{}, fmt.Errorf("appointment action without appointment details")
		}
		return a.Appointment.Date.Time, nil
	case ActionReplyRequired:
		if a.Reply == nil {
			return time.Time{}, fmt.Errorf("reply_required action without reply details")
		}
		return a.Reply.Deadline.Time, nil
	case ActionPaymentRequired:
		if a.Payment == nil {
			return time.Time{}, fmt.Errorf("payment_required action without payment details")
		}
		return a.Payment.Deadline.Time, nil
	}
	return time.Time{}, fmt.Errorf("action type %q has no due date", a.ActionType)
}

func (a RequiredAction) validate(i int) error {
	switch a.ActionType {
	case ActionNone:
		return nil
	case ActionAppointment:
		if a.Appointment == nil {
			return fmt.Errorf("action %d: appointment details missing", i)
		}
		if a.Appointment.Date.IsZero() {
			return fmt.Errorf("action %d: appointment has no date", i)
		}
	case ActionReplyRequired:
		if a.Reply == nil {
			return fmt.Errorf("action %d: reply details missing", i)
		}
		if a.Reply.Deadline.IsZero() {
			return fmt.Errorf("action %d: reply has no deadline", i)
		}
	case ActionPaymentRequired:
		if a.Payment == nil {
			return fmt.Errorf("action %d: payment details missing", i)
		}
		if a.Payment.Deadline.IsZero() {
			return fmt.Errorf("action %d: payment has no deadline", i)
		}
	default:
		return fmt.Errorf("action %d: unknown action type %q", i, a.ActionType)
	}
	return nil
}

// DocumentAnalysis is the structured record the model extracts from a single
// scanned document. It is produced once per run and consumed by the filing,
// calendar, and summary-page steps.
type DocumentAnalysis struct {
	TitleInOriginalLanguage   string           `json:"title_in_original_language"`
	TitleInEnglish            string           `json:"title_in_english"`
	Sender                    Sender           `json:"sender"`
	SentDate                  FlexTime         `json:"sent_date"`
	AddressedTo               string           `json:"addressed_to"`
	ContentInOriginalLanguage string           `json:"content_in_original_language"`
	ContentInEnglish          string           `json:"content_in_english"`
	SummaryInEnglish          string           `json:"summary_in_english"`
	RequiredActions           []RequiredAction `json:"required_actions"`
}

// Validate checks that the record is internally consistent before any
// downstream side effects run.
func (d *DocumentAnalysis) Validate() error {
	if strings.TrimSpace(d.TitleInEnglish) == "" {
		return fmt.Errorf("title_in_english is empty")
	}
	if strings.TrimSpace(d.AddressedTo) == "" {
		return fmt.Errorf("addressed_to is empty")
	}
	if !d.Sender.Valid() {
		return fmt.Errorf("unknown sender %q", d.Sender)
	}
	for i, action := range d.RequiredActions {
		if err := action.validate(i); err != nil {
			return err
		}
	}
	return nil
}
