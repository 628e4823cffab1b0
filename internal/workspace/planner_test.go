package workspace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awalther/amtspost/internal/models"
)

func testAnalysis() *models.DocumentAnalysis {
	return &models.DocumentAnalysis{
		TitleInEnglish:   "Appointment Invitation",
		Sender:           models.SenderImmigration,
		AddressedTo:      "Max Mustermann",
		SummaryInEnglish: "Show up with your passport.",
	}
}

func TestBuildActionEventAppointment(t *testing.T) {
	start := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	action := models.RequiredAction{
		ActionType: models.ActionAppointment,
		Appointment: &models.Appointment{
			Date:              models.FlexTime{Time: start},
			Location:          "Ausländerbehörde, Berlin",
			RequiredDocuments: []string{"Passport", "Photo"},
		},
	}

	event, err := BuildActionEvent(testAnalysis(), action, "https://drive.google.com/file/d/abc/view", "Europe/Berlin")
	require.NoError(t, err)

	assert.Equal(t, "Appointment: Appointment Invitation", event.Summary)
	assert.Equal(t, "Ausländerbehörde, Berlin", event.Location)
	assert.Equal(t, start.Format(time.RFC3339), event.Start.DateTime)
	assert.Equal(t, start.Add(time.Hour).Format(time.RFC3339), event.End.DateTime)
	assert.Equal(t, "Europe/Berlin", event.Start.TimeZone)
	assert.Equal(t, "Europe/Berlin", event.End.TimeZone)
	assert.Contains(t, event.Description, "Show up with your passport.")
	assert.Contains(t, event.Description, "Passport, Photo")
	assert.Contains(t, event.Description, "Additional Notes: None")
	assert.Contains(t, event.Description, "https://drive.google.com/file/d/abc/view")

	require.NotNil(t, event.Reminders)
	assert.False(t, event.Reminders.UseDefault)
	assert.Contains(t, event.Reminders.ForceSendFields, "UseDefault")
	require.Len(t, event.Reminders.Overrides, 2)
	methods := []string{event.Reminders.Overrides[0].Method, event.Reminders.Overrides[1].Method}
	assert.ElementsMatch(t, []string{"email", "popup"}, methods)
	assert.EqualValues(t, 10, event.Reminders.Overrides[0].Minutes)
}

func TestBuildActionEventReply(t *testing.T) {
	deadline := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	action := models.RequiredAction{
		ActionType: models.ActionReplyRequired,
		Reply: &models.Reply{
			DocumentsToSendInOriginalLanguage: []string{"Meldebescheinigung"},
			DocumentsToSendInEnglish:          []string{"Employment contract"},
			Deadline:                          models.FlexTime{Time: deadline},
			AddressToSendTo:                   "Postfach 12, 10115 Berlin",
		},
	}

	event, err := BuildActionEvent(testAnalysis(), action, "link", "Europe/Berlin")
	require.NoError(t, err)

	assert.Equal(t, "Deadline: Reply Required - Appointment Invitation", event.Summary)
	assert.Equal(t, "Postfach 12, 10115 Berlin", event.Location)
	assert.Contains(t, event.Description, "Meldebescheinigung")
	assert.Contains(t, event.Description, "Employment contract")
}

func TestBuildActionEventPayment(t *testing.T) {
	deadline := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	action := models.RequiredAction{
		ActionType: models.ActionPaymentRequired,
		Payment: &models.Payment{
			Recipient:   "Finanzamt Berlin",
			Amount:      240.5,
			Deadline:    models.FlexTime{Time: deadline},
			BankDetails: map[string]string{"IBAN": "DE02...", "BIC": "BELADEBE"},
		},
	}

	event, err := BuildActionEvent(testAnalysis(), action, "link", "Europe/Berlin")
	require.NoError(t, err)

	assert.Equal(t, "Deadline: Payment Required - Appointment Invitation", event.Summary)
	assert.Empty(t, event.Location)
	assert.Contains(t, event.Description, "Amount: 240.50")
	assert.Contains(t, event.Description, "Recipient: Finanzamt Berlin")
	assert.Contains(t, event.Description, "Reference: None")
	// Bank details render sorted by key.
	assert.Contains(t, event.Description, "BIC: BELADEBE, IBAN: DE02...")
}

func TestBuildActionEventRejectsNoAction(t *testing.T) {
	_, err := BuildActionEvent(testAnalysis(), models.RequiredAction{ActionType: models.ActionNone}, "link", "UTC")
	assert.Error(t, err)
}

func TestBuildReplyTask(t *testing.T) {
	deadline := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	reply := &models.Reply{
		DocumentsToSendInOriginalLanguage: []string{"Meldebescheinigung"},
		DocumentsToSendInEnglish:          []string{"Employment contract"},
		Deadline:                          models.FlexTime{Time: deadline},
		AddressToSendTo:                   "Postfach 12",
	}

	task := BuildReplyTask(testAnalysis(), reply, "link")
	assert.Equal(t, "Send reply: Appointment Invitation", task.Title)
	assert.Equal(t, deadline.Format(time.RFC3339), task.Due)
	assert.Contains(t, task.Notes, "- Meldebescheinigung (original language)")
	assert.Contains(t, task.Notes, "- Employment contract (English)")
	assert.Contains(t, task.Notes, "Send to: Postfach 12")
}
