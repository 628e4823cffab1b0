package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/tasks/v1"

	"github.com/awalther/amtspost/internal/models"
)

// eventWindow is the calendar slot blocked out for every action.
const eventWindow = time.Hour

// reminderLeadMinutes is how far ahead of the event both reminders fire.
const reminderLeadMinutes = 10

// Planner creates calendar events and tasks for the required actions of an
// analyzed document.
type Planner struct {
	calendarSvc *calendar.Service
	tasksSvc    *tasks.Service
	calendarID  string
	taskList    string
	timeZone    string
}

// NewPlanner creates the Calendar and Tasks clients on top of an
// authenticated HTTP client.
func NewPlanner(ctx context.Context, client *http.Client, calendarID, taskList, timeZone string) (*Planner, error) {
	calendarSvc, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	tasksSvc, err := tasks.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Tasks service: %w", err)
	}
	return &Planner{
		calendarSvc: calendarSvc,
		tasksSvc:    tasksSvc,
		calendarID:  calendarID,
		taskList:    taskList,
		timeZone:    timeZone,
	}, nil
}

// Schedule inserts one calendar event per non-trivial required action and a
// Google Task for every reply deadline. It returns the created event and
// task IDs.
func (p *Planner) Schedule(ctx context.Context, analysis *models.DocumentAnalysis, fileLink string) ([]string, []string, error) {
	var eventIDs, taskIDs []string

	for i, action := range analysis.RequiredActions {
		if action.ActionType == models.ActionNone {
			continue
		}

		event, err := BuildActionEvent(analysis, action, fileLink, p.timeZone)
		if err != nil {
			return eventIDs, taskIDs, fmt.Errorf("action %d: %w", i, err)
		}
		created, err := p.calendarSvc.Events.Insert(p.calendarID, event).Context(ctx).Do()
		if err != nil {
			return eventIDs, taskIDs, fmt.Errorf("action %d: failed to insert calendar event: %w", i, err)
		}
		slog.Info("Created calendar event.", "summary", created.Summary, "link", created.HtmlLink)
		eventIDs = append(eventIDs, created.Id)

		if action.ActionType == models.ActionReplyRequired {
			task := BuildReplyTask(analysis, action.Reply, fileLink)
			createdTask, err := p.tasksSvc.Tasks.Insert(p.taskList, task).Context(ctx).Do()
			if err != nil {
				return eventIDs, taskIDs, fmt.Errorf("action %d: failed to insert task: %w", i, err)
			}
			slog.Info("Created task.", "title", createdTask.Title)
			taskIDs = append(taskIDs, createdTask.Id)
		}
	}

	return eventIDs, taskIDs, nil
}

// BuildActionEvent renders a required action as a one-hour calendar event
// with email and popup reminders shortly before it starts.
func BuildActionEvent(analysis *models.DocumentAnalysis, action models.RequiredAction, fileLink, timeZone string) (*calendar.Event, error) {
	due, err := action.Due()
	if err != nil {
		return nil, err
	}

	var summary, location, description string
	switch action.ActionType {
	case models.ActionAppointment:
		summary = "Appointment: " + analysis.TitleInEnglish
		location = action.Appointment.Location
		description = joinLines(
			"Summary: "+analysis.SummaryInEnglish,
			"Required Documents: "+orNone(strings.Join(action.Appointment.RequiredDocuments, ", ")),
			"Additional Notes: "+orNone(action.Appointment.AdditionalNotes),
			"Document Link: "+fileLink,
		)
	case models.ActionReplyRequired:
		summary = "Deadline: Reply Required - " + analysis.TitleInEnglish
		location = action.Reply.AddressToSendTo
		description = joinLines(
			"Summary: "+analysis.SummaryInEnglish,
			"Documents to send (Original): "+orNone(strings.Join(action.Reply.DocumentsToSendInOriginalLanguage, ", ")),
			"Documents to send (English): "+orNone(strings.Join(action.Reply.DocumentsToSendInEnglish, ", ")),
			"Address: "+action.Reply.AddressToSendTo,
			"Document Link: "+fileLink,
		)
	case models.ActionPaymentRequired:
		summary = "Deadline: Payment Required - " + analysis.TitleInEnglish
		description = joinLines(
			"Summary: "+analysis.SummaryInEnglish,
			fmt.Sprintf("Amount: %.2f", action.Payment.Amount),
			"Recipient: "+action.Payment.Recipient,
			"Reference: "+orNone(action.Payment.ReferenceNumber),
			"Bank Details: "+orNone(formatBankDetails(action.Payment.BankDetails)),
			"Document Link: "+fileLink,
		)
	default:
		return nil, fmt.Errorf("no calendar event for action type %q", action.ActionType)
	}

	return &calendar.Event{
		Summary:     summary,
		Location:    location,
		Description: description,
		Start: &calendar.EventDateTime{
			DateTime: due.Format(time.RFC3339),
			TimeZone: timeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: due.Add(eventWindow).Format(time.RFC3339),
			TimeZone: timeZone,
		},
		Reminders: &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: "email", Minutes: reminderLeadMinutes},
				{Method: "popup", Minutes: reminderLeadMinutes},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}, nil
}

// BuildReplyTask renders a reply deadline as a Google Task with the document
// checklist in the notes.
func BuildReplyTask(analysis *models.DocumentAnalysis, reply *models.Reply, fileLink string) *tasks.Task {
	var checklist []string
	for _, doc := range reply.DocumentsToSendInOriginalLanguage {
		checklist = append(checklist, "- "+doc+" (original language)")
	}
	for _, doc := range reply.DocumentsToSendInEnglish {
		checklist = append(checklist, "- "+doc+" (English)")
	}

	return &tasks.Task{
		Title: "Send reply: " + analysis.TitleInEnglish,
		Notes: joinLines(
			"Send to: "+reply.AddressToSendTo,
			"Documents:",
			joinLines(checklist...),
			"Document Link: "+fileLink,
		),
		Due: reply.Deadline.Format(time.RFC3339),
	}
}

func formatBankDetails(details map[string]string) string {
	if len(details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+details[k])
	}
	return strings.Join(parts, ", ")
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "None"
	}
	return s
}

func joinLines(lines ...string) string {
	return strings.Join(lines, "\n")
}
