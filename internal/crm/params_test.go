package crm

import (
	"errors"
	"testing"
)

func TestContactCreateValidate(t *testing.T) {
	tests := []struct {
		name      string
		params    ContactCreate
		wantField string
	}{
		{"valid", ContactCreate{FirstName: "John", LastName: "Doe", Email: "john@example.com"}, ""},
		{"missing first name", ContactCreate{LastName: "Doe", Email: "john@example.com"}, "first_name"},
		{"missing last name", ContactCreate{FirstName: "John", Email: "john@example.com"}, "last_name"},
		{"missing email", ContactCreate{FirstName: "John", LastName: "Doe"}, "email"},
		{"bad email", ContactCreate{FirstName: "John", LastName: "Doe", Email: "not-an-email"}, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("got field %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestDealCreateDefaults(t *testing.T) {
	params := DealCreate{Title: "Enterprise Deal", Value: 50000, PipelineID: 1, ContactID: 1}
	if err := params.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.Status != DealLead {
		t.Errorf("got status %q, want %q", params.Status, DealLead)
	}
}

func TestDealCreateValidate(t *testing.T) {
	tests := []struct {
		name   string
		params DealCreate
	}{
		{"missing title", DealCreate{Value: 1, PipelineID: 1, ContactID: 1}},
		{"negative value", DealCreate{Title: "d", Value: -1, PipelineID: 1, ContactID: 1}},
		{"bad status", DealCreate{Title: "d", Status: "archived", PipelineID: 1, ContactID: 1}},
		{"missing pipeline", DealCreate{Title: "d", ContactID: 1}},
		{"missing contact", DealCreate{Title: "d", PipelineID: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.params.Validate(); !IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestTaskCreateDefaults(t *testing.T) {
	params := TaskCreate{Title: "Follow up call", ContactID: 1}
	if err := params.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.Priority != PriorityMedium {
		t.Errorf("got priority %q, want %q", params.Priority, PriorityMedium)
	}
	if params.Status != TaskTodo {
		t.Errorf("got status %q, want %q", params.Status, TaskTodo)
	}
}

func TestTaskUpdateValidate(t *testing.T) {
	bad := TaskStatus("paused")
	params := TaskUpdate{Status: &bad}
	if err := params.Validate(); !IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestDealStatusTerminal(t *testing.T) {
	for _, s := range []DealStatus{DealLead, DealQualified, DealProposal, DealNegotiation} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	for _, s := range []DealStatus{DealWon, DealLost} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}
