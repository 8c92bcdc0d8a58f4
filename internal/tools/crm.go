package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kairosci/ai-crm/internal/crm"
	"github.com/kairosci/ai-crm/internal/store"
)

// toolListLimit bounds the rows a listing tool feeds back into the
// prompt, keeping observations small.
const toolListLimit = 10

// RegisterCRM binds the CRM store operations into the registry as the
// assistant's tool set.
func RegisterCRM(r *Registry, s *store.Store) {
	r.MustRegister(&Tool{
		Name:        "create_contact",
		Description: `Create a new contact. Input should be JSON with fields: first_name, last_name, email, phone (optional), company (optional), position (optional), notes (optional). Example: {"first_name": "John", "last_name": "Doe", "email": "john@example.com"}`,
		Run:         createContact(s),
	})
	r.MustRegister(&Tool{
		Name:        "get_contacts",
		Description: "Get all contacts. Input: 'all' or empty string.",
		Run:         getContacts(s),
	})
	r.MustRegister(&Tool{
		Name:        "get_contact",
		Description: "Get a specific contact by ID. Input should be the contact ID as a number.",
		Run:         getContact(s),
	})
	r.MustRegister(&Tool{
		Name:        "update_contact",
		Description: `Update an existing contact. Input should be JSON with an "id" field plus any fields to change. Example: {"id": 1, "company": "Acme Corp"}`,
		Run:         updateContact(s),
	})
	r.MustRegister(&Tool{
		Name:        "delete_contact",
		Description: "Delete a contact by ID. Input should be the contact ID as a number.",
		Run:         deleteContact(s),
	})
	r.MustRegister(&Tool{
		Name:        "create_pipeline",
		Description: `Create a new pipeline. Input should be JSON with fields: name, description (optional). Example: {"name": "Sales Pipeline", "description": "Main sales funnel"}`,
		Run:         createPipeline(s),
	})
	r.MustRegister(&Tool{
		Name:        "get_pipelines",
		Description: "Get all pipelines. Input: 'all' or empty string.",
		Run:         getPipelines(s),
	})
	r.MustRegister(&Tool{
		Name:        "create_deal",
		Description: `Create a new deal. Input should be JSON with fields: title, value, pipeline_id, contact_id, description (optional), status (optional: lead/qualified/proposal/negotiation/won/lost). Example: {"title": "Enterprise Deal", "value": 50000, "pipeline_id": 1, "contact_id": 1}`,
		Run:         createDeal(s),
	})
	r.MustRegister(&Tool{
		Name:        "get_deals",
		Description: "Get all deals. Input: 'all' or empty string.",
		Run:         getDeals(s),
	})
	r.MustRegister(&Tool{
		Name:        "create_task",
		Description: `Create a new task. Input should be JSON with fields: title, contact_id, description (optional), priority (optional: low/medium/high/urgent), status (optional: todo/in_progress/completed/cancelled). Example: {"title": "Follow up call", "contact_id": 1, "priority": "high"}`,
		Run:         createTask(s),
	})
	r.MustRegister(&Tool{
		Name:        "get_tasks",
		Description: "Get all tasks. Input: 'all' or empty string.",
		Run:         getTasks(s),
	})
	r.MustRegister(&Tool{
		Name:        "complete_task",
		Description: "Mark a task as completed. Input should be the task ID as a number.",
		Run:         completeTask(s),
	})
}

func createContact(s *store.Store) func(context.Context, string) (string, error) {
	return func(ctx context.Context, input string) (string, error) {
		var params crm.ContactCreate
		if err := decodeJSON(input, &params); err != nil {
			return fmt.Sprintf("Error creating contact: %v", err), nil
		}
		if err := params.Validate(); err != nil {
			return fmt.Sprintf("Error creating contact: %v", err), nil
		}
		contact, err := s.CreateContact(ctx, params)
		if err != nil {
			return fmt.Sprintf("Error creating contact: %v", err), nil
		}
		return fmt.Sprintf("Contact created successfully with ID %d: %s %s (%s)",
			contact.ID, contact.FirstName, contact.LastName, contact.Email), nil
	}
}

func getContacts(s *store.Store) func(context.Context, string) (string, error) {
	return func(ctx context.Context, _ string) (string, error) {
		contacts, err := s.ListContacts(ctx, 0, toolListLimit)
		if err != nil {
			return fmt.Sprintf("Error getting contacts: %v", err), nil
		}
		if len(contacts) == 0 {
			return "No contacts found.", nil
		}
		var b strings.Builder
		b.WriteString("Contacts:\n")
		for _, c := range contacts {
			fmt.Fprintf(&b, "- ID %d: %s %s (%s) - %s\n",
				c.ID, c.FirstName, c.LastName, c.Email, orDefault(c.Company, "No company"))
		}
		return b.String(), nil
	}
}

func getContact(s *store.Store) func(context.Context, string) (string, error) {
	return func(ctx context.Context, input string) (string, error) {
		id, err := parseID(input)
		if err != nil {
			return fmt.Sprintf("Error getting contact: %v", err), nil
		}
		contact, err := s.GetContact(ctx, id)
		if errors.Is(err, crm.ErrNotFound) {
			return fmt.Sprintf("Contact with ID %d not found.", id), nil
		}
		if err != nil {
			return fmt.Sprintf("Error getting contact: %v", err), nil
		}
		return fmt.Sprintf("Contact ID %d: %s %s\nEmail: %s\nPhone: %s\nCompany: %s\nPosition: %s\nNotes: %s",
			contact.ID, contact.FirstName, contact.LastName, contact.Email,
			orDefault(contact.Phone, "N/A"), orDefault(contact.Company, "N/A"),
			orDefault(contact.Position, "N/A"), orDefault(contact.Notes, "N/A")), nil
	}
}

func updateContact(s *store.Store) func(context.Context, string) (string, error) {
	return func(ctx context.Context, input string) (string, error) {
		var params struct {
			ID int64 `json:"id"`
			crm.ContactUpdate
		}
		if err := decodeJSON(input, &params); err != nil {
			return fmt.Sprintf("Error updating contact: %v", err), nil
		}
		if params.ID <= 0 {
			return "Error updating contact: id is required", nil
		}
		if err := params.ContactUpdate.Validate(); err != nil {
			return fmt.Sprintf("Error updating contact: %v", err), nil
		}
		contact, err := s.UpdateContact(ctx, params.ID, params.ContactUpdate)
		if errors.Is(err, crm.ErrNotFound) {
			return fmt.Sprintf("Contact with ID %d not found.", params.ID), nil
		}
		if err != nil {
			return fmt.Sprintf("Error updating contact: %v", err), nil
		}
		return fmt.Sprintf("Contact %d updated: %s %s (%s)",
			contact.ID, contact.FirstName, contact.LastName, contact.Email), nil
	}
}

func deleteContact(s *store.Store) func(context.Context, string) (string, error) {
	return func(ctx context.Context, input string) (string, error) {
		id, err := parseID(input)
		if err != nil {
			return fmt.Sprintf("Error deleting contact: %v", err), nil
		}
		deleted, err := s.DeleteContact(ctx, id)
		if err != nil {
			return fmt.Sprintf("Error deleting contact: %v", err), nil
		}
		if !deleted {
			return fmt.Sprintf("Contact with ID %d not found.", id), nil
		}
		return fmt.Sprintf("Contact with ID %d deleted.", id), nil
	}
}

func createPipeline(s *store.Store) func(context.Context, string) (string, error) {
	return func(ctx context.Context, input string) (string, error) {
		var params crm.PipelineCreate
		if err := decodeJSON(input, &params); err != nil {
			return fmt.Sprintf("Error creating pipeline: %v", err), nil
		}
		if err := params.Validate(); err != nil {
			return fmt.Sprintf("Error creating pipeline: %v", err), nil
		}
		pipeline, err := s.CreatePipeline(ctx, params)
		if err != nil {
			return fmt.Sprintf("Error creating pipeline: %v", err), nil
		}
		return fmt.Sprintf("Pipeline created successfully with ID %d: %s", pipeline.ID, pipeline.Name), nil
	}
}

func getPipelines(s *store.Store) func(context.Context, string) (string, error) {
	return func(ctx context.Context, _ string) (string, error) {
		pipelines, err := s.ListPipelines(ctx, 0, toolListLimit)
		if err != nil {
			return fmt.Sprintf("Error getting pipelines: %v", err), nil
		}
		if len(pipelines) == 0 {
			return "No pipelines found.", nil
		}
		var b strings.Builder
		b.WriteString("Pipelines:\n")
		for _, p := range pipelines {
			fmt.Fprintf(&b, "- ID %d: %s - %s\n", p.ID, p.Name, orDefault(p.Description, "No description"))
		}
		return b.String(), nil
	}
}

func createDeal(s *store.Store) func(context.Context, string) (string, error) {
	return func(ctx context.Context, input string) (string, error) {
		var params crm.DealCreate
		if err := decodeJSON(input, &params); err != nil {
			return fmt.Sprintf("Error creating deal: %v", err), nil
		}
		if err := params.Validate(); err != nil {
			return fmt.Sprintf("Error creating deal: %v", err), nil
		}
		deal, err := s.CreateDeal(ctx, params)
		if err != nil {
			return fmt.Sprintf("Error creating deal: %v", err), nil
		}
		return fmt.Sprintf("Deal created successfully with ID %d: %s ($%s) - Status: %s",
			deal.ID, deal.Title, formatValue(deal.Value), deal.Status), nil
	}
}

func getDeals(s *store.Store) func(context.Context, string) (string, error) {
	return func(ctx context.Context, _ string) (string, error) {
		deals, err := s.ListDeals(ctx, 0, toolListLimit)
		if err != nil {
			return fmt.Sprintf("Error getting deals: %v", err), nil
		}
		if len(deals) == 0 {
			return "No deals found.", nil
		}
		var b strings.Builder
		b.WriteString("Deals:\n")
		for _, d := range deals {
			fmt.Fprintf(&b, "- ID %d: %s ($%s) - Status: %s - Pipeline ID: %d\n",
				d.ID, d.Title, formatValue(d.Value), d.Status, d.PipelineID)
		}
		return b.String(), nil
	}
}

func createTask(s *store.Store) func(context.Context, string) (string, error) {
	return func(ctx context.Context, input string) (string, error) {
		var params crm.TaskCreate
		if err := decodeJSON(input, &params); err != nil {
			return fmt.Sprintf("Error creating task: %v", err), nil
		}
		if err := params.Validate(); err != nil {
			return fmt.Sprintf("Error creating task: %v", err), nil
		}
		task, err := s.CreateTask(ctx, params)
		if err != nil {
			return fmt.Sprintf("Error creating task: %v", err), nil
		}
		return fmt.Sprintf("Task created successfully with ID %d: %s - Priority: %s, Status: %s",
			task.ID, task.Title, task.Priority, task.Status), nil
	}
}

func getTasks(s *store.Store) func(context.Context, string) (string, error) {
	return func(ctx context.Context, _ string) (string, error) {
		tasks, err := s.ListTasks(ctx, 0, toolListLimit)
		if err != nil {
			return fmt.Sprintf("Error getting tasks: %v", err), nil
		}
		if len(tasks) == 0 {
			return "No tasks found.", nil
		}
		var b strings.Builder
		b.WriteString("Tasks:\n")
		for _, t := range tasks {
			fmt.Fprintf(&b, "- ID %d: %s - Priority: %s, Status: %s, Contact ID: %d\n",
				t.ID, t.Title, t.Priority, t.Status, t.ContactID)
		}
		return b.String(), nil
	}
}

func completeTask(s *store.Store) func(context.Context, string) (string, error) {
	return func(ctx context.Context, input string) (string, error) {
		id, err := parseID(input)
		if err != nil {
			return fmt.Sprintf("Error completing task: %v", err), nil
		}
		status := crm.TaskCompleted
		task, err := s.UpdateTask(ctx, id, crm.TaskUpdate{Status: &status})
		if errors.Is(err, crm.ErrNotFound) {
			return fmt.Sprintf("Task with ID %d not found.", id), nil
		}
		if err != nil {
			return fmt.Sprintf("Error completing task: %v", err), nil
		}
		return fmt.Sprintf("Task %d marked as completed: %s", task.ID, task.Title), nil
	}
}

// decodeJSON parses tool input that should be a JSON object. Models often
// wrap input in code fences or quotes; those are stripped first.
func decodeJSON(input string, v any) error {
	cleaned := cleanInput(input)
	if cleaned == "" {
		return fmt.Errorf("expected a JSON object, got empty input")
	}
	dec := json.NewDecoder(strings.NewReader(cleaned))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON input %q: %v", cleaned, err)
	}
	return nil
}

// parseID parses tool input that should be a bare numeric id.
func parseID(input string) (int64, error) {
	cleaned := cleanInput(input)
	id, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("expected a numeric ID, got %q", cleaned)
	}
	if id <= 0 {
		return 0, fmt.Errorf("expected a positive ID, got %d", id)
	}
	return id, nil
}

func cleanInput(input string) string {
	s := strings.TrimSpace(input)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.Trim(s, "`'\"")
	return strings.TrimSpace(s)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
