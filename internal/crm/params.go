package crm

import (
	"net/mail"
	"strings"
	"time"
)

// ContactCreate carries the fields for a new contact.
type ContactCreate struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Company   string `json:"company,omitempty"`
	Position  string `json:"position,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// Validate checks required fields and the email shape.
func (c *ContactCreate) Validate() error {
	if strings.TrimSpace(c.FirstName) == "" {
		return Invalid("first_name", "is required")
	}
	if strings.TrimSpace(c.LastName) == "" {
		return Invalid("last_name", "is required")
	}
	return validateEmail(c.Email)
}

// ContactUpdate is a partial update; nil fields are left untouched.
type ContactUpdate struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Company   *string `json:"company,omitempty"`
	Position  *string `json:"position,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// Validate checks only the fields that are present.
func (c *ContactUpdate) Validate() error {
	if c.FirstName != nil && strings.TrimSpace(*c.FirstName) == "" {
		return Invalid("first_name", "cannot be empty")
	}
	if c.LastName != nil && strings.TrimSpace(*c.LastName) == "" {
		return Invalid("last_name", "cannot be empty")
	}
	if c.Email != nil {
		return validateEmail(*c.Email)
	}
	return nil
}

// PipelineCreate carries the fields for a new pipeline.
type PipelineCreate struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Validate checks required fields.
func (p *PipelineCreate) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return Invalid("name", "is required")
	}
	return nil
}

// PipelineUpdate is a partial update; nil fields are left untouched.
type PipelineUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Validate checks only the fields that are present.
func (p *PipelineUpdate) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return Invalid("name", "cannot be empty")
	}
	return nil
}

// DealCreate carries the fields for a new deal. Status defaults to "lead"
// and value to 0 when omitted.
type DealCreate struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Value       float64    `json:"value"`
	Status      DealStatus `json:"status,omitempty"`
	PipelineID  int64      `json:"pipeline_id"`
	ContactID   int64      `json:"contact_id"`
}

// Validate checks required fields, applies defaults, and rejects unknown
// status values.
func (d *DealCreate) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return Invalid("title", "is required")
	}
	if d.Value < 0 {
		return Invalid("value", "must not be negative")
	}
	if d.Status == "" {
		d.Status = DealLead
	}
	if !d.Status.Valid() {
		return Invalid("status", "must be one of lead, qualified, proposal, negotiation, won, lost")
	}
	if d.PipelineID <= 0 {
		return Invalid("pipeline_id", "is required")
	}
	if d.ContactID <= 0 {
		return Invalid("contact_id", "is required")
	}
	return nil
}

// DealUpdate is a partial update; nil fields are left untouched.
type DealUpdate struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Value       *float64    `json:"value,omitempty"`
	Status      *DealStatus `json:"status,omitempty"`
	PipelineID  *int64      `json:"pipeline_id,omitempty"`
	ContactID   *int64      `json:"contact_id,omitempty"`
}

// Validate checks only the fields that are present.
func (d *DealUpdate) Validate() error {
	if d.Title != nil && strings.TrimSpace(*d.Title) == "" {
		return Invalid("title", "cannot be empty")
	}
	if d.Value != nil && *d.Value < 0 {
		return Invalid("value", "must not be negative")
	}
	if d.Status != nil && !d.Status.Valid() {
		return Invalid("status", "must be one of lead, qualified, proposal, negotiation, won, lost")
	}
	if d.PipelineID != nil && *d.PipelineID <= 0 {
		return Invalid("pipeline_id", "must be a positive id")
	}
	if d.ContactID != nil && *d.ContactID <= 0 {
		return Invalid("contact_id", "must be a positive id")
	}
	return nil
}

// TaskCreate carries the fields for a new task. Priority defaults to
// "medium" and status to "todo" when omitted.
type TaskCreate struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Priority    TaskPriority `json:"priority,omitempty"`
	Status      TaskStatus   `json:"status,omitempty"`
	ContactID   int64        `json:"contact_id"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
}

// Validate checks required fields, applies defaults, and rejects unknown
// enum values.
func (t *TaskCreate) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return Invalid("title", "is required")
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if !t.Priority.Valid() {
		return Invalid("priority", "must be one of low, medium, high, urgent")
	}
	if t.Status == "" {
		t.Status = TaskTodo
	}
	if !t.Status.Valid() {
		return Invalid("status", "must be one of todo, in_progress, completed, cancelled")
	}
	if t.ContactID <= 0 {
		return Invalid("contact_id", "is required")
	}
	return nil
}

// TaskUpdate is a partial update; nil fields are left untouched.
type TaskUpdate struct {
	Title       *string       `json:"title,omitempty"`
	Description *string       `json:"description,omitempty"`
	Priority    *TaskPriority `json:"priority,omitempty"`
	Status      *TaskStatus   `json:"status,omitempty"`
	ContactID   *int64        `json:"contact_id,omitempty"`
	DueDate     *time.Time    `json:"due_date,omitempty"`
}

// Validate checks only the fields that are present.
func (t *TaskUpdate) Validate() error {
	if t.Title != nil && strings.TrimSpace(*t.Title) == "" {
		return Invalid("title", "cannot be empty")
	}
	if t.Priority != nil && !t.Priority.Valid() {
		return Invalid("priority", "must be one of low, medium, high, urgent")
	}
	if t.Status != nil && !t.Status.Valid() {
		return Invalid("status", "must be one of todo, in_progress, completed, cancelled")
	}
	if t.ContactID != nil && *t.ContactID <= 0 {
		return Invalid("contact_id", "must be a positive id")
	}
	return nil
}

func validateEmail(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return Invalid("email", "is required")
	}
	if _, err := mail.ParseAddress(addr); err != nil {
		return Invalid("email", "is not a valid email address")
	}
	return nil
}
