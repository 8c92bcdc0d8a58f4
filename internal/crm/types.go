// Package crm defines the CRM domain entities and their validation rules.
// Entities are persisted by internal/store and exposed both over the HTTP
// API and through the assistant's tool layer.
package crm

import "time"

// DealStatus is the lifecycle stage of a deal within a pipeline.
type DealStatus string

const (
	DealLead        DealStatus = "lead"
	DealQualified   DealStatus = "qualified"
	DealProposal    DealStatus = "proposal"
	DealNegotiation DealStatus = "negotiation"
	DealWon         DealStatus = "won"
	DealLost        DealStatus = "lost"
)

// Valid reports whether s is a known deal status.
func (s DealStatus) Valid() bool {
	switch s {
	case DealLead, DealQualified, DealProposal, DealNegotiation, DealWon, DealLost:
		return true
	}
	return false
}

// Terminal reports whether s closes the deal. A deal entering a terminal
// status gets its ClosedAt timestamp stamped.
func (s DealStatus) Terminal() bool {
	return s == DealWon || s == DealLost
}

// TaskPriority orders tasks by urgency.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Valid reports whether p is a known priority.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// TaskStatus is the lifecycle stage of a task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskCompleted, TaskCancelled:
		return true
	}
	return false
}

// Contact is a person tracked by the CRM.
type Contact struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Company   string    `json:"company,omitempty"`
	Position  string    `json:"position,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Pipeline is a named sales funnel that deals move through.
type Pipeline struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Deal is a revenue opportunity attached to a contact and a pipeline.
type Deal struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Value       float64    `json:"value"`
	Status      DealStatus `json:"status"`
	PipelineID  int64      `json:"pipeline_id"`
	ContactID   int64      `json:"contact_id"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Task is a follow-up item attached to a contact.
type Task struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	ContactID   int64        `json:"contact_id"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	IsCompleted bool         `json:"is_completed"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
