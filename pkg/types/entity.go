package types

import "time"

// Entity is implemented by every persisted business object. The embedded
// Record supplies the identity and optimistic-locking version.
type Entity interface {
	RecordMeta() *Record
}

// Record carries the persistence bookkeeping shared by all entities.
type Record struct {
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordMeta returns the record itself so embedding types satisfy Entity.
func (r *Record) RecordMeta() *Record { return r }

// IsNew reports whether the entity has never been saved.
func (r *Record) IsNew() bool { return r.ID == "" }

// Registered entity type names.
const (
	TypeCompany  = "Company"
	TypeUser     = "User"
	TypeProject  = "Project"
	TypeActivity = "Activity"
)

// Project statuses.
const (
	ProjectPlanned = "planned"
	ProjectActive  = "active"
	ProjectOnHold  = "on_hold"
	ProjectClosed  = "closed"
)

// ProjectStatuses lists project statuses in display order.
var ProjectStatuses = []string{ProjectPlanned, ProjectActive, ProjectOnHold, ProjectClosed}

// Activity priorities.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// ActivityPriorities lists activity priorities in display order.
var ActivityPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// Company owns users and projects.
type Company struct {
	Record
	Name    string `json:"name"`
	Website string `json:"website"`
	Active  bool   `json:"active"`
}

func (c *Company) String() string { return c.Name }

// User is a person who can own projects and be assigned activities.
type User struct {
	Record
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Phone    string     `json:"phone"`
	Active   bool       `json:"active"`
	JoinedAt *time.Time `json:"joined_at,omitempty"`
	Company  *Company   `json:"company,omitempty"`
}

func (u *User) String() string { return u.Name }

// Project groups activities under one owner.
type Project struct {
	Record
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Budget      float64    `json:"budget"`
	Active      bool       `json:"active"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	Owner       *User      `json:"owner,omitempty"`
	Members     []*User    `json:"members,omitempty"`
}

func (p *Project) String() string { return p.Name }

// Activity is one unit of work inside a project.
type Activity struct {
	Record
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Estimate    int64      `json:"estimate"`
	Done        bool       `json:"done"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Project     *Project   `json:"project,omitempty"`
	Assignee    *User      `json:"assignee,omitempty"`
	Watchers    []*User    `json:"watchers,omitempty"`
}

func (a *Activity) String() string { return a.Name }
