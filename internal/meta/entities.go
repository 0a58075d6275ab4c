package meta

import (
	"time"

	"github.com/mesh-intelligence/screens/pkg/types"
)

// Provider names registered by the application for the sample domain.
const (
	ProviderCompanies = "companies"
	ProviderUsers     = "users"
	ProviderProjects  = "projects"
)

// Domain returns a registry holding the sample business entities.
func Domain() *Registry {
	return NewRegistry().MustRegister(
		CompanySchema(),
		UserSchema(),
		ProjectSchema(),
		ActivitySchema(),
	)
}

func CompanySchema() *Schema {
	return NewSchema[types.Company](types.TypeCompany,
		Text("name", func(c *types.Company) *string { return &c.Name }, MaxLength(120)),
		Text("website", func(c *types.Company) *string { return &c.Website }, MaxLength(255)),
		Boolean("active", func(c *types.Company) *bool { return &c.Active }, Default("true")),
	)
}

func UserSchema() *Schema {
	return NewSchema[types.User](types.TypeUser,
		Text("name", func(u *types.User) *string { return &u.Name }, MaxLength(120)),
		Text("email", func(u *types.User) *string { return &u.Email },
			MaxLength(255), Rules("email"), Description("Work address used for notifications")),
		Text("phone", func(u *types.User) *string { return &u.Phone }, MaxLength(32)),
		Boolean("active", func(u *types.User) *bool { return &u.Active }, Default("true")),
		Date("joinedAt", func(u *types.User) **time.Time { return &u.JoinedAt }, DisplayName("Joined")),
		Reference("company", types.TypeCompany, func(u *types.User) **types.Company { return &u.Company },
			DataProvider(ProviderCompanies)),
	)
}

func ProjectSchema() *Schema {
	return NewSchema[types.Project](types.TypeProject,
		Text("name", func(p *types.Project) *string { return &p.Name }, MaxLength(200)),
		Text("description", func(p *types.Project) *string { return &p.Description }, MaxLength(4000)),
		Enum("status", func(p *types.Project) *string { return &p.Status }, types.ProjectStatuses,
			Default(types.ProjectPlanned)),
		Number("budget", func(p *types.Project) *float64 { return &p.Budget }),
		Boolean("active", func(p *types.Project) *bool { return &p.Active }, Default("true")),
		Date("startDate", func(p *types.Project) **time.Time { return &p.StartDate }),
		Reference("owner", types.TypeUser, func(p *types.Project) **types.User { return &p.Owner },
			DataProvider(ProviderUsers)),
		Collection("members", types.TypeUser, func(p *types.Project) *[]*types.User { return &p.Members },
			DataProvider(ProviderUsers)),
	)
}

func ActivitySchema() *Schema {
	return NewSchema[types.Activity](types.TypeActivity,
		Text("name", func(a *types.Activity) *string { return &a.Name }, MaxLength(200)),
		Text("description", func(a *types.Activity) *string { return &a.Description }, MaxLength(4000)),
		Enum("priority", func(a *types.Activity) *string { return &a.Priority }, types.ActivityPriorities,
			Default(types.PriorityMedium)),
		Integer("estimate", func(a *types.Activity) *int64 { return &a.Estimate }, Description("Estimated hours")),
		Boolean("done", func(a *types.Activity) *bool { return &a.Done }),
		Date("dueDate", func(a *types.Activity) **time.Time { return &a.DueDate }, DisplayName("Due")),
		Reference("project", types.TypeProject, func(a *types.Activity) **types.Project { return &a.Project },
			DataProvider(ProviderProjects)),
		Reference("assignee", types.TypeUser, func(a *types.Activity) **types.User { return &a.Assignee },
			DataProvider(ProviderUsers)),
		Collection("watchers", types.TypeUser, func(a *types.Activity) *[]*types.User { return &a.Watchers },
			DataProvider(ProviderUsers)),
	)
}
