package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/mesh-intelligence/screens/pkg/types"
)

// Names of the demo screens.
const (
	ScreenProject  = "project"
	ScreenActivity = "activity"
	ScreenUser     = "user"
)

// SummaryComponent is the custom component line used by the demo screens.
const SummaryComponent = "summary"

// DemoScreens returns the screen definitions seeded by Seed.
func DemoScreens() []*types.ScreenDefinition {
	readOnly := func(l types.Line) types.Line { l.ReadOnly = true; return l }
	required := func(l types.Line) types.Line { l.Required = true; return l }
	component := func(name string) types.Line { l := types.OwnField(""); l.Component = name; return l }

	defs := []*types.ScreenDefinition{
		{
			Name: ScreenProject, EntityType: types.TypeProject, Title: "Project", Active: true,
			Lines: []types.Line{
				types.SectionMarker("Basic", "Basic data", ""),
				required(types.OwnField("name")),
				types.OwnField("status"),
				types.OwnField("budget"),
				types.OwnField("startDate"),
				types.OwnField("active"),
				types.OwnField("description"),
				types.SectionMarker("Owner", "Owner", ""),
				types.OwnField("owner"),
				readOnly(types.RelationField("owner", "name")),
				readOnly(types.RelationField("owner", "email")),
				types.SectionMarker("Team", "Team", "members"),
				types.OwnField("members"),
				component(SummaryComponent),
			},
		},
		{
			Name: ScreenActivity, EntityType: types.TypeActivity, Title: "Activity", Active: true,
			Lines: []types.Line{
				types.SectionMarker("Main", "Activity", ""),
				required(types.OwnField("name")),
				types.OwnField("priority"),
				types.OwnField("estimate"),
				types.OwnField("dueDate"),
				types.OwnField("done"),
				types.OwnField("description"),
				types.SectionMarker("Links", "Links", ""),
				required(types.OwnField("project")),
				types.OwnField("assignee"),
				types.OwnField("watchers"),
				types.SectionMarker("Assignee", "Assignee", ""),
				readOnly(types.RelationField("assignee", "name")),
				readOnly(types.RelationField("assignee", "email")),
				types.RelationField("assignee", "phone"),
			},
		},
		{
			Name: ScreenUser, EntityType: types.TypeUser, Title: "User", Active: true,
			Lines: []types.Line{
				types.SectionMarker("Profile", "Profile", ""),
				required(types.OwnField("name")),
				required(types.OwnField("email")),
				types.OwnField("phone"),
				types.OwnField("joinedAt"),
				types.OwnField("active"),
				types.SectionMarker("Company", "Company", ""),
				types.OwnField("company"),
				readOnly(types.RelationField("company", "website")),
			},
		},
	}
	for _, def := range defs {
		def.Renumber()
	}
	return defs
}

// Seed stores the demo screens and a small set of sample entities. It only
// runs against a store without screens and reports whether anything was
// written.
func Seed(ctx context.Context, b *Backend) (bool, error) {
	db, err := b.handle()
	if err != nil {
		return false, err
	}
	var count int
	if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM screens"); err != nil {
		return false, fmt.Errorf("counting screens: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	screens, err := b.ScreenStore()
	if err != nil {
		return false, err
	}
	for _, def := range DemoScreens() {
		if err := screens.SaveScreen(ctx, def); err != nil {
			return false, fmt.Errorf("seeding screen %s: %w", def.Name, err)
		}
	}
	if err := seedEntities(ctx, b); err != nil {
		return false, err
	}
	return true, nil
}

func seedEntities(ctx context.Context, b *Backend) error {
	save := func(entityType string, newEntity func() any, e any) (any, error) {
		repo, err := b.Repository(entityType, newEntity)
		if err != nil {
			return nil, err
		}
		saved, err := repo.Save(ctx, e)
		if err != nil {
			return nil, fmt.Errorf("seeding %s: %w", entityType, err)
		}
		return saved, nil
	}
	newCompany := func() any { return new(types.Company) }
	newUser := func() any { return new(types.User) }
	newProject := func() any { return new(types.Project) }
	newActivity := func() any { return new(types.Activity) }

	c, err := save(types.TypeCompany, newCompany, &types.Company{Name: "Acme", Website: "https://acme.example", Active: true})
	if err != nil {
		return err
	}
	acme := c.(*types.Company)

	joined := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var users []*types.User
	for _, u := range []types.User{
		{Name: "Ada Lovelace", Email: "ada@acme.example", Phone: "+44 20 7946 0001"},
		{Name: "Grace Hopper", Email: "grace@acme.example", Phone: "+1 202 555 0142"},
		{Name: "Alan Turing", Email: "alan@acme.example"},
	} {
		u.Active = true
		u.JoinedAt = &joined
		u.Company = acme
		saved, err := save(types.TypeUser, newUser, &u)
		if err != nil {
			return err
		}
		users = append(users, saved.(*types.User))
	}

	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	p, err := save(types.TypeProject, newProject, &types.Project{
		Name:        "Website relaunch",
		Description: "Replace the marketing site.",
		Status:      types.ProjectActive,
		Budget:      25000,
		Active:      true,
		StartDate:   &start,
		Owner:       users[0],
		Members:     users[:2],
	})
	if err != nil {
		return err
	}
	project := p.(*types.Project)

	due := start.AddDate(0, 1, 0)
	for _, a := range []types.Activity{
		{Name: "Draft sitemap", Priority: types.PriorityHigh, Estimate: 8, Assignee: users[0]},
		{Name: "Pick hosting", Priority: types.PriorityMedium, Estimate: 3, Assignee: users[1], Watchers: users[:1]},
	} {
		a.Project = project
		a.DueDate = &due
		if _, err := save(types.TypeActivity, newActivity, &a); err != nil {
			return err
		}
	}
	return nil
}
