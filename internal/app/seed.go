package app

import (
	"context"
	"time"

	"github.com/wolvesgale/ToDo-Appli/internal/api"
	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

var sampleUsers = []ports.CreateUserInput{
	{ID: "user1", Email: "admin@example.com", Name: "Taro Tanaka", Plan: domain.PlanPro},
	{ID: "user2", Email: "user@example.com", Name: "Hanako Sato"},
	{ID: "user3", Email: "suzuki@example.com", Name: "Ichiro Suzuki"},
	{ID: "user4", Email: "yamada@example.com", Name: "Misaki Yamada"},
	{ID: "user5", Email: "watanabe@example.com", Name: "Kenta Watanabe"},
}

var sampleActions = []ports.CreateActionInput{
	{Key: "call", Name: "Phone call", Category: "contact", IsDefault: true},
	{Key: "email", Name: "Send email", Category: "contact", IsDefault: true},
	{Key: "visit", Name: "On-site visit", Category: "field"},
	{Key: "quote", Name: "Send quote", Category: "sales"},
}

// Seed loads sample users, a tenant, two projects owned by user1 and a small
// board so a fresh development server has something to show.
func Seed(ctx context.Context, svc api.Services) error {
	for _, u := range sampleUsers {
		if _, err := svc.Users.Create(ctx, u); err != nil {
			return err
		}
	}

	tenant, err := svc.Tenants.Create(ctx, ports.CreateTenantInput{Name: "Sample Inc.", OwnerID: "user1"})
	if err != nil {
		return err
	}
	if _, err := svc.Tenants.AddMember(ctx, ports.AddTenantMemberInput{TenantID: tenant.ID, UserID: "user2", Role: domain.TenantAdmin}); err != nil {
		return err
	}

	first, err := svc.Projects.Create(ctx, ports.CreateProjectInput{
		Name:        "Sample project 1",
		Description: "A sample project",
		OwnerID:     "user1",
		TenantID:    tenant.ID,
	})
	if err != nil {
		return err
	}
	second, err := svc.Projects.Create(ctx, ports.CreateProjectInput{
		Name:        "Sample project 2",
		Description: "The second sample project",
		OwnerID:     "user1",
	})
	if err != nil {
		return err
	}
	for _, m := range []ports.AddMemberInput{
		{ProjectID: first.ID, UserID: "user2", Role: domain.RoleEditor, InvitedBy: "user1"},
		{ProjectID: first.ID, UserID: "user3", Role: domain.RoleViewer, InvitedBy: "user1"},
		{ProjectID: second.ID, UserID: "user2", Role: domain.RoleMember, InvitedBy: "user1"},
	} {
		if _, err := svc.Members.Add(ctx, m); err != nil {
			return err
		}
	}

	today := time.Now().UTC()
	day := func(offset int) string { return today.AddDate(0, 0, offset).Format(domain.DateLayout) }

	for _, t := range []ports.CreateTaskInput{
		{ProjectID: first.ID, Title: "Sample task 1", Status: domain.TaskInProgress, Priority: domain.PriorityHigh, AssigneeID: "user1", DueDate: day(3), Tags: []string{"sample"}, Matrix: &domain.MatrixPosition{Importance: domain.LevelHigh, Urgency: domain.LevelHigh}, CreatedBy: "user1"},
		{ProjectID: first.ID, Title: "Sample task 2", Priority: domain.PriorityMedium, AssigneeID: "user2", DueDate: day(10), Tags: []string{"sample"}, Matrix: &domain.MatrixPosition{Importance: domain.LevelHigh, Urgency: domain.LevelLow}, CreatedBy: "user1"},
		{ProjectID: second.ID, Title: "Project 2 task", Status: domain.TaskDone, Priority: domain.PriorityLow, AssigneeID: "user1", DueDate: day(-2), Matrix: &domain.MatrixPosition{Importance: domain.LevelLow, Urgency: domain.LevelLow}, CreatedBy: "user2"},
	} {
		if _, err := svc.Tasks.Create(ctx, t); err != nil {
			return err
		}
	}

	var stages []*domain.Stage
	for i, name := range []string{"Hearing", "Proposal", "Contract"} {
		order := i + 1
		s, err := svc.Stages.Create(ctx, ports.CreateStageInput{ProjectID: first.ID, Name: name, Order: &order})
		if err != nil {
			return err
		}
		stages = append(stages, s)
	}
	var targets []*domain.Target
	for i, name := range []string{"target1", "target2"} {
		order := i + 1
		t, err := svc.Targets.Create(ctx, ports.CreateTargetInput{
			ProjectID:   first.ID,
			Name:        name,
			DisplayName: "Target " + string(rune('1'+i)),
			Email:       name + "@example.com",
			Order:       &order,
		})
		if err != nil {
			return err
		}
		targets = append(targets, t)
	}

	for _, a := range sampleActions {
		a.ProjectID = first.ID
		if _, err := svc.Actions.Create(ctx, a); err != nil {
			return err
		}
	}

	started := domain.CellInProgress
	assignees := []string{"user1"}
	due := day(1)
	action := sampleActions[0].Key
	_, err = svc.Matrix.UpsertCell(ctx, ports.UpsertCellInput{
		ProjectID: first.ID,
		TargetID:  targets[0].ID,
		StageID:   stages[0].ID,
		Status:    &started,
		DueDate:   &due,
		Assignees: &assignees,
		ActionKey: &action,
		ActorID:   "user1",
	})
	return err
}
