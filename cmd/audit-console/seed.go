package main

import (
	"context"
	"fmt"

	"github.com/goliatone/go-audit/command"
	"github.com/goliatone/go-audit/pkg/types"
	"github.com/spf13/cobra"
)

var demoWorkspaces = []types.WorkspaceSummary{
	{ID: "ws_ops", Name: "Operações"},
	{ID: "ws_commerce", Name: "Comercial"},
}

var demoUsers = []types.UserSummary{
	{ID: "u_maya", Name: "Maya Castillo", Email: "maya.ops@example.com"},
	{ID: "u_leon", Name: "Leon Price", Email: "leon.commerce@example.com"},
	{ID: "u_root", Name: "Root", Email: "root@example.com"},
}

var demoMembers = []types.WorkspaceMember{
	{WorkspaceID: "ws_ops", UserID: "u_maya", Role: "OWNER", IsActive: true},
	{WorkspaceID: "ws_commerce", UserID: "u_leon", Role: "OWNER", IsActive: true},
}

var demoAdmins = []types.GlobalUser{
	{UserID: "u_root", Role: types.GlobalRoleAdmin, IsActive: true},
}

type seedActivity struct {
	Workspace  string
	User       string
	Action     types.ActivityAction
	EntityType types.EntityType
	EntityID   string
	Metadata   map[string]any
}

var demoActivity = []seedActivity{
	{Workspace: "ws_ops", User: "u_maya", Action: types.ActionWorkspaceCreated, EntityType: types.EntityWorkspace, EntityID: "ws_ops"},
	{Workspace: "ws_ops", User: "u_maya", Action: types.ActionProjectCreated, EntityType: types.EntityProject, EntityID: "prj_roadmap", Metadata: map[string]any{"name": "Roadmap"}},
	{Workspace: "ws_ops", User: "u_maya", Action: types.ActionSettingsUpdated, EntityType: types.EntitySettings, Metadata: map[string]any{"apiKey": "sk_live_51HxYz"}},
	{Workspace: "ws_commerce", User: "u_leon", Action: types.ActionSubscriptionCreated, EntityType: types.EntitySubscription, EntityID: "sub_pro"},
	{Workspace: "ws_commerce", User: "u_leon", Action: types.ActionWalletCredited, EntityType: types.EntityWallet, Metadata: map[string]any{"amount": 150}},
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo workspaces, users and activity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				seeded, count, err := seedDemo(ctx, app)
				if err != nil {
					return err
				}
				if !seeded {
					fmt.Fprintln(cmd.OutOrStdout(), "demo data already present, nothing seeded")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d workspaces, %d users, %d activity entries\n",
					len(demoWorkspaces), len(demoUsers), count)
				return nil
			})
		},
	}
}

// seedDemo loads the demo directory and its activity. Activity is only
// written together with a freshly created directory.
func seedDemo(ctx context.Context, app *App) (bool, int, error) {
	seeded, err := seedDirectory(ctx, app)
	if err != nil || !seeded {
		return false, 0, err
	}
	count, err := seedActivityData(ctx, app)
	return true, count, err
}

// seedDirectory reports false when the demo workspaces already exist.
func seedDirectory(ctx context.Context, app *App) (bool, error) {
	ids := make([]string, 0, len(demoWorkspaces))
	for _, ws := range demoWorkspaces {
		ids = append(ids, ws.ID)
	}
	existing, err := app.directory.FindWorkspacesByIDs(ctx, ids)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		app.GetLogger("seed").Info("directory already seeded, skipping", "workspaces", len(existing))
		return false, nil
	}
	for _, ws := range demoWorkspaces {
		if err := app.directory.SaveWorkspace(ctx, ws); err != nil {
			return false, err
		}
	}
	for _, user := range demoUsers {
		if err := app.directory.SaveUser(ctx, user); err != nil {
			return false, err
		}
	}
	for _, member := range demoMembers {
		if err := app.directory.AddMember(ctx, member); err != nil {
			return false, err
		}
	}
	for _, admin := range demoAdmins {
		if err := app.directory.SetGlobalRole(ctx, admin); err != nil {
			return false, err
		}
	}
	return true, nil
}

// seedActivityData records the demo entries through the create command so
// each one runs as its own author.
func seedActivityData(ctx context.Context, app *App) (int, error) {
	create := app.audit.Commands().CreateActivityLog
	for i, item := range demoActivity {
		input := types.ActivityInput{
			WorkspaceID: item.Workspace,
			UserID:      item.User,
			Action:      string(item.Action),
			EntityType:  string(item.EntityType),
		}
		if item.EntityID != "" {
			entityID := item.EntityID
			input.EntityID = &entityID
		}
		if item.Metadata != nil {
			input.Metadata = item.Metadata
		}
		if err := create.Execute(app.AsActor(ctx, item.User), command.CreateActivityLogInput{Input: input}); err != nil {
			return i, fmt.Errorf("seed activity %d: %w", i, err)
		}
	}
	return len(demoActivity), nil
}
