package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-audit/command"
	"github.com/goliatone/go-audit/migrations"
	"github.com/goliatone/go-audit/pkg/types"
	"github.com/goliatone/go-audit/query"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply migrations and validate the activity schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				if err := migrations.ValidateSchema(ctx, app.sqlDB, app.dialect); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema ready (%s)\n", app.dialect)
				return nil
			})
		},
	}
}

func newLogCmd(opts *rootOptions) *cobra.Command {
	var (
		workspaceID string
		userID      string
		userEmail   string
		action      string
		entityType  string
		entityID    string
		metadata    map[string]string
	)
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Record an activity log entry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				if userID == "" {
					userID = opts.actor
				}
				input := types.ActivityInput{
					WorkspaceID: workspaceID,
					UserID:      userID,
					UserEmail:   userEmail,
					Action:      strings.ToUpper(action),
					EntityType:  strings.ToUpper(entityType),
				}
				if cmd.Flags().Changed("entity-id") {
					input.EntityID = &entityID
				}
				if len(metadata) > 0 {
					meta := make(map[string]any, len(metadata))
					for k, v := range metadata {
						meta[k] = v
					}
					input.Metadata = meta
				}
				var entry types.ActivityEntry
				if err := app.audit.Commands().CreateActivityLog.Execute(ctx, command.CreateActivityLogInput{
					Input:  input,
					Result: &entry,
				}); err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), entry)
			})
		},
	}
	cmd.Flags().StringVar(&workspaceID, "workspace", "", "Workspace id (required)")
	cmd.Flags().StringVar(&userID, "user", "", "Acting user id (defaults to --actor)")
	cmd.Flags().StringVar(&userEmail, "email", "", "Email snapshot (resolved from the directory when empty)")
	cmd.Flags().StringVar(&action, "action", "", "Activity action, e.g. PROJECT_CREATED (required)")
	cmd.Flags().StringVar(&entityType, "entity-type", "", "Entity type, e.g. PROJECT (required)")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "Entity id")
	cmd.Flags().StringToStringVar(&metadata, "meta", nil, "Metadata key=value pairs")
	_ = cmd.MarkFlagRequired("workspace")
	_ = cmd.MarkFlagRequired("action")
	_ = cmd.MarkFlagRequired("entity-type")
	return cmd
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		workspaceID string
		limit       int
		offset      int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the activity feed of a workspace",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				logs, err := app.audit.Queries().WorkspaceActivity.Query(ctx, query.WorkspaceActivityFilter{
					WorkspaceID: workspaceID,
					Pagination:  types.Pagination{Limit: limit, Offset: offset},
				})
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), logs)
			})
		},
	}
	cmd.Flags().StringVar(&workspaceID, "workspace", "", "Workspace id (required)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Page size (max 100)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Rows to skip")
	_ = cmd.MarkFlagRequired("workspace")
	return cmd
}

func newCountCmd(opts *rootOptions) *cobra.Command {
	var (
		workspaceID string
		action      string
		from        string
		to          string
	)
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count activity in a workspace",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dateFrom, err := parseDateFlag(from, false)
			if err != nil {
				return err
			}
			dateTo, err := parseDateFlag(to, true)
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				count, err := app.audit.CountOrZero(ctx, query.ActivityCountFilter{
					WorkspaceID: workspaceID,
					Action:      types.ActivityAction(strings.ToUpper(action)),
					DateFrom:    dateFrom,
					DateTo:      dateTo,
				})
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), map[string]int{"count": count})
			})
		},
	}
	cmd.Flags().StringVar(&workspaceID, "workspace", "", "Workspace id (required)")
	cmd.Flags().StringVar(&action, "action", "", "Only count this action")
	cmd.Flags().StringVar(&from, "from", "", "Lower bound (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&to, "to", "", "Upper bound (YYYY-MM-DD or RFC3339)")
	_ = cmd.MarkFlagRequired("workspace")
	return cmd
}

func newAdminListCmd(opts *rootOptions) *cobra.Command {
	var (
		workspaceID string
		action      string
		userID      string
		from        string
		to          string
		page        int
		limit       int
		feed        bool
	)
	cmd := &cobra.Command{
		Use:   "admin-list",
		Short: "List activity across every workspace (global ADMIN only)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dateFrom, err := parseDateFlag(from, false)
			if err != nil {
				return err
			}
			dateTo, err := parseDateFlag(to, true)
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				queries := app.audit.Queries()
				if feed {
					logs, err := queries.AdminActivityFeed.Query(ctx, query.AdminActivityFeedFilter{WorkspaceID: workspaceID})
					if err != nil {
						return err
					}
					return writeJSON(cmd.OutOrStdout(), logs)
				}
				result, err := queries.AllActivity.Query(ctx, query.AllActivityFilter{
					WorkspaceID: workspaceID,
					Action:      types.ActivityAction(strings.ToUpper(action)),
					UserID:      userID,
					DateFrom:    dateFrom,
					DateTo:      dateTo,
					Page:        page,
					Limit:       limit,
				})
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), result)
			})
		},
	}
	cmd.Flags().StringVar(&workspaceID, "workspace", "", "Only this workspace")
	cmd.Flags().StringVar(&action, "action", "", "Only this action")
	cmd.Flags().StringVar(&userID, "user", "", "Only this user")
	cmd.Flags().StringVar(&from, "from", "", "Lower bound (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&to, "to", "", "Upper bound (YYYY-MM-DD or RFC3339)")
	cmd.Flags().IntVar(&page, "page", 1, "1-based page")
	cmd.Flags().IntVar(&limit, "limit", 50, "Page size (max 100)")
	cmd.Flags().BoolVar(&feed, "feed", false, "Return the newest 100 entries instead of a page")
	return cmd
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the global activity rollup (global ADMIN only)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				stats, err := app.audit.StatsOrZero(ctx)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), stats)
			})
		},
	}
}

func parseDateFlag(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return &parsed, nil
	}
	parsed, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	if endOfDay {
		parsed = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	return &parsed, nil
}
