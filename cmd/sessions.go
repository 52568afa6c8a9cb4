package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/prabhuch28/ingredient-insights/internal/store"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage chat sessions in the local store",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all chat sessions, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(cmd, runSessionsList)
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a session and its messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, cmd *cobra.Command, s *store.Store) error {
			return runSessionsShow(ctx, cmd, s, args[0])
		})
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session and its messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, cmd *cobra.Command, s *store.Store) error {
			return runSessionsDelete(ctx, cmd, s, args[0])
		})
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
}

// withStore opens the local store for a session subcommand. No API key is
// needed, so only the base config validation applies.
func withStore(cmd *cobra.Command, fn func(context.Context, *cobra.Command, *store.Store) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := store.Open(cfg.StorePath(), logger)
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			logger.Warn("closing session store", "error", closeErr)
		}
	}()
	return fn(cmd.Context(), cmd, s)
}

func runSessionsList(ctx context.Context, cmd *cobra.Command, s *store.Store) error {
	sessions, err := s.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}
	if len(sessions) == 0 {
		cmd.Println("No sessions yet.")
		return nil
	}
	for _, sess := range sessions {
		cmd.Printf("%d  %-30s  %d messages  updated %s\n",
			sess.ID, sess.Title, sess.MessageCount, formatTime(sess.UpdatedAt))
	}
	return nil
}

func runSessionsShow(ctx context.Context, cmd *cobra.Command, s *store.Store, arg string) error {
	id, err := parseSessionID(arg)
	if err != nil {
		return err
	}
	detail, err := s.GetSession(ctx, id)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	cmd.Printf("%s (created %s)\n\n", detail.Title, formatTime(detail.CreatedAt))
	for _, msg := range detail.Messages {
		cmd.Printf("[%s] %s\n%s\n\n", formatTime(msg.Timestamp), msg.Role, msg.Content)
	}
	return nil
}

func runSessionsDelete(ctx context.Context, cmd *cobra.Command, s *store.Store, arg string) error {
	id, err := parseSessionID(arg)
	if err != nil {
		return err
	}
	if err := s.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	cmd.Printf("Deleted session %d\n", id)
	return nil
}

func parseSessionID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid session ID: %s", arg)
	}
	return id, nil
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}
