package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"scribed/internal/api"
)

type clientFactory func() (*apiClient, error)

func newStatusCommand(client clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and session counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			status, err := c.Status()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "running: %v\npid: %d\ndatabase: %s\n", status.Running, status.PID, status.DBPath)
			if len(status.Counts) > 0 {
				keys := make([]string, 0, len(status.Counts))
				for key := range status.Counts {
					keys = append(keys, key)
				}
				sort.Strings(keys)
				for _, key := range keys {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d\n", key, status.Counts[key])
				}
			}
			return nil
		},
	}
}

func newListCommand(client clientFactory) *cobra.Command {
	var statusFilter []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			sessions, err := c.ListSessions(statusFilter)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no sessions")
				return nil
			}

			rows := make([][]string, 0, len(sessions))
			for _, sess := range sessions {
				rows = append(rows, []string{
					sess.ID,
					sess.Title,
					sess.Status,
					sess.CreatedAt,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Title", "Status", "Created"},
				rows,
				nil,
			))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&statusFilter, "status", nil, "Filter by status (repeatable)")
	return cmd
}

func newShowCommand(client clientFactory) *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session's details and artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			sess, err := c.GetSession(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id: %s\ntitle: %s\nfilename: %s\nstatus: %s\n", sess.ID, sess.Title, sess.Filename, sess.Status)
			if sess.ErrorMessage != "" {
				fmt.Fprintf(out, "error: %s\n", sess.ErrorMessage)
			}
			if len(sess.SpeakerMapping) > 0 {
				labels := make([]string, 0, len(sess.SpeakerMapping))
				for label := range sess.SpeakerMapping {
					labels = append(labels, label)
				}
				sort.Strings(labels)
				fmt.Fprintln(out, "speakers:")
				for _, label := range labels {
					fmt.Fprintf(out, "  %s -> %s\n", label, sess.SpeakerMapping[label])
				}
			}
			if sess.Summary != "" {
				fmt.Fprintf(out, "\nSummary:\n%s\n", sess.Summary)
			}
			if sess.ActionItems != "" {
				fmt.Fprintf(out, "\nAction items:\n%s\n", sess.ActionItems)
			}
			if full && sess.Transcript != "" {
				fmt.Fprintf(out, "\nTranscript:\n%s\n", sess.Transcript)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Include the full transcript")
	return cmd
}

func newAddCommand(client clientFactory) *cobra.Command {
	var title string
	var location string

	cmd := &cobra.Command{
		Use:   "add <filename>",
		Short: "Register a new session for an uploaded recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			sess, err := c.CreateSession(api.CreateSessionRequest{
				Title:         title,
				Filename:      args[0],
				AudioLocation: location,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created session %s (%s)\n", sess.ID, sess.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Session title (derived from filename when omitted)")
	cmd.Flags().StringVar(&location, "location", "", "Stored audio object key")
	return cmd
}

func newProcessCommand(client clientFactory) *cobra.Command {
	var wait bool
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "process <session-id>",
		Short: "Advance a session one step through the pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return fmt.Errorf("interval must be positive, got %s", interval)
			}
			c, err := client()
			if err != nil {
				return err
			}
			sess, err := c.ProcessSession(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session %s is now %s\n", sess.ID, sess.Status)
			if !wait {
				return nil
			}

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for sess.Status != "completed" && sess.Status != "error" {
				select {
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				case <-ticker.C:
				}
				prev := sess.Status
				sess, err = c.ProcessSession(args[0])
				if err != nil {
					return err
				}
				if sess.Status != prev {
					fmt.Fprintf(cmd.OutOrStdout(), "session %s is now %s\n", sess.ID, sess.Status)
				}
			}
			if sess.Status == "error" {
				return fmt.Errorf("session failed: %s", sess.ErrorMessage)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "Keep advancing until the session reaches a terminal state")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "Delay between advances while waiting")
	return cmd
}

func newDeleteCommand(client clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session regardless of its state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			if err := c.DeleteSession(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted session %s\n", args[0])
			return nil
		},
	}
}

func newSpeakersCommand(client clientFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "speakers",
		Short: "Inspect and rename session speakers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	show := &cobra.Command{
		Use:   "show <session-id>",
		Short: "List speaker labels and their current names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			view, err := c.Speakers(args[0])
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(view.Labels))
			for _, label := range view.Labels {
				rows = append(rows, []string{label, view.Mapping[label]})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Label", "Name"}, rows, nil))
			return nil
		},
	}

	apply := &cobra.Command{
		Use:   "map <session-id> <label=name>...",
		Short: "Assign display names to speaker labels",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mapping := make(map[string]string, len(args)-1)
			for _, pair := range args[1:] {
				label, name, ok := strings.Cut(pair, "=")
				if !ok || strings.TrimSpace(label) == "" {
					return fmt.Errorf("invalid assignment %q, expected label=name", pair)
				}
				mapping[strings.TrimSpace(label)] = strings.TrimSpace(name)
			}

			c, err := client()
			if err != nil {
				return err
			}
			sess, err := c.ApplyMapping(args[0], mapping)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %d speaker(s) for session %s\n", len(mapping), sess.ID)
			return nil
		},
	}

	cmd.AddCommand(show, apply)
	return cmd
}
