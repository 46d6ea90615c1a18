package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/folio/backend/internal/inbox"
	"github.com/folio/backend/internal/model"
	"github.com/folio/backend/internal/service"
)

const timeLayout = "2006-01-02 15:04"

func newLoginCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as the site admin",
		Long:  "Exchanges the admin email and password for a session token and stores it in the config file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			password, err := readSecret(cmd, "Password: ")
			if err != nil {
				return err
			}

			s, err := e.client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			e.cfg.Session = s
			if err := e.save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (until %s)\n", s.Email, s.ExpiresAt.Local().Format(timeLayout))
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "admin email (required)")
	cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored admin session",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			e.cfg.Session = nil
			if err := e.save(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

// openInbox loads the config, requires a session and fetches all messages.
func openInbox(cmd *cobra.Command) (*inbox.Inbox, error) {
	e, err := loadEnv(cmd)
	if err != nil {
		return nil, err
	}
	s, err := e.session()
	if err != nil {
		return nil, err
	}
	in := inbox.New(e.client, s)
	if err := in.Refresh(cmd.Context()); err != nil {
		return nil, err
	}
	return in, nil
}

func newInboxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inbox",
		Short: "List conversations",
		Long:  "Lists one line per sender, most recent conversation first, with unread counts.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInbox(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			groups := in.Groups()
			if len(groups) == 0 {
				fmt.Fprintln(out, "No messages")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "EMAIL\tNAME\tMESSAGES\tUNREAD\tLAST")
			for _, g := range groups {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
					g.Email, g.Name, len(g.Messages), g.UnreadCount,
					g.LastMessage.Local().Format(timeLayout))
			}
			w.Flush()
			fmt.Fprintf(out, "\n%d unread\n", in.TotalUnread())
			return nil
		},
	}
}

func newThreadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "thread <email>",
		Short: "Show every message from one sender",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInbox(cmd)
			if err != nil {
				return err
			}
			msgs := in.Select(args[0])
			if len(msgs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No messages from %s\n", args[0])
				return nil
			}
			printThread(cmd.OutOrStdout(), msgs, true)
			return nil
		},
	}
}

// printThread writes msgs oldest first, each followed by its reply.
func printThread(out io.Writer, msgs []*model.Message, showIDs bool) {
	for _, m := range msgs {
		marker := " "
		if !m.IsRead {
			marker = "*"
		}
		if showIDs {
			fmt.Fprintf(out, "%s %s  %s  %s\n", marker, m.CreatedAt.Local().Format(timeLayout), m.ID, m.Name)
		} else {
			fmt.Fprintf(out, "%s  %s\n", m.CreatedAt.Local().Format(timeLayout), m.Name)
		}
		fmt.Fprintf(out, "    %s\n", m.Message)
		if m.AdminReply != nil {
			fmt.Fprintf(out, "    > %s\n", *m.AdminReply)
		}
	}
}

func newReadCmd() *cobra.Command {
	var unread bool

	cmd := &cobra.Command{
		Use:   "read <id>",
		Short: "Mark a message read (or unread)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			s, err := e.session()
			if err != nil {
				return err
			}
			if unread {
				if _, err := e.client.SetReadState(cmd.Context(), s, args[0], false); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %s unread\n", args[0])
				return nil
			}
			if err := inbox.New(e.client, s).MarkRead(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %s read\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&unread, "unread", false, "mark the message unread instead")
	return cmd
}

func newReplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reply <id> <text>",
		Short: "Reply to a message",
		Long:  "Stores the reply on the message, replacing any earlier reply, and marks it read.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInbox(cmd)
			if err != nil {
				return err
			}
			text := strings.Join(args[1:], " ")
			if err := in.Reply(cmd.Context(), args[0], text); err != nil {
				if errors.Is(err, inbox.ErrEmptyReply) {
					return errors.New("reply text is empty")
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Replied to %s\n", args[0])
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a message permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInbox(cmd)
			if err != nil {
				return err
			}
			if err := in.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newNotificationsCmd() *cobra.Command {
	var (
		unreadOnly bool
		limit      int
		markAll    bool
	)

	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "List admin notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			s, err := e.session()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if markAll {
				n, err := e.client.MarkAllNotificationsRead(cmd.Context(), s)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Marked %d notifications read\n", n)
				return nil
			}

			list, err := e.client.Notifications(cmd.Context(), s, model.NotificationListOptions{UnreadOnly: unreadOnly, Limit: limit})
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(out, "No notifications")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tREAD\tCREATED")
			for _, n := range list {
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", n.ID, n.Title, n.IsRead, n.CreatedAt.Local().Format(timeLayout))
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().BoolVar(&unreadOnly, "unread", false, "only unread notifications")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum notifications to list")
	cmd.Flags().BoolVar(&markAll, "mark-all-read", false, "mark every notification read instead of listing")
	return cmd
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readSecret(cmd, "Password: ")
			if err != nil {
				return err
			}
			hash, err := service.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

// readSecret prompts without echo when stdin is a terminal and otherwise
// reads one line from the command's input.
func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
