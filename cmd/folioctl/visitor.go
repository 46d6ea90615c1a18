package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/folio/backend/internal/contactflow"
	"github.com/folio/backend/internal/model"
)

// chatLongPoll is how long each background re-read waits server-side for a reply.
const chatLongPoll = 20 * time.Second

// identityFlags binds --name and --email, falling back to the config file.
type identityFlags struct {
	name  string
	email string
}

func (f *identityFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "your name (default: from config, or Visitor)")
	cmd.Flags().StringVar(&f.email, "email", "", "your email (default: from config)")
}

// resolve fills blanks from the config and remembers what was given.
func (f *identityFlags) resolve(e *env) (name, email string, err error) {
	name, email = f.name, f.email
	if name == "" {
		name = e.cfg.Name
	}
	if email == "" {
		email = e.cfg.Email
	}
	if strings.TrimSpace(email) == "" {
		return "", "", errors.New("an email is required: pass --email")
	}
	if name != e.cfg.Name || email != e.cfg.Email {
		e.cfg.Name, e.cfg.Email = name, email
		if err := e.save(); err != nil {
			return "", "", err
		}
	}
	return name, email, nil
}

// syncWriter serialises writes from the chat loop and background updates.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, format, args...)
}

// replyTracker remembers which replies have been shown.
type replyTracker struct {
	mu   sync.Mutex
	seen map[string]string
}

// fresh returns the messages whose reply has not been shown yet.
func (r *replyTracker) fresh(thread []*model.Message) []*model.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Message
	for _, m := range thread {
		if m.ID == "" || m.AdminReply == nil {
			continue
		}
		if r.seen[m.ID] == *m.AdminReply {
			continue
		}
		r.seen[m.ID] = *m.AdminReply
		out = append(out, m)
	}
	return out
}

func newChatCmd() *cobra.Command {
	var id identityFlags

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the site admin as a visitor",
		Long: "Shows your earlier messages and their replies, then sends each line you type. " +
			"New replies are printed as they arrive. Type /quit or send EOF to leave.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			name, email, err := id.resolve(e)
			if err != nil {
				return err
			}

			out := &syncWriter{w: cmd.OutOrStdout()}
			replies := &replyTracker{seen: make(map[string]string)}
			flow := contactflow.New(e.client, contactflow.Config{
				LongPoll: chatLongPoll,
				OnUpdate: func(thread []*model.Message) {
					for _, m := range replies.fresh(thread) {
						out.Printf("admin> %s\n", *m.AdminReply)
					}
				},
			})
			defer flow.Close()

			if err := flow.SetIdentity(name, email); err != nil {
				return err
			}
			if err := flow.ChooseChat(cmd.Context()); err != nil {
				return err
			}
			thread := flow.Thread()
			printThread(out.w, thread, false)
			replies.fresh(thread)

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if line == "/quit" {
					break
				}
				if _, err := flow.Send(cmd.Context(), line); err != nil {
					out.Printf("not sent: %v\n", err)
				}
			}
			return scanner.Err()
		},
	}

	id.register(cmd)
	return cmd
}

func newContactCmd() *cobra.Command {
	var (
		id      identityFlags
		subject string
		message string
	)

	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Send a one-off contact form message",
		Long:  "Sends a subject and message as a single contact message. Without --message the body is read from stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			name, email, err := id.resolve(e)
			if err != nil {
				return err
			}
			if message == "" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading message: %w", err)
				}
				message = string(b)
			}

			flow := contactflow.New(e.client, contactflow.Config{})
			defer flow.Close()
			if err := flow.SetIdentity(name, email); err != nil {
				return err
			}
			if err := flow.ChooseForm(); err != nil {
				return err
			}
			msg, err := flow.SubmitForm(cmd.Context(), subject, message)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Message sent (%s)\n", msg.ID)
			return nil
		},
	}

	id.register(cmd)
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "message subject")
	cmd.Flags().StringVarP(&message, "message", "m", "", "message body (default: read from stdin)")
	return cmd
}
