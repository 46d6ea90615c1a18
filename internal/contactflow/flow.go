// Package contactflow drives a visitor through the contact widget:
// identify, then either chat (with reply polling) or send a one-off form.
package contactflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/folio/backend/internal/model"
	"github.com/folio/backend/pkg/client"
)

// State is a step of the flow.
type State int

const (
	EnteringIdentity State = iota
	ChoosingMethod
	Chatting
	FillingForm
)

func (s State) String() string {
	switch s {
	case EnteringIdentity:
		return "entering_identity"
	case ChoosingMethod:
		return "choosing_method"
	case Chatting:
		return "chatting"
	case FillingForm:
		return "filling_form"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	ErrEmailRequired   = errors.New("contactflow: email is required")
	ErrMessageRequired = errors.New("contactflow: message is required")
)

// StateError is returned when an action is not valid in the current state.
type StateError struct {
	Action string
	State  State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("contactflow: cannot %s while %s", e.Action, e.State)
}

// API is the visitor side of the message API. *client.Client implements it.
type API interface {
	Submit(ctx context.Context, req client.SubmitRequest) (*model.Message, error)
	ListByEmail(ctx context.Context, email string, wait time.Duration) ([]*model.Message, error)
}

// Config tunes reply polling.
type Config struct {
	// PollDelay is how long after a successful send the thread is re-read.
	PollDelay time.Duration
	// LongPoll, if positive, is passed as the server-side wait of that re-read.
	LongPoll time.Duration
	// OnUpdate is called with the new thread after a background re-read.
	OnUpdate func([]*model.Message)
}

const defaultPollDelay = 2 * time.Second

// Flow is one visitor's session with the contact widget. It is safe for
// concurrent use; Close stops background polling.
type Flow struct {
	api API
	cfg Config
	now func() time.Time

	mu     sync.Mutex
	state  State
	name   string
	email  string
	thread []*model.Message
	// sends counts committed sends; a poll read before the latest one is stale.
	sends uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Flow in EnteringIdentity.
func New(api API, cfg Config) *Flow {
	if cfg.PollDelay <= 0 {
		cfg.PollDelay = defaultPollDelay
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Flow{api: api, cfg: cfg, now: time.Now, ctx: ctx, cancel: cancel}
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Identity returns the visitor's name and email.
func (f *Flow) Identity() (name, email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.name, f.email
}

// Thread returns the local chat view, oldest first. Entries without an ID
// are sends still in flight.
func (f *Flow) Thread() []*model.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.Message, len(f.thread))
	copy(out, f.thread)
	return out
}

// SetIdentity records the visitor and moves to ChoosingMethod. A blank name
// becomes model.DefaultSenderName.
func (f *Flow) SetIdentity(name, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != EnteringIdentity {
		return &StateError{Action: "set identity", State: f.state}
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailRequired
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = model.DefaultSenderName
	}
	f.name, f.email = name, email
	f.state = ChoosingMethod
	return nil
}

// ChooseChat loads the visitor's earlier messages and moves to Chatting.
// On failure the flow stays in ChoosingMethod.
func (f *Flow) ChooseChat(ctx context.Context) error {
	f.mu.Lock()
	if f.state != ChoosingMethod {
		defer f.mu.Unlock()
		return &StateError{Action: "choose chat", State: f.state}
	}
	email := f.email
	f.mu.Unlock()

	msgs, err := f.api.ListByEmail(ctx, email, 0)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.thread = msgs
	f.state = Chatting
	return nil
}

// ChooseForm moves to FillingForm.
func (f *Flow) ChooseForm() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != ChoosingMethod {
		return &StateError{Action: "choose form", State: f.state}
	}
	f.state = FillingForm
	return nil
}

// Back returns from Chatting or FillingForm to ChoosingMethod.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Chatting && f.state != FillingForm {
		return &StateError{Action: "go back", State: f.state}
	}
	f.state = ChoosingMethod
	return nil
}

// Send appends text to the local thread at once, then submits it. If the
// submit fails the local entry is removed again and the error returned. On
// success the thread is re-read in the background after Config.PollDelay to
// pick up an admin reply.
func (f *Flow) Send(ctx context.Context, text string) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrMessageRequired
	}

	f.mu.Lock()
	if f.state != Chatting {
		defer f.mu.Unlock()
		return nil, &StateError{Action: "send", State: f.state}
	}
	pending := &model.Message{Name: f.name, Email: f.email, Message: text, CreatedAt: f.now().UTC()}
	f.thread = append(f.thread, pending)
	name, email := f.name, f.email
	f.mu.Unlock()

	msg, err := f.api.Submit(ctx, client.SubmitRequest{Name: name, Email: email, Message: text})

	f.mu.Lock()
	if err != nil {
		f.remove(pending)
		f.mu.Unlock()
		return nil, err
	}
	f.replace(pending, msg)
	f.sends++
	f.mu.Unlock()

	f.schedulePoll(email)
	return msg, nil
}

// SubmitForm sends subject and message as one message, formatted
// "[subject] message", and returns to ChoosingMethod. On failure the flow
// stays in FillingForm.
func (f *Flow) SubmitForm(ctx context.Context, subject, message string) (*model.Message, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrMessageRequired
	}

	f.mu.Lock()
	if f.state != FillingForm {
		defer f.mu.Unlock()
		return nil, &StateError{Action: "submit form", State: f.state}
	}
	name, email := f.name, f.email
	f.mu.Unlock()

	msg, err := f.api.Submit(ctx, client.SubmitRequest{Name: name, Email: email, Message: FormBody(subject, message)})
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.state = ChoosingMethod
	f.mu.Unlock()
	return msg, nil
}

// FormBody formats a form submission. A blank subject is left out.
func FormBody(subject, message string) string {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return message
	}
	return "[" + subject + "] " + message
}

// Close stops background polling and waits for it to finish.
func (f *Flow) Close() {
	f.cancel()
	f.wg.Wait()
}

func (f *Flow) schedulePoll(email string) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		t := time.NewTimer(f.cfg.PollDelay)
		defer t.Stop()
		select {
		case <-f.ctx.Done():
			return
		case <-t.C:
		}

		f.mu.Lock()
		sends := f.sends
		f.mu.Unlock()

		msgs, err := f.api.ListByEmail(f.ctx, email, f.cfg.LongPoll)
		if err != nil {
			if f.ctx.Err() == nil {
				slog.Debug("contactflow: reply poll failed", "email", email, "error", err)
			}
			return
		}

		f.mu.Lock()
		// A send committed while the list was in flight; its own poll
		// will deliver a thread that includes it.
		if f.state != Chatting || f.email != email || f.sends != sends {
			f.mu.Unlock()
			return
		}
		f.thread = mergePending(msgs, f.thread)
		thread := make([]*model.Message, len(f.thread))
		copy(thread, f.thread)
		f.mu.Unlock()

		if f.cfg.OnUpdate != nil {
			f.cfg.OnUpdate(thread)
		}
	}()
}

// mergePending returns the server thread followed by local sends still in flight.
func mergePending(server, local []*model.Message) []*model.Message {
	out := append([]*model.Message(nil), server...)
	for _, m := range local {
		if m.ID == "" {
			out = append(out, m)
		}
	}
	return out
}

func (f *Flow) remove(target *model.Message) {
	for i, m := range f.thread {
		if m == target {
			f.thread = append(f.thread[:i], f.thread[i+1:]...)
			return
		}
	}
}

func (f *Flow) replace(target, with *model.Message) {
	for i, m := range f.thread {
		if m == target {
			f.thread[i] = with
			return
		}
	}
	f.thread = append(f.thread, with)
}
