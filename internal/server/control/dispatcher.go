package control

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"forum/internal/common"
	"forum/internal/logging"
	"forum/internal/server/sessions"
	"forum/internal/server/threads"
	"forum/internal/server/users"
)

// Dispatcher routes parsed control-plane commands to the credential store,
// session registry and thread store, and renders every outcome as exactly
// one response line.
type Dispatcher struct {
	users    *users.Service
	sessions *sessions.Registry
	threads  *threads.Store
	logger   logging.Logger
}

func NewDispatcher(us *users.Service, sr *sessions.Registry, ts *threads.Store, logger logging.Logger) *Dispatcher {
	return &Dispatcher{
		users:    us,
		sessions: sr,
		threads:  ts,
		logger:   logger.With("module", "dispatcher"),
	}
}

// Handle processes one raw request line from peer and returns the response
// line to send back. It never panics on malformed input; every failure
// renders as an "ERROR: ..." string.
func (d *Dispatcher) Handle(ctx context.Context, raw, peer string) string {
	cmd, err := Parse(raw)
	if err != nil {
		var invalid *InvalidInputError
		if errors.As(err, &invalid) {
			return fmt.Sprintf("ERROR: Invalid %s input, usage: %s", invalid.Verb, usage[invalid.Verb])
		}
		return "ERROR: Unknown command"
	}

	log := d.logger.With("request_id", uuid.NewString(), "verb", cmd.Verb, "peer", peer)

	user := ""
	if identityVerbs[cmd.Verb] {
		resolved, ok := d.sessions.Resolve(peer)
		if !ok {
			log.Warn(ctx, "identity verb from unresolved peer")
			return "ERROR: Login required"
		}
		user = resolved
		log = log.With("user", user)
	}
	log.Info(ctx, "control request")

	switch cmd.Verb {
	case VerbLogin:
		return d.login(cmd.Args[0], peer)
	case VerbAuth:
		return d.auth(cmd.Args[0], cmd.Args[1], peer)
	case VerbRegister:
		return d.register(ctx, log, cmd.Args[0], cmd.Args[1], peer)
	case VerbExit:
		return d.exit(user)
	case VerbCreate:
		return d.create(cmd.Args[1], user)
	case VerbList:
		return d.list()
	case VerbMessage:
		return d.post(cmd.Args[1], user, cmd.Args[2])
	case VerbRead:
		return d.read(cmd.Args[0])
	case VerbEdit:
		return d.edit(cmd.Args[1], user, cmd.Args[2], cmd.Args[3])
	case VerbDelete:
		return d.delete(cmd.Args[1], user, cmd.Args[2])
	case VerbRemove:
		return d.remove(ctx, cmd.Args[1], user)
	case VerbUpload:
		return d.uploadReady(cmd.Args[1], cmd.Args[2])
	case VerbDownload:
		return "Download ready " + cmd.Rest
	default:
		return "ERROR: Unknown command"
	}
}

func (d *Dispatcher) login(name, peer string) string {
	next, existing, err := d.sessions.BeginLogin(name, peer)
	switch {
	case errors.Is(err, common.ErrInvalidName):
		return "ERROR: Username empty"
	case errors.Is(err, common.ErrConflict):
		return fmt.Sprintf("ERROR: User %s already active at %s", name, existing)
	case err != nil:
		return "ERROR: " + err.Error()
	case next == sessions.LoginPasswordRequired:
		return "PASSWORD_REQUIRED"
	default:
		return "NEW_USER"
	}
}

func (d *Dispatcher) auth(name, secret, peer string) string {
	err := d.sessions.Authenticate(name, secret, peer)
	switch {
	case errors.Is(err, common.ErrInvalidSecret):
		return "ERROR: Invalid password"
	case errors.Is(err, common.ErrConflict):
		return fmt.Sprintf("ERROR: User %s already active", name)
	case err != nil:
		return "ERROR: " + err.Error()
	}
	return "Login successful"
}

func (d *Dispatcher) register(ctx context.Context, log logging.Logger, name, secret, peer string) string {
	err := d.users.Register(name, secret)
	switch {
	case errors.Is(err, common.ErrInvalidName):
		return "ERROR: Username can not have spaces"
	case errors.Is(err, common.ErrAlreadyExists):
		return "ERROR: Username already exists"
	case err != nil:
		log.Error(ctx, "registration failed", "error", err.Error())
		return "ERROR: Registration failed"
	}
	d.sessions.Bind(name, peer)
	return "Registration successful"
}

func (d *Dispatcher) exit(user string) string {
	if err := d.sessions.End(user); err != nil {
		return "ERROR: Logout failed"
	}
	return fmt.Sprintf("Goodbye %s!", user)
}

func (d *Dispatcher) create(title, owner string) string {
	err := d.threads.Create(title, owner)
	switch {
	case errors.Is(err, common.ErrInvalidTitle):
		if title == "" {
			return "ERROR: Empty title"
		}
		return "ERROR: Title have to be single word"
	case errors.Is(err, common.ErrAlreadyExists):
		return fmt.Sprintf("ERROR: Thread %s already created", title)
	case err != nil:
		return "ERROR: " + err.Error()
	}
	return fmt.Sprintf("Thread %s created", title)
}

func (d *Dispatcher) list() string {
	titles := d.threads.List()
	if len(titles) == 0 {
		return "ERROR: No threads"
	}
	return strings.Join(titles, "\n")
}

func (d *Dispatcher) post(title, author, body string) string {
	err := d.threads.Post(title, author, body)
	switch {
	case errors.Is(err, common.ErrInvalidTitle):
		return "ERROR: Invalid title"
	case errors.Is(err, common.ErrEmptyBody):
		return "ERROR: Empty message"
	case errors.Is(err, common.ErrNotFound):
		return fmt.Sprintf("ERROR: Thread %s not found", title)
	case err != nil:
		return "ERROR: " + err.Error()
	}
	return "Message posted"
}

func (d *Dispatcher) read(title string) string {
	content, err := d.threads.Read(title)
	switch {
	case errors.Is(err, common.ErrInvalidTitle):
		if title == "" {
			return "ERROR: Title required"
		}
		return "ERROR: Title must be single word"
	case errors.Is(err, common.ErrNotFound):
		return fmt.Sprintf("ERROR: Thread %s not found", title)
	case err != nil:
		return "ERROR: " + err.Error()
	}
	if content == "" {
		return "Thread is empty"
	}
	return content
}

func (d *Dispatcher) edit(title, editor, indexToken, body string) string {
	index, err := strconv.Atoi(indexToken)
	if err != nil || index < 1 {
		return "ERROR: No message number"
	}
	err = d.threads.Edit(title, editor, index, body)
	switch {
	case errors.Is(err, common.ErrInvalidTitle):
		return "ERROR: Invalid threadtitle"
	case errors.Is(err, common.ErrNotFound):
		return fmt.Sprintf("ERROR: Thread %s can not be found", title)
	case errors.Is(err, common.ErrInvalidIndex):
		return "ERROR: No message number"
	case errors.Is(err, common.ErrNotAuthor):
		return "ERROR: You can only edit your own message"
	case err != nil:
		return "ERROR: " + err.Error()
	}
	return "Message updated"
}

func (d *Dispatcher) delete(title, editor, indexToken string) string {
	index, err := strconv.Atoi(indexToken)
	if err != nil || index < 1 {
		return "ERROR: No message number"
	}
	err = d.threads.Delete(title, editor, index)
	switch {
	case errors.Is(err, common.ErrInvalidTitle):
		return "ERROR: Invalid thread title"
	case errors.Is(err, common.ErrNotFound):
		return fmt.Sprintf("ERROR: Thread %s not exist", title)
	case errors.Is(err, common.ErrInvalidIndex):
		return "ERROR: No message number"
	case errors.Is(err, common.ErrNotAuthor):
		return "ERROR: You can only delete your own message"
	case err != nil:
		return "ERROR: " + err.Error()
	}
	return "Message deleted"
}

func (d *Dispatcher) remove(ctx context.Context, title, requester string) string {
	err := d.threads.Remove(ctx, title, requester)
	switch {
	case errors.Is(err, common.ErrNotFound):
		return fmt.Sprintf("ERROR: Thread %s not exist", title)
	case errors.Is(err, common.ErrNotOwner):
		return "ERROR: You can only remove your own thread"
	case err != nil:
		return "ERROR: " + err.Error()
	}
	return "Thread and related files removed"
}

func (d *Dispatcher) uploadReady(title, filename string) string {
	has, err := d.threads.HasFile(title, filename)
	switch {
	case errors.Is(err, common.ErrNotFound):
		return fmt.Sprintf("ERROR: Thread '%s' not exist", title)
	case err != nil:
		return "ERROR: " + err.Error()
	case has:
		return fmt.Sprintf("ERROR: File '%s' already exists", filename)
	}
	return "Upload ready"
}
