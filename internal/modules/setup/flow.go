package setup

import (
	"context"
	stderrors "errors"
	"strconv"
	"strings"
	"sync"

	loopfsm "github.com/looplab/fsm"

	"github.com/reshetovitsme/telegram-leave-guard/internal/modules/permission"
	tenantDomain "github.com/reshetovitsme/telegram-leave-guard/internal/modules/tenant/domain"
	tenantService "github.com/reshetovitsme/telegram-leave-guard/internal/modules/tenant/service"
	"github.com/reshetovitsme/telegram-leave-guard/internal/shared/errors"
)

// ChatRef is a resolved chat record from the platform boundary.
type ChatRef struct {
	ID    int64
	Title string
}

// ChatResolver resolves a handle or numeric id to a chat record.
// Implementations must translate unknown/inaccessible identifiers into
// errors.ErrChatOrAccountNotFound.
type ChatResolver interface {
	ResolveChat(ctx context.Context, identifier string) (ChatRef, error)
}

// Flow states and events.
const (
	StateIdle     = "idle"
	StateAwaiting = "awaiting_channel_input"

	eventBegin  = "begin"
	eventSubmit = "submit"
	eventCancel = "cancel"
)

// transitions declares the per-owner state machine: Idle <-> AwaitingChannelInput.
// Begin is reentrant (re-beginning while awaiting just resets the prompt) and
// cancel is a fallback from any state.
var transitions = []loopfsm.EventDesc{
	{Name: eventBegin, Src: []string{StateIdle, StateAwaiting}, Dst: StateAwaiting},
	{Name: eventSubmit, Src: []string{StateAwaiting}, Dst: StateIdle},
	{Name: eventCancel, Src: []string{StateIdle, StateAwaiting}, Dst: StateIdle},
}

// Flow is the channel setup conversation: it captures a channel identifier
// from an owner, validates it against the platform, and installs the target
// on the owner's tenant record. State is tracked per owner and never shared
// across owners.
//
// looplab/fsm is stateful, so a short-lived machine is created per
// transition, initialized with the owner's current state.
type Flow struct {
	resolver ChatResolver
	verifier *permission.Verifier
	tenants  *tenantService.Service

	mu     sync.Mutex
	states map[int64]string
}

// New creates a channel setup flow.
func New(resolver ChatResolver, verifier *permission.Verifier, tenants *tenantService.Service) *Flow {
	return &Flow{
		resolver: resolver,
		verifier: verifier,
		tenants:  tenants,
		states:   make(map[int64]string),
	}
}

// State returns the owner's current flow state.
func (f *Flow) State(ownerID int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if state, ok := f.states[ownerID]; ok {
		return state
	}
	return StateIdle
}

// Awaiting reports whether the owner's next text input should be consumed
// as a channel identifier.
func (f *Flow) Awaiting(ownerID int64) bool {
	return f.State(ownerID) == StateAwaiting
}

// transition applies event to the owner's machine and stores the new state.
func (f *Flow) transition(ctx context.Context, ownerID int64, event string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, ok := f.states[ownerID]
	if !ok {
		current = StateIdle
	}

	machine := loopfsm.NewFSM(current, transitions, nil)
	if err := machine.Event(ctx, event); err != nil {
		// Src == Dst transitions (re-begin while awaiting, cancel from
		// idle) are reported as NoTransitionError; they are valid no-ops
		// here, not failures.
		var noTransition loopfsm.NoTransitionError
		if !stderrors.As(err, &noTransition) {
			return err
		}
	}

	f.states[ownerID] = machine.Current()
	return nil
}

// Begin moves the owner into AwaitingChannelInput. Reentrant: beginning
// again while already awaiting simply resets the prompt. The prompt never
// expires; Cancel and re-Begin remain available indefinitely.
func (f *Flow) Begin(ctx context.Context, ownerID int64) error {
	return f.transition(ctx, ownerID, eventBegin)
}

// Cancel returns the owner to Idle with no mutation, from any state.
func (f *Flow) Cancel(ctx context.Context, ownerID int64) error {
	return f.transition(ctx, ownerID, eventCancel)
}

// ValidateIdentifier checks the shape of a channel identifier: either a
// @username handle or a numeric chat id.
func ValidateIdentifier(input string) (string, error) {
	identifier := strings.TrimSpace(input)

	if strings.HasPrefix(identifier, "@") {
		if len(identifier) < 2 {
			return "", errors.ErrInvalidChannelIdentifier
		}
		return identifier, nil
	}

	if _, err := strconv.ParseInt(identifier, 10, 64); err != nil {
		return "", errors.ErrInvalidChannelIdentifier
	}
	return identifier, nil
}

// Submit consumes the owner's text input while awaiting: the identifier is
// validated, resolved against the platform and permission-checked, and on
// success the target is installed on the owner's record. BanningEnabled is
// left untouched; activation is a separate operator action. Every outcome,
// success or failure, returns the flow to Idle, and failures leave the
// target fields unchanged.
func (f *Flow) Submit(ctx context.Context, ownerID int64, input string) (*tenantDomain.ChannelTenant, error) {
	if !f.Awaiting(ownerID) {
		return nil, errors.ErrNotAwaitingInput
	}

	if err := f.transition(ctx, ownerID, eventSubmit); err != nil {
		return nil, err
	}

	identifier, err := ValidateIdentifier(input)
	if err != nil {
		return nil, err
	}

	chat, err := f.resolver.ResolveChat(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if err := f.verifier.Verify(ctx, chat.ID); err != nil {
		return nil, err
	}

	return f.tenants.SetChannelTarget(ownerID, chat.ID, chat.Title)
}
