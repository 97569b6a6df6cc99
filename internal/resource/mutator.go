package resource

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"tbpedia-dashboard/internal/apiclient"
	"tbpedia-dashboard/internal/apperr"
	"tbpedia-dashboard/internal/validation"
)

// Auditor receives every mutation attempt, failed or not.
type Auditor interface {
	RecordMutation(ctx context.Context, e Event, err error)
}

// Bodier lets a payload send a different shape than the one it validates.
type Bodier interface {
	Body() any
}

// Mutation is one write against a resource family.
type Mutation struct {
	Action Action
	Method string
	Key    string
	Suffix string
	Query  any
	// Payload is validated before anything is sent, then used as the body.
	Payload any
}

// Mutator performs create/update/remove/visibility writes. The displayed
// list is never patched locally: success publishes an Event and the owning
// list refetches.
type Mutator[T any] struct {
	def     Definition[T]
	client  Doer
	bus     *Bus
	auditor Auditor
	logger  zerolog.Logger
}

type MutatorOption[T any] func(*Mutator[T])

func WithAuditor[T any](a Auditor) MutatorOption[T] {
	return func(m *Mutator[T]) {
		m.auditor = a
	}
}

func NewMutator[T any](client Doer, def Definition[T], bus *Bus, logger zerolog.Logger, opts ...MutatorOption[T]) *Mutator[T] {
	m := &Mutator[T]{
		def:    def,
		client: client,
		bus:    bus,
		logger: logger.With().Str("resource", def.Name).Logger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Mutator[T]) Create(ctx context.Context, payload any) error {
	return m.Apply(ctx, Mutation{Action: ActionCreate, Method: http.MethodPost, Payload: payload})
}

func (m *Mutator[T]) Update(ctx context.Context, key string, payload any) error {
	return m.Apply(ctx, Mutation{Action: ActionUpdate, Method: http.MethodPut, Key: key, Payload: payload})
}

func (m *Mutator[T]) Remove(ctx context.Context, key string) error {
	return m.Apply(ctx, Mutation{Action: ActionRemove, Method: http.MethodDelete, Key: key})
}

// SetHidden targets an explicit state, so repeating it is harmless.
func (m *Mutator[T]) SetHidden(ctx context.Context, key string, hidden bool) error {
	action := ActionUnhide
	if hidden {
		action = ActionHide
	}
	return m.Apply(ctx, Mutation{
		Action:  action,
		Method:  http.MethodPatch,
		Key:     key,
		Suffix:  string(action),
		Payload: struct{}{},
	})
}

// Apply validates, sends, audits and, on success, publishes m.
func (m *Mutator[T]) Apply(ctx context.Context, mut Mutation) error {
	event := Event{Resource: m.def.Name, Action: mut.Action, Key: mut.Key}

	err := m.send(ctx, mut)
	if m.auditor != nil {
		m.auditor.RecordMutation(ctx, event, err)
	}
	if err != nil {
		m.logger.Error().
			Err(err).
			Str("action", string(mut.Action)).
			Str("key", mut.Key).
			Msg("Mutation failed")
		return err
	}

	m.logger.Info().Str("action", string(mut.Action)).Str("key", mut.Key).Msg("Mutation succeeded")
	if m.bus != nil {
		m.bus.Publish(ctx, event)
	}
	return nil
}

func (m *Mutator[T]) send(ctx context.Context, mut Mutation) error {
	if err := m.checkKey(mut); err != nil {
		return err
	}

	var body any
	if mut.Payload != nil {
		if err := validation.Validate(mut.Payload); err != nil {
			return err
		}
		body = mut.Payload
		if b, ok := mut.Payload.(Bodier); ok {
			body = b.Body()
		}
	}

	path := m.def.Path
	if mut.Key != "" {
		path = apiclient.Join(path, mut.Key)
	}
	if mut.Suffix != "" {
		path = apiclient.Join(path, mut.Suffix)
	}
	return m.client.Do(ctx, mut.Method, path, mut.Query, body, nil)
}

func (m *Mutator[T]) checkKey(mut Mutation) error {
	if mut.Action == ActionCreate {
		return nil
	}
	key := strings.TrimSpace(mut.Key)
	if key == "" {
		return apperr.Validation(fmt.Sprintf("%s %s is required", m.def.Name, m.def.Addressing), nil)
	}
	if m.def.Addressing == ByID {
		if id, err := strconv.Atoi(key); err != nil || id < 1 {
			return apperr.Validation(fmt.Sprintf("%s id %q is invalid", m.def.Name, key), nil)
		}
	}
	return nil
}
