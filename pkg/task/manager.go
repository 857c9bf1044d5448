package task

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/relaygw/relay/pkg/compressor"
	"github.com/relaygw/relay/pkg/fault"
	"github.com/relaygw/relay/pkg/provider"
	"github.com/relaygw/relay/pkg/scheduler"
	"github.com/relaygw/relay/pkg/session"

	"github.com/google/uuid"
)

// Resolver looks up the completer for a provider name. The empty name means
// the gateway default.
type Resolver func(name string) (provider.Completer, bool)

// Manager owns the per-task schedulers. Each task runs on its own scheduler
// with an independent lifecycle; one task's failures never touch another.
type Manager struct {
	store    *Store
	sessions *session.Store

	resolve    Resolver
	compressor *compressor.Compressor

	logger *slog.Logger

	mu         sync.Mutex
	schedulers map[string]*scheduler.Scheduler[Definition]
	bindings   map[string]string
}

type ManagerOption func(*Manager)

func WithCompressor(c *compressor.Compressor) ManagerOption {
	return func(m *Manager) {
		m.compressor = c
	}
}

func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

func NewManager(store *Store, sessions *session.Store, resolve Resolver, options ...ManagerOption) *Manager {
	m := &Manager{
		store:    store,
		sessions: sessions,

		resolve: resolve,

		logger: slog.Default(),

		schedulers: map[string]*scheduler.Scheduler[Definition]{},
		bindings:   map[string]string{},
	}

	for _, option := range options {
		option(m)
	}

	return m
}

// Restore loads persisted definitions and starts a scheduler for each.
func (m *Manager) Restore(ctx context.Context) error {
	defs, bindings, err := m.store.List(ctx)

	if err != nil {
		return err
	}

	m.mu.Lock()
	for id, sessionID := range bindings {
		m.bindings[id] = sessionID
	}
	m.mu.Unlock()

	for _, def := range defs {
		m.start(def)
	}

	return nil
}

// Add validates, persists and starts a new task. The id and creation time
// are assigned here, once, and never change.
func (m *Manager) Add(ctx context.Context, def Definition) (Definition, error) {
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}

	if def.ID == "" {
		def.ID = uuid.New().String()
	}

	if def.CreatedAt.IsZero() {
		def.CreatedAt = time.Now()
	}

	if err := m.store.Save(ctx, def); err != nil {
		return Definition{}, err
	}

	m.start(def)

	return def, nil
}

// Remove deletes a task. Deletion also stops its running scheduler.
func (m *Manager) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	sched, ok := m.schedulers[id]
	delete(m.schedulers, id)
	delete(m.bindings, id)
	m.mu.Unlock()

	if ok {
		sched.Shutdown()
	}

	return m.store.Delete(ctx, id)
}

func (m *Manager) Get(ctx context.Context, id string) (Status, error) {
	def, sessionID, err := m.store.Get(ctx, id)

	if err != nil {
		return Status{}, err
	}

	status := Status{
		Definition: def,
		SessionID:  sessionID,
	}

	m.mu.Lock()
	sched, ok := m.schedulers[id]
	m.mu.Unlock()

	if ok {
		status.Running = sched.IsRunning()
		status.SecondsUntilNextExecution = sched.SecondsUntilNextExecution()
	}

	return status, nil
}

func (m *Manager) List(ctx context.Context) ([]Status, error) {
	defs, bindings, err := m.store.List(ctx)

	if err != nil {
		return nil, err
	}

	statuses := make([]Status, 0, len(defs))

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, def := range defs {
		status := Status{
			Definition: def,
			SessionID:  bindings[def.ID],
		}

		if sched, ok := m.schedulers[def.ID]; ok {
			status.Running = sched.IsRunning()
			status.SecondsUntilNextExecution = sched.SecondsUntilNextExecution()
		}

		statuses = append(statuses, status)
	}

	return statuses, nil
}

// Close shuts every scheduler down. Definitions stay persisted for the next
// start.
func (m *Manager) Close() {
	m.mu.Lock()
	schedulers := m.schedulers
	m.schedulers = map[string]*scheduler.Scheduler[Definition]{}
	m.mu.Unlock()

	for _, sched := range schedulers {
		sched.Shutdown()
	}
}

func (m *Manager) start(def Definition) {
	sched := scheduler.New(def, def.Interval, m.execute,
		scheduler.WithImmediate[Definition](def.ExecuteImmediately),
		scheduler.WithErrorHandler[Definition](func(def Definition, err error) {
			// Log and continue: a failed tick never stops the schedule.
			m.logger.Error("scheduled task failed", "task", def.ID, "title", def.Title, "error", err)
		}),
		scheduler.WithLogger[Definition](m.logger),
	)

	m.mu.Lock()
	previous := m.schedulers[def.ID]
	m.schedulers[def.ID] = sched
	m.mu.Unlock()

	// Re-adding an id replaces its scheduler, never stacks a second one.
	if previous != nil {
		previous.Shutdown()
	}

	sched.Start()
}

// execute is the tick body: send the task request through the bound
// provider and append the exchange to the bound session, creating and
// binding one on the first success.
func (m *Manager) execute(ctx context.Context, def Definition) error {
	completer, ok := m.resolve(def.Provider)

	if !ok {
		return fault.UnsupportedProvider(def.Provider)
	}

	m.mu.Lock()
	sessionID := m.bindings[def.ID]
	m.mu.Unlock()

	var history []provider.Message

	if sessionID != "" {
		sess, err := m.sessions.Get(ctx, sessionID)

		if err != nil {
			return err
		}

		history = toMessages(sess.Messages)
	}

	history = append(history, provider.UserMessage(def.Request))

	if m.compressor != nil {
		compressed, err := m.compressor.Compress(ctx, history)

		if err != nil {
			return err
		}

		history = compressed
	}

	resp, err := completer.Complete(ctx, &provider.Request{
		Model: def.Model,

		Messages: history,
	})

	if err != nil {
		return err
	}

	if sessionID == "" {
		title := def.Title

		if title == "" {
			title = def.Request
		}

		sess, err := m.sessions.Create(ctx, title)

		if err != nil {
			return err
		}

		sessionID = sess.ID

		if err := m.store.Bind(ctx, def.ID, sessionID); err != nil {
			return err
		}

		m.mu.Lock()
		m.bindings[def.ID] = sessionID
		m.mu.Unlock()
	}

	if err := m.sessions.Append(ctx, sessionID, string(provider.MessageRoleUser), def.Request); err != nil {
		return err
	}

	if err := m.sessions.Append(ctx, sessionID, string(provider.MessageRoleAssistant), resp.Content); err != nil {
		return err
	}

	return nil
}

func toMessages(messages []session.Message) []provider.Message {
	result := make([]provider.Message, 0, len(messages))

	for _, m := range messages {
		result = append(result, provider.Message{
			Role: provider.MessageRole(m.Role),

			Content: []provider.Content{
				{
					Text: m.Content,
				},
			},
		})
	}

	return result
}
