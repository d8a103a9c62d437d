// Package operation tracks running motions: which one owns a drivetrain, and which are in flight.
package operation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"go.viam.com/drivecontrol/logging"
)

type opidKeyType string

const opidKey = opidKeyType("opid")

// Operation is a motion in progress.
type Operation struct {
	ID        uuid.UUID
	Method    string
	Arguments interface{}
	Started   time.Time

	myManager *Manager
	cancel    context.CancelFunc
}

// Cancel cancel the context associated with an operation.
func (o *Operation) Cancel() {
	o.cancel()
}

func (o *Operation) cleanup() {
	o.myManager.remove(o.ID)
}

// Manager holds the in-flight operations.
type Manager struct {
	clock  clock.Clock
	logger logging.Logger

	lock sync.Mutex
	ops  map[string]*Operation
}

// NewManager creates a Manager. A nil clock means the wall clock.
func NewManager(clk clock.Clock, logger logging.Logger) *Manager {
	if clk == nil {
		clk = clock.New()
	}
	return &Manager{clock: clk, logger: logger, ops: map[string]*Operation{}}
}

func (m *Manager) remove(id uuid.UUID) {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.ops, id.String())
}

func (m *Manager) add(op *Operation) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.ops[op.ID.String()] = op
}

// All returns all of the currently running operations, oldest first.
func (m *Manager) All() []*Operation {
	m.lock.Lock()
	defer m.lock.Unlock()
	a := make([]*Operation, 0, len(m.ops))
	for _, o := range m.ops {
		a = append(a, o)
	}
	sort.Slice(a, func(i, j int) bool { return a[i].Started.Before(a[j].Started) })
	return a
}

// FindString finds an op by its string id, could return nil.
func (m *Manager) FindString(id string) *Operation {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.ops[id]
}

// Create puts an operation on this context.
func (m *Manager) Create(ctx context.Context, method string, args interface{}) (context.Context, func()) {
	if ctx.Value(opidKey) != nil {
		panic("operations cannot be nested")
	}

	op := &Operation{
		ID:        uuid.New(),
		Method:    method,
		Arguments: args,
		Started:   m.clock.Now(),
		myManager: m,
	}
	ctx = context.WithValue(ctx, opidKey, op)
	ctx, op.cancel = context.WithCancel(ctx)

	m.add(op)
	m.logger.Debugw("operation started", "id", op.ID.String(), "method", method)

	return ctx, func() {
		op.cleanup()
		m.logger.Debugw("operation finished", "id", op.ID.String(), "method", method,
			"duration", m.clock.Since(op.Started))
	}
}

// Get returns the current Operation. This can be nil.
func Get(ctx context.Context) *Operation {
	o := ctx.Value(opidKey)
	if o == nil {
		return nil
	}
	return o.(*Operation)
}
