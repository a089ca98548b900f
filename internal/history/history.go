// Package history implements a bounded, position-addressable undo log.
//
// A History holds a fixed number of transaction slots and a cursor to the
// most recently applied transaction. Each transaction is an ordered list of
// reversible commands. Undo runs a transaction's commands in reverse order;
// redo runs them forward.
//
// While a History is replaying, recording calls are ignored, so mutations
// made as a consequence of undo or redo never re-enter the log.
package history

import (
	"fmt"
	"io"
	"log/slog"
)

// DefaultCapacity is the number of transaction slots used when none is given.
const DefaultCapacity = 100

// Command is the smallest reversible unit of state change.
type Command interface {
	Name() string
	Undo() error
	Redo() error
}

// Transaction is a named group of commands undone and redone together.
type Transaction struct {
	Name     string
	Commands []Command
}

func (t *Transaction) undo() error {
	for i := len(t.Commands) - 1; i >= 0; i-- {
		if err := t.Commands[i].Undo(); err != nil {
			return fmt.Errorf("undo %s: %w", t.Commands[i].Name(), err)
		}
	}
	return nil
}

func (t *Transaction) redo() error {
	for _, cmd := range t.Commands {
		if err := cmd.Redo(); err != nil {
			return fmt.Errorf("redo %s: %w", cmd.Name(), err)
		}
	}
	return nil
}

// History is a fixed-capacity transaction log. It is not safe for concurrent
// use.
type History struct {
	logger       *slog.Logger
	transactions []*Transaction
	currentPos   int
	adding       *Transaction
	replaying    bool
}

// Option configures a History.
type Option func(*History)

// WithLogger sets the logger used for debug tracing of the log.
func WithLogger(logger *slog.Logger) Option {
	return func(h *History) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New creates a History with the given number of slots. A capacity of zero
// disables recording.
func New(capacity int, opts ...Option) *History {
	h := &History{
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		currentPos: -1,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.SetCapacity(capacity, true)
	return h
}

// Capacity returns the number of transaction slots.
func (h *History) Capacity() int { return len(h.transactions) }

// Len returns the number of committed transactions, including undone ones
// still available for redo.
func (h *History) Len() int {
	n := 0
	for _, t := range h.transactions {
		if t != nil {
			n++
		}
	}
	return n
}

// CurrentPos returns the slot of the most recently applied transaction, or
// -1 when nothing is applied.
func (h *History) CurrentPos() int { return h.currentPos }

// IsReplaying reports whether an undo or redo is in progress.
func (h *History) IsReplaying() bool { return h.replaying }

// InTransaction reports whether a transaction is open.
func (h *History) InTransaction() bool { return h.adding != nil }

// CanUndo reports whether there is a transaction to undo.
func (h *History) CanUndo() bool { return h.currentPos >= 0 }

// CanRedo reports whether there is an undone transaction to redo.
func (h *History) CanRedo() bool {
	next := h.currentPos + 1
	return next < len(h.transactions) && h.transactions[next] != nil
}

// Clear drops every transaction, including an open one.
func (h *History) Clear() {
	for i := range h.transactions {
		h.transactions[i] = nil
	}
	h.currentPos = -1
	h.adding = nil
}

// SetCapacity resizes the log. When shrinking below the cursor, the n
// transactions ending at the cursor are kept and the cursor becomes n-1.
// Otherwise the first n slots are kept. Growing pads with empty slots. When
// clear is true the log is emptied first.
func (h *History) SetCapacity(n int, clear bool) {
	if n < 0 {
		n = 0
	}
	if clear {
		h.transactions = nil
		h.currentPos = -1
	}

	resized := make([]*Transaction, n)
	switch {
	case h.currentPos >= n:
		start := h.currentPos - n + 1
		copy(resized, h.transactions[start:h.currentPos+1])
		h.currentPos = n - 1
	default:
		copy(resized, h.transactions)
	}
	h.transactions = resized

	h.logger.Debug("history capacity set", "capacity", n, "current_pos", h.currentPos)
}

// BeginTransaction opens a transaction. An already open transaction is
// committed first.
func (h *History) BeginTransaction(name string) {
	if h.replaying {
		return
	}
	if h.adding != nil {
		h.EndTransaction(false)
	}
	h.adding = &Transaction{Name: name}
	h.logger.Debug("begin transaction", "name", name)
}

// AddCommand appends a command to the open transaction. It is ignored when no
// transaction is open.
func (h *History) AddCommand(cmd Command) {
	if h.replaying || h.adding == nil {
		return
	}
	h.adding.Commands = append(h.adding.Commands, cmd)
	h.logger.Debug("add command", "transaction", h.adding.Name, "command", cmd.Name())
}

// EndTransaction closes the open transaction. A cancelled or empty
// transaction is discarded. A committed one is stored after the cursor,
// evicting the oldest transaction when the log is full and dropping any redo
// tail.
func (h *History) EndTransaction(cancel bool) {
	if h.replaying || h.adding == nil {
		return
	}
	t := h.adding
	h.adding = nil

	if cancel || len(t.Commands) == 0 || len(h.transactions) == 0 {
		h.logger.Debug("discard transaction", "name", t.Name, "cancelled", cancel)
		return
	}

	next := h.currentPos + 1
	if next >= len(h.transactions) {
		copy(h.transactions, h.transactions[1:])
		next = len(h.transactions) - 1
	}
	h.transactions[next] = t
	for i := next + 1; i < len(h.transactions); i++ {
		h.transactions[i] = nil
	}
	h.currentPos = next

	h.logger.Debug("end transaction", "name", t.Name, "commands", len(t.Commands), "pos", next)
}

// Undo reverts the transaction at the cursor.
func (h *History) Undo() error {
	return h.MoveTo(h.currentPos - 1)
}

// Redo reapplies the transaction after the cursor.
func (h *History) Redo() error {
	return h.MoveTo(h.currentPos + 1)
}

// MoveTo undoes or redoes transactions until the cursor reaches pos. The
// target is clamped to the log. Redo stops at the first empty slot. An open
// transaction is committed before moving.
//
// If a command fails the cursor is left at the last fully applied position
// and the error is returned.
func (h *History) MoveTo(pos int) error {
	if h.replaying {
		return nil
	}
	if h.adding != nil {
		h.EndTransaction(false)
	}

	target := min(len(h.transactions)-1, max(-1, pos))

	h.replaying = true
	defer func() { h.replaying = false }()

	for h.currentPos < target {
		t := h.transactions[h.currentPos+1]
		if t == nil {
			break
		}
		if err := t.redo(); err != nil {
			return fmt.Errorf("redo transaction %q: %w", t.Name, err)
		}
		h.currentPos++
		h.logger.Debug("redo", "pos", h.currentPos, "name", t.Name)
	}

	for h.currentPos > target {
		t := h.transactions[h.currentPos]
		if err := t.undo(); err != nil {
			return fmt.Errorf("undo transaction %q: %w", t.Name, err)
		}
		h.logger.Debug("undo", "pos", h.currentPos, "name", t.Name)
		h.currentPos--
	}

	return nil
}

// Transactions returns the applied transactions before the cursor, the one at
// the cursor and the undone ones after it.
func (h *History) Transactions() (undo []*Transaction, current *Transaction, redo []*Transaction) {
	if h.currentPos < 0 {
		for _, t := range h.transactions {
			if t != nil {
				redo = append(redo, t)
			}
		}
		return nil, nil, redo
	}
	undo = append(undo, h.transactions[:h.currentPos]...)
	current = h.transactions[h.currentPos]
	for _, t := range h.transactions[h.currentPos+1:] {
		if t != nil {
			redo = append(redo, t)
		}
	}
	return undo, current, redo
}
