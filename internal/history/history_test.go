package history

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setCommand assigns old/new values to a shared int.
type setCommand struct {
	target   *int
	old, new int
	h        *History
}

func (c *setCommand) Name() string { return fmt.Sprintf("set %d->%d", c.old, c.new) }

func (c *setCommand) Undo() error {
	*c.target = c.old
	if c.h != nil {
		c.h.BeginTransaction("reentrant")
		c.h.AddCommand(&setCommand{target: c.target})
		c.h.EndTransaction(false)
	}
	return nil
}

func (c *setCommand) Redo() error {
	*c.target = c.new
	return nil
}

type failingCommand struct{}

func (failingCommand) Name() string { return "fail" }
func (failingCommand) Undo() error { return errors.New("boom") }
func (failingCommand) Redo() error { return errors.New("boom") }

// commit records a single value change as its own transaction.
func commit(h *History, v *int, to int) {
	h.BeginTransaction(fmt.Sprintf("T%d", to))
	h.AddCommand(&setCommand{target: v, old: *v, new: to})
	*v = to
	h.EndTransaction(false)
}

func TestUndoRedo(t *testing.T) {
	t.Run("undo restores and redo reapplies", func(t *testing.T) {
		h := New(10)
		x := 10

		h.BeginTransaction("move")
		h.AddCommand(&setCommand{target: &x, old: 10, new: 50})
		x = 50
		h.EndTransaction(false)

		require.NoError(t, h.Undo())
		assert.Equal(t, 10, x)
		assert.Equal(t, -1, h.CurrentPos())

		require.NoError(t, h.Redo())
		assert.Equal(t, 50, x)
		assert.Equal(t, 0, h.CurrentPos())
	})

	t.Run("undo runs commands in reverse order", func(t *testing.T) {
		h := New(10)
		x := 0
		h.BeginTransaction("two steps")
		h.AddCommand(&setCommand{target: &x, old: 0, new: 1})
		h.AddCommand(&setCommand{target: &x, old: 1, new: 2})
		x = 2
		h.EndTransaction(false)

		require.NoError(t, h.Undo())
		assert.Equal(t, 0, x)
		require.NoError(t, h.Redo())
		assert.Equal(t, 2, x)
	})

	t.Run("undo and redo at the ends are no-ops", func(t *testing.T) {
		h := New(3)
		require.NoError(t, h.Undo())
		require.NoError(t, h.Redo())
		assert.Equal(t, -1, h.CurrentPos())
		assert.False(t, h.CanUndo())
		assert.False(t, h.CanRedo())
	})

	t.Run("holds across a sequence of commits", func(t *testing.T) {
		h := New(10)
		x := 0
		for i := 1; i <= 4; i++ {
			commit(h, &x, i)
		}
		require.NoError(t, h.MoveTo(0))
		assert.Equal(t, 1, x)
		require.NoError(t, h.MoveTo(3))
		assert.Equal(t, 4, x)
		require.NoError(t, h.MoveTo(-1))
		assert.Equal(t, 0, x)
	})
}

func TestEviction(t *testing.T) {
	h := New(2)
	x := 0
	commit(h, &x, 1)
	commit(h, &x, 2)
	commit(h, &x, 3)

	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 1, h.CurrentPos())
	_, current, _ := h.Transactions()
	assert.Equal(t, "T3", current.Name)

	require.NoError(t, h.Undo())
	require.NoError(t, h.Undo())
	assert.Equal(t, 1, x, "earliest retained transaction is T2")

	require.NoError(t, h.Undo())
	assert.Equal(t, 1, x)
}

func TestNewEditTruncatesRedo(t *testing.T) {
	h := New(5)
	x := 0
	commit(h, &x, 1)
	commit(h, &x, 2)
	commit(h, &x, 3)
	require.NoError(t, h.Undo())
	require.NoError(t, h.Undo())

	commit(h, &x, 9)
	assert.Equal(t, 2, h.Len())
	assert.False(t, h.CanRedo())

	undo, current, redo := h.Transactions()
	require.Len(t, undo, 1)
	assert.Equal(t, "T1", undo[0].Name)
	assert.Equal(t, "T9", current.Name)
	assert.Empty(t, redo)
}

func TestTransactionBoundaries(t *testing.T) {
	t.Run("cancel discards", func(t *testing.T) {
		h := New(5)
		x := 0
		h.BeginTransaction("cancelled")
		h.AddCommand(&setCommand{target: &x, new: 1})
		h.EndTransaction(true)
		assert.Equal(t, 0, h.Len())
	})

	t.Run("empty transaction is discarded", func(t *testing.T) {
		h := New(5)
		h.BeginTransaction("empty")
		h.EndTransaction(false)
		assert.Equal(t, -1, h.CurrentPos())
	})

	t.Run("nested begin commits the open transaction", func(t *testing.T) {
		h := New(5)
		x := 0
		h.BeginTransaction("outer")
		h.AddCommand(&setCommand{target: &x, new: 1})
		h.BeginTransaction("inner")
		h.AddCommand(&setCommand{target: &x, old: 1, new: 2})
		h.EndTransaction(false)

		assert.Equal(t, 2, h.Len())
		assert.False(t, h.InTransaction())
	})

	t.Run("add without transaction is ignored", func(t *testing.T) {
		h := New(5)
		h.AddCommand(&setCommand{})
		h.EndTransaction(false)
		assert.Equal(t, 0, h.Len())
	})

	t.Run("zero capacity records nothing", func(t *testing.T) {
		h := New(0)
		x := 0
		commit(h, &x, 1)
		assert.Equal(t, 0, h.Len())
		require.NoError(t, h.Undo())
		assert.Equal(t, 1, x)
	})
}

func TestReplayGuard(t *testing.T) {
	h := New(5)
	x := 0
	h.BeginTransaction("guarded")
	h.AddCommand(&setCommand{target: &x, old: 0, new: 1, h: h})
	x = 1
	h.EndTransaction(false)

	require.NoError(t, h.Undo())
	assert.Equal(t, 0, x)
	assert.Equal(t, 1, h.Len(), "commands issued during undo must not be recorded")
	assert.False(t, h.IsReplaying())
	assert.True(t, h.CanRedo())
}

func TestSetCapacity(t *testing.T) {
	fill := func(n int) (*History, *int) {
		h := New(n)
		x := 0
		for i := 1; i <= n; i++ {
			commit(h, &x, i)
		}
		return h, &x
	}

	t.Run("shrink keeps most recent", func(t *testing.T) {
		h, x := fill(5)
		h.SetCapacity(3, false)

		assert.Equal(t, 3, h.Capacity())
		assert.Equal(t, 2, h.CurrentPos())
		undo, current, _ := h.Transactions()
		assert.Equal(t, "T5", current.Name)
		assert.Equal(t, []string{"T3", "T4"}, names(undo))

		for range 5 {
			require.NoError(t, h.Undo())
		}
		assert.Equal(t, 2, *x)
	})

	t.Run("shrink below cursor keeps leading slots", func(t *testing.T) {
		h, _ := fill(5)
		require.NoError(t, h.MoveTo(0))
		h.SetCapacity(2, false)

		assert.Equal(t, 0, h.CurrentPos())
		_, current, redo := h.Transactions()
		assert.Equal(t, "T1", current.Name)
		assert.Equal(t, []string{"T2"}, names(redo))
	})

	t.Run("grow pads with empty slots", func(t *testing.T) {
		h, x := fill(2)
		h.SetCapacity(4, false)
		assert.Equal(t, 4, h.Capacity())
		assert.Equal(t, 1, h.CurrentPos())

		commit(h, x, 3)
		assert.Equal(t, 3, h.Len())
	})

	t.Run("clear empties the log", func(t *testing.T) {
		h, _ := fill(3)
		h.SetCapacity(3, true)
		assert.Equal(t, 0, h.Len())
		assert.Equal(t, -1, h.CurrentPos())
	})
}

func TestCommandFailure(t *testing.T) {
	h := New(5)
	x := 0
	commit(h, &x, 1)
	h.BeginTransaction("bad")
	h.AddCommand(failingCommand{})
	h.EndTransaction(false)

	err := h.Undo()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	assert.Equal(t, 1, h.CurrentPos())
	assert.False(t, h.IsReplaying())
}

func TestClear(t *testing.T) {
	h := New(3)
	x := 0
	commit(h, &x, 1)
	h.BeginTransaction("open")
	h.Clear()
	assert.Equal(t, 0, h.Len())
	assert.False(t, h.InTransaction())
	assert.Equal(t, 3, h.Capacity())
}

func names(ts []*Transaction) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Name)
	}
	return out
}
