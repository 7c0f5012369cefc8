package edit

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestCommitNoEdits(t *testing.T) {
	t.Parallel()

	var b Batch
	out, changed, err := b.Commit([]byte("const a = 1;"))
	assert.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "", out)
}

func TestCommitAppliesInSourceOrder(t *testing.T) {
	t.Parallel()

	src := []byte("api.smartGrid.presentModal();")
	var b Batch
	b.Replace(27, 27, "x")
	b.Replace(4, 13, "action")
	out, changed, err := b.Commit(src)
	assert.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "api.action.presentModal(x);", out)
}

func TestCommitIdenticalTextStillChanged(t *testing.T) {
	t.Parallel()

	var b Batch
	b.Replace(0, 3, "api")
	out, changed, err := b.Commit([]byte("api.x"))
	assert.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "api.x", out)
}

func TestCommitInsertsKeepQueueOrder(t *testing.T) {
	t.Parallel()

	var b Batch
	b.Insert(1, "a")
	b.Insert(1, "b")
	b.Delete(2, 3)
	out, _, err := b.Commit([]byte("<>x"))
	assert.NoError(t, err)
	assert.Equal(t, "<ab>", out)
}

func TestCommitAdjacentSpans(t *testing.T) {
	t.Parallel()

	var b Batch
	b.Replace(0, 2, "A")
	b.Replace(2, 4, "B")
	out, _, err := b.Commit([]byte("aabb"))
	assert.NoError(t, err)
	assert.Equal(t, "AB", out)
}

func TestCommitOverlap(t *testing.T) {
	t.Parallel()

	var b Batch
	b.Replace(0, 5, "")
	b.Replace(3, 8, "")
	_, changed, err := b.Commit([]byte("0123456789"))
	assert.IsError(t, err, ErrOverlap)
	assert.False(t, changed)
}

func TestCommitOutOfRange(t *testing.T) {
	t.Parallel()

	var b Batch
	b.Replace(2, 20, "")
	_, _, err := b.Commit([]byte("short"))
	assert.IsError(t, err, ErrOutOfRange)
}

func TestCommitInsertBeforeReplaceAtSameOffset(t *testing.T) {
	t.Parallel()

	src := []byte("api.smartGrid")
	for _, insertFirst := range []bool{true, false} {
		var b Batch
		if insertFirst {
			b.Insert(4, "/*x*/")
			b.Replace(4, 13, "action")
		} else {
			b.Replace(4, 13, "action")
			b.Insert(4, "/*x*/")
		}
		out, changed, err := b.Commit(src)
		assert.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, "api./*x*/action", out)
	}
}
