package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchOperation_ChunksInOrder(t *testing.T) {
	var batches [][]int
	op := BatchOperation[int]{
		Size: 2,
		Exec: func(ctx context.Context, batch []int) error {
			batches = append(batches, append([]int(nil), batch...))
			return nil
		},
	}

	result, err := op.Run(context.Background(), []int{1, 2, 3, 4, 5})
	require.NoError(t, err)

	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, batches)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, result.Succeeded)
	assert.Empty(t, result.Failed)
	assert.Equal(t, 5, result.Attempted)
}

func TestBatchOperation_FailedChunkContinues(t *testing.T) {
	boom := errors.New("constraint violation")
	var after []error
	op := BatchOperation[string]{
		Size:               2,
		ContinueOnRowError: true,
		Exec: func(ctx context.Context, batch []string) error {
			if batch[0] == "c" {
				return boom
			}
			return nil
		},
		After: func(batch []string, err error, elapsed time.Duration) {
			after = append(after, err)
		},
	}

	result, err := op.Run(context.Background(), []string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "e"}, result.Succeeded)
	require.Len(t, result.Failed, 2)
	assert.Equal(t, 2, result.Failed[0].Index)
	assert.Equal(t, "d", result.Failed[1].Item)
	assert.ErrorIs(t, result.Failed[0].Err, boom)
	assert.Equal(t, []error{nil, boom, nil}, after)
}

func TestBatchOperation_StopsWithoutContinue(t *testing.T) {
	boom := errors.New("connection reset")
	calls := 0
	op := BatchOperation[int]{
		Size: 1,
		Exec: func(ctx context.Context, batch []int) error {
			calls++
			if batch[0] == 2 {
				return boom
			}
			return nil
		},
	}

	result, err := op.Run(context.Background(), []int{1, 2, 3})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []int{1}, result.Succeeded)
	assert.Equal(t, 2, result.Attempted)
}

func TestBatchOperation_BeforeStopsRun(t *testing.T) {
	stop := errors.New("cancelled")
	runs := 0
	op := BatchOperation[int]{
		Size: 1,
		Before: func(ctx context.Context) error {
			if runs == 2 {
				return stop
			}
			return nil
		},
		Exec: func(ctx context.Context, batch []int) error {
			runs++
			return nil
		},
	}

	result, err := op.Run(context.Background(), []int{1, 2, 3, 4})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, []int{1, 2}, result.Succeeded)
	assert.Equal(t, 2, result.Attempted)
}

func TestBatchOperation_DefaultSize(t *testing.T) {
	items := make([]int, DefaultBatchSize+1)
	calls := 0
	op := BatchOperation[int]{
		Exec: func(ctx context.Context, batch []int) error {
			calls++
			return nil
		},
	}

	_, err := op.Run(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestBatchOperation_Empty(t *testing.T) {
	op := BatchOperation[int]{
		Exec: func(ctx context.Context, batch []int) error {
			t.Fatal("exec called for empty input")
			return nil
		},
	}

	result, err := op.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, result.Attempted)
}
