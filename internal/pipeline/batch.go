package pipeline

import (
	"context"
	"time"
)

// DefaultBatchSize is the number of records written per storage call.
const DefaultBatchSize = 100

// ItemFailure is one item of a batch that could not be written.
type ItemFailure[T any] struct {
	Index int
	Item  T
	Err   error
}

// BatchResult reports every item of a BatchOperation run. Items that were never
// attempted, because the run stopped early, appear in neither list.
type BatchResult[T any] struct {
	Succeeded []T
	Failed    []ItemFailure[T]
	Attempted int
}

// BatchOperation writes items in fixed-size chunks, one after the other.
//
// A failing chunk marks all of its items as failed. With ContinueOnRowError
// the run moves on to the next chunk, otherwise it stops and returns the
// storage error. Before runs ahead of every chunk and stops the run when it
// returns an error; After runs once a chunk has been written or has failed.
type BatchOperation[T any] struct {
	Name               string
	Size               int
	ContinueOnRowError bool
	Exec               func(ctx context.Context, batch []T) error
	Before             func(ctx context.Context) error
	After              func(batch []T, err error, elapsed time.Duration)
}

// Run executes the operation over items.
func (op BatchOperation[T]) Run(ctx context.Context, items []T) (BatchResult[T], error) {
	size := op.Size
	if size <= 0 {
		size = DefaultBatchSize
	}

	var result BatchResult[T]
	for start := 0; start < len(items); start += size {
		if op.Before != nil {
			if err := op.Before(ctx); err != nil {
				return result, err
			}
		}

		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]

		began := time.Now()
		err := op.Exec(ctx, batch)
		result.Attempted += len(batch)
		if err != nil {
			for i, item := range batch {
				result.Failed = append(result.Failed, ItemFailure[T]{Index: start + i, Item: item, Err: err})
			}
		} else {
			result.Succeeded = append(result.Succeeded, batch...)
		}
		if op.After != nil {
			op.After(batch, err, time.Since(began))
		}

		if err != nil && !op.ContinueOnRowError {
			return result, err
		}
	}
	return result, nil
}
