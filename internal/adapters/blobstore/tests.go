package blobstore

import (
	"context"
	"errors"
	"testing"

	tt "github.com/AmirejibiIlia/maiko/internal/testtools"
)

// Test runs the behavior every Store implementation must share.
func Test(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		store := newStore(t)

		_, err := store.Get(ctx, "missing.csv")
		tt.AssertEqual(t, errors.Is(err, ErrNotFound), true)
	})

	t.Run("put then get", func(t *testing.T) {
		store := newStore(t)

		err := store.Put(ctx, "data/revenue.csv", []byte("date,metrics,value\n"), "text/csv")
		tt.AssertNoErr(t, err)

		body, err := store.Get(ctx, "data/revenue.csv")
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, string(body), "date,metrics,value\n")
	})

	t.Run("put overwrites", func(t *testing.T) {
		store := newStore(t)

		tt.AssertNoErr(t, store.Put(ctx, "log.csv", []byte("first"), "text/csv"))
		tt.AssertNoErr(t, store.Put(ctx, "log.csv", []byte("second"), "text/csv"))

		body, err := store.Get(ctx, "log.csv")
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, string(body), "second")
	})

	t.Run("returned bodies are not shared", func(t *testing.T) {
		store := newStore(t)

		input := []byte("abc")
		tt.AssertNoErr(t, store.Put(ctx, "k", input, ""))
		input[0] = 'x'

		body, err := store.Get(ctx, "k")
		tt.AssertNoErr(t, err)
		body[1] = 'y'

		again, err := store.Get(ctx, "k")
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, string(again), "abc")
	})
}
