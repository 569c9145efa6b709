package fsstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/AmirejibiIlia/maiko/internal/adapters/blobstore"
	tt "github.com/AmirejibiIlia/maiko/internal/testtools"
)

func TestFSStoreInterface(t *testing.T) {
	blobstore.Test(t, func(t *testing.T) blobstore.Store {
		return New(t.TempDir())
	})
}

func TestKeysStayInsideTheDirectory(t *testing.T) {
	dir := t.TempDir()
	store := New(filepath.Join(dir, "blobs"))

	err := store.Put(context.Background(), "../escape.csv", []byte("x"), "text/csv")
	tt.AssertNoErr(t, err)

	_, err = os.Stat(filepath.Join(dir, "escape.csv"))
	tt.AssertEqual(t, os.IsNotExist(err), true)

	body, err := os.ReadFile(filepath.Join(dir, "blobs", "escape.csv"))
	tt.AssertNoErr(t, err)
	tt.AssertEqual(t, string(body), "x")
}
