// Package usagelog records the questions asked and the ratings
// they received in a single CSV object of the blob store.
package usagelog

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AmirejibiIlia/maiko/internal/adapters/blobstore"
)

const (
	DefaultKey = "question_logs.csv"

	timestampLayout = "2006-01-02 15:04:05"
	contentType     = "text/csv; charset=utf-8"
)

var header = []string{"timestamp", "file_name", "question", "rating", "question_id", "raw_response"}

type Entry struct {
	Timestamp   time.Time
	FileName    string
	Question    string
	Rating      string
	QuestionID  string
	RawResponse string
}

// Log serializes its read-modify-write cycles, so concurrent
// callers in the same process never lose each other's entries.
type Log struct {
	mu    sync.Mutex
	store blobstore.Store
	key   string
}

func New(store blobstore.Store, key string) *Log {
	if key == "" {
		key = DefaultKey
	}

	return &Log{
		store: store,
		key:   key,
	}
}

// Record inserts the entry, or updates the entry with the same
// question ID: a non empty rating overwrites the stored one and
// the raw response is only filled in when it is still empty.
func (l *Log) Record(ctx context.Context, e Entry) error {
	if e.QuestionID == "" {
		return errors.New("usage log entries need a question id")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.read(ctx)
	if err != nil {
		return err
	}

	found := false
	for i := range entries {
		if entries[i].QuestionID != e.QuestionID {
			continue
		}

		found = true
		if e.Rating != "" {
			entries[i].Rating = e.Rating
		}
		if entries[i].RawResponse == "" {
			entries[i].RawResponse = e.RawResponse
		}
		break
	}
	if !found {
		entries = append(entries, e)
	}

	return l.write(ctx, entries)
}

// Find returns the entry recorded for the question ID.
func (l *Log) Find(ctx context.Context, questionID string) (Entry, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.read(ctx)
	if err != nil {
		return Entry{}, false, err
	}

	for _, e := range entries {
		if e.QuestionID == questionID {
			return e, true, nil
		}
	}
	return Entry{}, false, nil
}

func (l *Log) Entries(ctx context.Context) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.read(ctx)
}

func (l *Log) read(ctx context.Context) ([]Entry, error) {
	body, err := l.store.Get(ctx, l.key)
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read usage log: %w", err)
	}

	records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse usage log: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	index := map[string]int{}
	for i, name := range records[0] {
		index[name] = i
	}
	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	entries := make([]Entry, 0, len(records)-1)
	for _, record := range records[1:] {
		ts, _ := time.Parse(timestampLayout, field(record, "timestamp"))
		entries = append(entries, Entry{
			Timestamp:   ts,
			FileName:    field(record, "file_name"),
			Question:    field(record, "question"),
			Rating:      field(record, "rating"),
			QuestionID:  field(record, "question_id"),
			RawResponse: field(record, "raw_response"),
		})
	}
	return entries, nil
}

func (l *Log) write(ctx context.Context, entries []Entry) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	err := w.Write(header)
	if err != nil {
		return err
	}
	for _, e := range entries {
		err = w.Write([]string{
			e.Timestamp.Format(timestampLayout),
			e.FileName,
			e.Question,
			e.Rating,
			e.QuestionID,
			e.RawResponse,
		})
		if err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to encode usage log: %w", err)
	}

	err = l.store.Put(ctx, l.key, buf.Bytes(), contentType)
	if err != nil {
		return fmt.Errorf("failed to write usage log: %w", err)
	}
	return nil
}
