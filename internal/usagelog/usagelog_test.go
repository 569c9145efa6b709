package usagelog

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/AmirejibiIlia/maiko/internal/adapters/blobstore/memstore"
	tt "github.com/AmirejibiIlia/maiko/internal/testtools"
)

var asked = time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

func TestRecord(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	log := New(store, "")

	err := log.Record(ctx, Entry{
		Timestamp:   asked,
		FileName:    "revenue.csv",
		Question:    "რამდენი, 2023?",
		QuestionID:  "q1",
		RawResponse: `{"data": "df", "where": {}}`,
	})
	tt.AssertNoErr(t, err)

	body, err := store.Get(ctx, DefaultKey)
	tt.AssertNoErr(t, err)
	tt.AssertEqual(t, string(body), "timestamp,file_name,question,rating,question_id,raw_response\n"+
		`2024-03-01 10:30:00,revenue.csv,"რამდენი, 2023?",,q1,"{""data"": ""df"", ""where"": {}}"`+"\n")

	t.Run("rating updates the existing entry", func(t *testing.T) {
		err := log.Record(ctx, Entry{QuestionID: "q1", Rating: "4", RawResponse: "ignored"})
		tt.AssertNoErr(t, err)

		entries, err := log.Entries(ctx)
		tt.AssertNoErr(t, err)
		tt.AssertEqualNow(t, len(entries), 1)
		tt.AssertEqual(t, entries[0], Entry{
			Timestamp:   asked,
			FileName:    "revenue.csv",
			Question:    "რამდენი, 2023?",
			Rating:      "4",
			QuestionID:  "q1",
			RawResponse: `{"data": "df", "where": {}}`,
		})
	})

	t.Run("find", func(t *testing.T) {
		e, found, err := log.Find(ctx, "q1")
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, found, true)
		tt.AssertEqual(t, e.Rating, "4")

		_, found, err = log.Find(ctx, "unknown")
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, found, false)
	})

	t.Run("question id is required", func(t *testing.T) {
		err := log.Record(ctx, Entry{Question: "no id"})
		tt.AssertErrContains(t, err, "question id")
	})
}

func TestConcurrentRecords(t *testing.T) {
	ctx := context.Background()
	log := New(memstore.New(), "logs.csv")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := log.Record(ctx, Entry{Timestamp: asked, QuestionID: fmt.Sprintf("q%d", i)})
			tt.AssertEqual(t, err, nil)
		}(i)
	}
	wg.Wait()

	entries, err := log.Entries(ctx)
	tt.AssertNoErr(t, err)
	tt.AssertEqual(t, len(entries), 20)
}
