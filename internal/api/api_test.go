package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/AmirejibiIlia/maiko"
	"github.com/AmirejibiIlia/maiko/internal"
	"github.com/AmirejibiIlia/maiko/internal/chat"
	tt "github.com/AmirejibiIlia/maiko/internal/testtools"
)

type fakeService struct {
	dc       internal.DataContext
	result   internal.Table
	answer   chat.Answer
	err      error
	executed internal.Query
	rated    map[string]int
}

func (f *fakeService) Context(ctx context.Context) (internal.DataContext, error) {
	return f.dc, f.err
}

func (f *fakeService) Execute(ctx context.Context, q internal.Query) (internal.Table, error) {
	f.executed = q
	return f.result, f.err
}

func (f *fakeService) Ask(ctx context.Context, question string) (chat.Answer, error) {
	return f.answer, f.err
}

func (f *fakeService) Rate(ctx context.Context, questionID string, rating int) error {
	if f.err != nil {
		return f.err
	}
	if f.rated == nil {
		f.rated = map[string]int{}
	}
	f.rated[questionID] = rating
	return nil
}

func serve(t *testing.T, svc Service, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	NewRouter(slog.Default(), svc).ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	tt.AssertNoErr(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestExecuteQuery(t *testing.T) {
	svc := &fakeService{
		result: internal.Table{
			Columns: []string{"month", "value_sum"},
			Rows: []internal.Row{
				{"month": "2023-01", "value_sum": 100.0},
			},
		},
	}

	rec := serve(t, svc, http.MethodPost, "/api/query",
		`{"data": "df", "group_by": ["month"], "aggregations": {"value": ["sum"]}}`)
	tt.AssertEqualNow(t, rec.Code, http.StatusOK)

	tt.AssertEqual(t, svc.executed.GroupBy, []string{"month"})

	got := decode(t, rec)
	delete(got, "elapsed_ms")
	want := map[string]any{
		"columns":   []any{"month", "value_sum"},
		"rows":      []any{map[string]any{"month": "2023-01", "value_sum": 100.0}},
		"row_count": 1.0,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected response (-want +got):\n%s", diff)
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		desc           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{desc: "query error", err: maiko.QueryErr("bad", nil), expectedStatus: http.StatusBadRequest, expectedCode: maiko.CodeQuery},
		{desc: "schema error", err: maiko.SchemaErr("missing", map[string]any{"missing": []string{"date"}}), expectedStatus: http.StatusBadRequest, expectedCode: maiko.CodeSchema},
		{desc: "parse error", err: fmt.Errorf("wrapped: %w", maiko.ParseErr("date", nil)), expectedStatus: http.StatusBadRequest, expectedCode: maiko.CodeParse},
		{desc: "internal error", err: maiko.InternalErr("broken", nil), expectedStatus: http.StatusInternalServerError, expectedCode: maiko.CodeInternal},
		{desc: "anything else", err: fmt.Errorf("s3 down"), expectedStatus: http.StatusInternalServerError, expectedCode: maiko.CodeInternal},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			rec := serve(t, &fakeService{err: test.err}, http.MethodGet, "/api/context", "")
			tt.AssertEqual(t, rec.Code, test.expectedStatus)

			body := decode(t, rec)
			errBody, ok := body["error"].(map[string]any)
			tt.AssertEqualNow(t, ok, true)
			tt.AssertEqual(t, errBody["code"], test.expectedCode)
		})
	}
}

func TestInvalidQueryObject(t *testing.T) {
	rec := serve(t, &fakeService{}, http.MethodPost, "/api/query", `{"limit": -2}`)
	tt.AssertEqual(t, rec.Code, http.StatusBadRequest)
}

func TestAsk(t *testing.T) {
	svc := &fakeService{
		answer: chat.Answer{
			QuestionID: "q1",
			Narration:  "100",
			Query:      internal.Query{Limit: 1},
			RawPlan:    `{"limit": 1}`,
			Result:     internal.Table{Columns: []string{"value_sum"}, Rows: []internal.Row{{"value_sum": 100.0}}},
		},
	}

	rec := serve(t, svc, http.MethodPost, "/api/ask", `{"question": "how much?"}`)
	tt.AssertEqualNow(t, rec.Code, http.StatusOK)

	body := decode(t, rec)
	tt.AssertEqual(t, body["question_id"], "q1")
	tt.AssertEqual(t, body["answer"], "100")
	tt.AssertEqual(t, body["query"].(map[string]any)["limit"], 1.0)
}

func TestRate(t *testing.T) {
	svc := &fakeService{}

	rec := serve(t, svc, http.MethodPost, "/api/questions/q1/rating", `{"rating": 4}`)
	tt.AssertEqual(t, rec.Code, http.StatusNoContent)
	tt.AssertEqual(t, svc.rated["q1"], 4)

	t.Run("unknown question", func(t *testing.T) {
		rec := serve(t, &fakeService{err: fmt.Errorf("q2: %w", chat.ErrQuestionNotFound)}, http.MethodPost, "/api/questions/q2/rating", `{"rating": 4}`)
		tt.AssertEqual(t, rec.Code, http.StatusNotFound)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := serve(t, svc, http.MethodPost, "/api/questions/q1/rating", `{"rating": "five"}`)
		tt.AssertEqual(t, rec.Code, http.StatusBadRequest)
	})
}

func TestHealthAndMetrics(t *testing.T) {
	rec := serve(t, &fakeService{}, http.MethodGet, "/healthz", "")
	tt.AssertEqual(t, rec.Code, http.StatusOK)
	tt.AssertEqual(t, rec.Body.String(), "ok")

	rec = serve(t, &fakeService{}, http.MethodGet, "/metrics", "")
	tt.AssertEqual(t, rec.Code, http.StatusOK)
}
