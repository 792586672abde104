package cdx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/justapithecus/stratum/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL}, nil), srv
}

func jsonBody(rows ...string) string {
	out := "["
	for i, r := range rows {
		if i > 0 {
			out += ","
		}
		out += r
	}
	return out + "]"
}

func TestClient_Search_DefaultsToJSON(t *testing.T) {
	var gotOutput string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotOutput = r.URL.Query().Get("output")
		fmt.Fprint(w, jsonBody(
			`["urlkey","timestamp","original","mimetype","statuscode","digest","length"]`,
			`["com,example)/","20200101000000","https://example.com/","text/html","200","ABC","100"]`,
		))
	})

	resp, err := client.Search(context.Background(), NewQuery("example.com"))
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if gotOutput != "json" {
		t.Errorf("output param = %q, want json by default", gotOutput)
	}
	if resp.Len() != 1 {
		t.Errorf("Len = %d, want 1", resp.Len())
	}
}

func TestClient_Search_DoesNotMutateQuery(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "[]")
	})

	q := NewQuery("example.com")
	if _, err := client.Search(context.Background(), q); err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if q.output != "" {
		t.Error("Search must not set output on the caller's query")
	}
}

func TestClient_Search_ErrorStatusCarried(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusServiceUnavailable)
	})

	_, err := client.Search(context.Background(), NewQuery("example.com"))
	if err == nil {
		t.Fatal("expected error for HTTP 503")
	}

	qe, ok := IsQueryError(err)
	if !ok {
		t.Fatalf("error kind = %T, want *QueryError", err)
	}
	if qe.Status != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want 503", qe.Status)
	}
}

func TestClient_Search_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // force connection refused

	client := NewClient(Config{BaseURL: srv.URL}, nil)
	_, err := client.Search(context.Background(), NewQuery("example.com"))

	qe, ok := IsQueryError(err)
	if !ok {
		t.Fatalf("error kind = %T, want *QueryError", err)
	}
	if qe.Status != StatusUnknown {
		t.Errorf("Status = %d, want StatusUnknown for transport failure", qe.Status)
	}
}

func TestClient_Search_EmptyBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "\n")
	})

	resp, err := client.Search(context.Background(), NewQuery("example.com"))
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if resp.Len() != 0 {
		t.Errorf("Len = %d, want 0", resp.Len())
	}
	if len(resp.FieldNames) != len(types.DefaultFieldNames) {
		t.Errorf("FieldNames = %v, want defaults", resp.FieldNames)
	}
}

func TestClient_AuthTokenCookie(t *testing.T) {
	var gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("cdx-auth-token"); err == nil {
			gotCookie = c.Value
		}
		fmt.Fprint(w, "[]")
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Config{BaseURL: srv.URL, AuthToken: "sekrit"}, nil)
	if _, err := client.Search(context.Background(), NewQuery("example.com")); err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if gotCookie != "sekrit" {
		t.Errorf("auth cookie = %q, want sekrit", gotCookie)
	}
}

func TestClient_GetLatest_Params(t *testing.T) {
	var gotLimit, gotFast string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		gotFast = r.URL.Query().Get("fastLatest")
		fmt.Fprint(w, jsonBody(
			`["urlkey","timestamp","original","mimetype","statuscode","digest","length"]`,
			`["com,example)/","20260101000000","https://example.com/","text/html","200","ABC","100"]`,
		))
	})

	rec, err := client.GetLatest(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if rec == nil || rec.Timestamp != "20260101000000" {
		t.Fatalf("record = %+v", rec)
	}
	if gotLimit != "-1" || gotFast != "true" {
		t.Errorf("limit=%q fastLatest=%q, want -1/true", gotLimit, gotFast)
	}
}

func TestClient_GetOldest_NoCaptures(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "[]")
	})

	rec, err := client.GetOldest(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("GetOldest failed: %v", err)
	}
	if rec != nil {
		t.Errorf("record = %+v, want nil when no captures exist", rec)
	}
}

func TestClient_IterateAll_Terminates(t *testing.T) {
	const batchSize = 3

	header := `["urlkey","timestamp","original","mimetype","statuscode","digest","length"]`
	row := func(ts string) string {
		return fmt.Sprintf(`["com,example)/","%s","https://example.com/","text/html","200","ABC","100"]`, ts)
	}

	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		switch calls {
		case 1:
			if got := r.URL.Query().Get("resumeKey"); got != "" {
				t.Errorf("call 1 resumeKey = %q, want empty", got)
			}
			fmt.Fprint(w, jsonBody(header, row("20200101000000"), row("20200102000000"), row("20200103000000"), `[]`, `["rk%2D1"]`))
		case 2:
			if got := r.URL.Query().Get("resumeKey"); got != "rk%2D1" {
				t.Errorf("call 2 resumeKey = %q, want rk%%2D1", got)
			}
			fmt.Fprint(w, jsonBody(header, row("20200104000000"), row("20200105000000"), row("20200106000000"), `[]`, `["rk%2D2"]`))
		case 3:
			// Short batch without resume token: iteration must stop here.
			fmt.Fprint(w, jsonBody(header, row("20200107000000")))
		default:
			t.Error("iteration did not terminate after the short batch")
			fmt.Fprint(w, "[]")
		}
	})

	var records []types.IndexRecord
	err := client.IterateAll(context.Background(), NewQuery("example.com"), batchSize, func(rec types.IndexRecord) bool {
		records = append(records, rec)
		return true
	})
	if err != nil {
		t.Fatalf("IterateAll failed: %v", err)
	}

	if calls != 3 {
		t.Errorf("service calls = %d, want exactly 3", calls)
	}
	if len(records) != 2*batchSize+1 {
		t.Errorf("records = %d, want %d", len(records), 2*batchSize+1)
	}
}

func TestClient_IterateAll_EarlyStop(t *testing.T) {
	header := `["urlkey","timestamp","original","mimetype","statuscode","digest","length"]`
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, jsonBody(header,
			`["k","20200101000000","u","m","200","d","1"]`,
			`["k","20200102000000","u","m","200","d","1"]`,
		))
	})

	seen := 0
	err := client.IterateAll(context.Background(), NewQuery("example.com"), 10, func(types.IndexRecord) bool {
		seen++
		return false
	})
	if err != nil {
		t.Fatalf("early stop is a normal outcome, got error: %v", err)
	}
	if seen != 1 {
		t.Errorf("seen = %d, want 1", seen)
	}
}

func TestClient_NumPages(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("showNumPages") != "true" {
			t.Error("showNumPages param missing")
		}
		fmt.Fprint(w, "14\n")
	})

	n, err := client.NumPages(context.Background(), NewQuery("example.com"))
	if err != nil {
		t.Fatalf("NumPages failed: %v", err)
	}
	if n != 14 {
		t.Errorf("NumPages = %d, want 14", n)
	}
}

func TestClient_IteratePages_ProbeFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("showNumPages") == "true" {
			http.Error(w, "unsupported", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, "[]")
	})

	err := client.IteratePages(context.Background(), NewQuery("example.com"), func(*types.IndexResponse) bool {
		t.Error("no pages should be delivered when the probe fails")
		return false
	})

	if !errors.Is(err, ErrPaginationUnsupported) {
		t.Errorf("err = %v, want ErrPaginationUnsupported match", err)
	}
	if _, ok := IsQueryError(err); !ok {
		t.Error("probe failure should still expose the underlying QueryError")
	}
}

func TestClient_IteratePages_AllPages(t *testing.T) {
	header := `["urlkey","timestamp","original","mimetype","statuscode","digest","length"]`
	var pagesSeen []string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("showNumPages") == "true" {
			fmt.Fprint(w, "2")
			return
		}
		pagesSeen = append(pagesSeen, r.URL.Query().Get("page"))
		fmt.Fprint(w, jsonBody(header, `["k","20200101000000","u","m","200","d","1"]`))
	})

	pages := 0
	err := client.IteratePages(context.Background(), NewQuery("example.com"), func(resp *types.IndexResponse) bool {
		pages += resp.Len()
		return true
	})
	if err != nil {
		t.Fatalf("IteratePages failed: %v", err)
	}

	if pages != 2 {
		t.Errorf("records across pages = %d, want 2", pages)
	}
	if len(pagesSeen) != 2 || pagesSeen[0] != "0" || pagesSeen[1] != "1" {
		t.Errorf("page params = %v, want [0 1]", pagesSeen)
	}
}
