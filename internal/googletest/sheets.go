// Package googletest provides in-process fakes of the Sheets and Drive REST
// endpoints used by the journal, for tests only.
package googletest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Sheets fakes spreadsheets.values.get and spreadsheets.values.append.
type Sheets struct {
	Server *httptest.Server

	mu      sync.Mutex
	tabs     map[string][][]string
	appended [][]any
	reads    int
	appends int
	fail    bool
}

// NewSheets starts a fake Sheets endpoint that is closed with the test.
func NewSheets(t testing.TB) *Sheets {
	t.Helper()
	s := &Sheets{tabs: map[string][][]string{}}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Server.Close)
	return s
}

// Service returns a sheets client pointed at the fake.
func (s *Sheets) Service(t testing.TB) *sheets.Service {
	t.Helper()
	svc, err := sheets.NewService(context.Background(),
		option.WithoutAuthentication(),
		option.WithEndpoint(s.Server.URL+"/"),
		option.WithHTTPClient(s.Server.Client()),
	)
	if err != nil {
		t.Fatalf("create fake sheets service: %v", err)
	}
	return svc
}

// SetTab replaces the content of a tab. The first row is the header.
func (s *Sheets) SetTab(name string, rows ...[]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabs[name] = rows
}

// Tab returns a copy of the tab content.
func (s *Sheets) Tab(name string) [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.tabs[name]))
	copy(out, s.tabs[name])
	return out
}

// Appended returns the rows received by values.append as decoded from JSON,
// so callers can check which cells were sent as numbers.
func (s *Sheets) Appended() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.appended))
	copy(out, s.appended)
	return out
}

// Reads returns the number of values.get calls served.
func (s *Sheets) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// Appends returns the number of values.append calls served.
func (s *Sheets) Appends() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appends
}

// SetFailing makes every call answer 403 until reset.
func (s *Sheets) SetFailing(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

func (s *Sheets) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail {
		writeError(w, http.StatusForbidden, "caller does not have permission")
		return
	}

	idx := strings.Index(r.URL.Path, "/values/")
	if idx < 0 {
		writeError(w, http.StatusNotFound, "unknown path "+r.URL.Path)
		return
	}
	rng := r.URL.Path[idx+len("/values/"):]

	switch {
	case r.Method == http.MethodGet:
		s.reads++
		tab, headerOnly := parseRange(rng)
		rows := s.tabs[tab]
		if headerOnly && len(rows) > 1 {
			rows = rows[:1]
		}
		writeJSON(w, map[string]any{"range": rng, "majorDimension": "ROWS", "values": rows})

	case r.Method == http.MethodPost && strings.HasSuffix(rng, ":append"):
		if r.URL.Query().Get("valueInputOption") == "" {
			writeError(w, http.StatusBadRequest, "valueInputOption required")
			return
		}
		var body struct {
			Values [][]any `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		tab, _ := parseRange(strings.TrimSuffix(rng, ":append"))
		for _, raw := range body.Values {
			row := make([]string, len(raw))
			for i, v := range raw {
				if v != nil {
					row[i] = fmt.Sprint(v)
				}
			}
			s.tabs[tab] = append(s.tabs[tab], row)
			s.appended = append(s.appended, raw)
		}
		s.appends++
		writeJSON(w, map[string]any{"updates": map[string]any{"updatedRows": len(body.Values)}})

	default:
		writeError(w, http.StatusMethodNotAllowed, r.Method)
	}
}

// parseRange turns "'tab'" or "'tab'!1:1" into the tab name.
func parseRange(rng string) (tab string, headerOnly bool) {
	if strings.HasSuffix(rng, "!1:1") {
		headerOnly = true
		rng = strings.TrimSuffix(rng, "!1:1")
	}
	if len(rng) >= 2 && strings.HasPrefix(rng, "'") && strings.HasSuffix(rng, "'") {
		rng = strings.ReplaceAll(rng[1:len(rng)-1], "''", "'")
	}
	return rng, headerOnly
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": msg},
	})
}
