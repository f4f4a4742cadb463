package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/edgard/vipdesk/internal/database"
	"github.com/edgard/vipdesk/internal/events"
	"github.com/edgard/vipdesk/internal/helpdesk"
)

const testToken = "test-token"

type assignCall struct {
	AssigneeID   int64   `json:"assignee_id"`
	TagIDs       []int64 `json:"tag_ids"`
	AssigneeType string  `json:"assignee_type"`
}

type dialogPut struct {
	DialogID    int64
	OperatorID  int64  `json:"operator_id"`
	State       string `json:"state"`
	InitiatorID int64  `json:"initiator_id"`
}

// fakeDesk is an in-memory helpdesk served over HTTP.
type fakeDesk struct {
	mu sync.Mutex

	clients           []helpdesk.Client
	tags              []helpdesk.Tag
	operators         []helpdesk.Operator
	requests          map[int64]helpdesk.Request
	dialogs           map[int64]helpdesk.Dialog
	messageRequestIDs []int64
	failPaths         map[string]int

	messages   []helpdesk.Message
	assigns    []assignCall
	dialogPuts []dialogPut
	calls      map[string]int
}

func newFakeDesk() *fakeDesk {
	return &fakeDesk{
		requests:  map[int64]helpdesk.Request{},
		dialogs:   map[int64]helpdesk.Dialog{},
		failPaths: map[string]int{},
		calls:     map[string]int{},
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writePage[T any](w http.ResponseWriter, r *http.Request, items []T) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit < 1 {
		limit = len(items)
	}
	start := min(offset, len(items))
	end := min(start+limit, len(items))
	writeJSON(w, helpdesk.Page[T]{
		Data: items[start:end],
		Meta: helpdesk.Meta{Total: len(items), Limit: limit, Offset: offset},
	})
}

func idFrom(path, prefix string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimPrefix(path, prefix), 10, 64)
	return id, err == nil
}

func (d *fakeDesk) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls[r.Method+" "+r.URL.Path]++
	if r.Header.Get("Authorization") != testToken {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	if code, ok := d.failPaths[r.URL.Path]; ok {
		http.Error(w, `{"message":"boom"}`, code)
		return
	}

	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && path == "/v1/clients/":
		writePage(w, r, d.clients)
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/v1/clients/"):
		id, _ := idFrom(path, "/v1/clients/")
		for _, c := range d.clients {
			if c.ID == id {
				writeJSON(w, map[string]any{"data": c})
				return
			}
		}
		http.NotFound(w, r)
	case r.Method == http.MethodGet && path == "/v1/tags/":
		writePage(w, r, d.tags)
	case r.Method == http.MethodPost && path == "/v1/tags/assign_to":
		var call assignCall
		if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		d.assigns = append(d.assigns, call)
		d.assign(call)
		writeJSON(w, map[string]any{"status": "success"})
	case r.Method == http.MethodGet && path == "/v1/operators/":
		writePage(w, r, d.operators)
	case r.Method == http.MethodPost && path == "/v1/messages":
		var msg helpdesk.Message
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		d.messages = append(d.messages, msg)
		writeJSON(w, map[string]any{"status": "success"})
	case r.Method == http.MethodGet && path == "/v1/messages/":
		data := make([]map[string]int64, 0, len(d.messageRequestIDs))
		for i, id := range d.messageRequestIDs {
			data = append(data, map[string]int64{"id": int64(i + 1), "request_id": id})
		}
		writeJSON(w, map[string]any{"data": data, "meta": helpdesk.Meta{Total: len(data)}})
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/v1/requests/"):
		id, _ := idFrom(path, "/v1/requests/")
		req, ok := d.requests[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, map[string]any{"data": req})
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/v1/dialogs/"):
		id, _ := idFrom(path, "/v1/dialogs/")
		dialog, ok := d.dialogs[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, map[string]any{"data": dialog})
	case r.Method == http.MethodPut && strings.HasPrefix(path, "/v1/dialogs/"):
		id, _ := idFrom(path, "/v1/dialogs/")
		put := dialogPut{DialogID: id}
		if err := json.NewDecoder(r.Body).Decode(&put); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		d.dialogPuts = append(d.dialogPuts, put)
		writeJSON(w, map[string]any{"status": "success"})
	default:
		http.Error(w, fmt.Sprintf("unexpected %s %s", r.Method, path), http.StatusNotImplemented)
	}
}

// assign adds tags to the client as a set union.
func (d *fakeDesk) assign(call assignCall) {
	for i := range d.clients {
		if d.clients[i].ID != call.AssigneeID {
			continue
		}
		for _, tagID := range call.TagIDs {
			if !d.clients[i].HasTag(tagID) {
				d.clients[i].Tags = append(d.clients[i].Tags, helpdesk.TagRef{ID: tagID})
			}
		}
	}
}

type deskWrites struct {
	messages   []helpdesk.Message
	assigns    []assignCall
	dialogPuts []dialogPut
	clients    []helpdesk.Client
}

// writes snapshots what the desk has received so far.
func (d *fakeDesk) writes() deskWrites {
	d.mu.Lock()
	defer d.mu.Unlock()
	clients := make([]helpdesk.Client, len(d.clients))
	for i, c := range d.clients {
		c.Tags = append([]helpdesk.TagRef(nil), c.Tags...)
		clients[i] = c
	}
	return deskWrites{
		messages:   append([]helpdesk.Message(nil), d.messages...),
		assigns:    append([]assignCall(nil), d.assigns...),
		dialogPuts: append([]dialogPut(nil), d.dialogPuts...),
		clients:    clients,
	}
}

func (d *fakeDesk) callCount(method, path string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[method+" "+path]
}

// memStore is an in-memory database.Store.
type memStore struct {
	mu   sync.Mutex
	runs []database.Run
}

func (s *memStore) Ping(context.Context) error { return nil }

func (s *memStore) SaveRun(_ context.Context, run *database.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run.ID == "" {
		run.ID = fmt.Sprintf("run-%d", len(s.runs)+1)
	}
	s.runs = append(s.runs, *run)
	return nil
}

func (s *memStore) RecentRuns(_ context.Context, limit int) ([]database.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]database.Run, 0, limit)
	for i := len(s.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.runs[i])
	}
	return out, nil
}

func (s *memStore) HasRequestRun(_ context.Context, requestID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.runs {
		if r.Workflow == database.WorkflowRouteRequest && r.RequestID.Int64 == requestID && r.Error == "" {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) DeleteRunsBefore(context.Context, time.Time) (int64, error) { return 0, nil }

func (s *memStore) RunSQLMaintenance(context.Context) error { return nil }

func (s *memStore) last() database.Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[len(s.runs)-1]
}

// recordingPublisher keeps published envelopes by routing key.
type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	envs []events.Envelope
}

func (p *recordingPublisher) Publish(_ context.Context, key string, msg events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	p.envs = append(p.envs, msg)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type harness struct {
	desk  *fakeDesk
	store *memStore
	pub   *recordingPublisher
	svc   *Service
	creds helpdesk.Credentials
}

func newHarness(t *testing.T, desk *fakeDesk, pageSize int) *harness {
	t.Helper()
	srv := httptest.NewServer(desk)
	t.Cleanup(srv.Close)

	api, err := helpdesk.NewAPI(helpdesk.Options{BaseURL: srv.URL, PageSize: pageSize, HTTPClient: srv.Client()}, nil)
	if err != nil {
		t.Fatalf("NewAPI: %v", err)
	}
	store := &memStore{}
	pub := &recordingPublisher{}
	svc := NewService(api, TemplateGreeter{Format: "Привет,%s. Хорошего дня!"}, store, pub, Options{
		VIPTagLabel:       "VIP",
		OperatorThreshold: 5,
		OperatorFoundText: "Оператор найден",
		NoOperatorText:    "Оператор не найден",
		Producer:          "vipdesk-test",
	}, nil)

	return &harness{desk: desk, store: store, pub: pub, svc: svc, creds: helpdesk.Credentials{Token: testToken}}
}
