package helpdesk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"
)

type mockRT struct {
	roundTrip func(req *http.Request) (*http.Response, error)
}

func (m *mockRT) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.roundTrip(req)
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func newTestAPI(t *testing.T, pageSize int, rt func(req *http.Request) (*http.Response, error)) *API {
	t.Helper()
	api, err := NewAPI(Options{
		BaseURL:    "https://api.example.test/",
		PageSize:   pageSize,
		HTTPClient: &http.Client{Transport: &mockRT{roundTrip: rt}},
	}, nil)
	if err != nil {
		t.Fatalf("NewAPI failed: %v", err)
	}
	return api
}

var testCreds = Credentials{Token: "tok-123"}

func TestNewAPIRequiresBaseURL(t *testing.T) {
	if _, err := NewAPI(Options{BaseURL: "  "}, nil); err == nil {
		t.Fatalf("expected error for empty base url")
	}
	api, err := NewAPI(Options{BaseURL: DefaultBaseURL}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.PageSize() != DefaultPageSize {
		t.Fatalf("expected default page size %d, got %d", DefaultPageSize, api.PageSize())
	}
}

func TestListClientsSendsPaginationAndAuth(t *testing.T) {
	api := newTestAPI(t, 200, func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodGet {
			t.Fatalf("expected GET, got %s", req.Method)
		}
		if req.URL.Path != "/v1/clients/" {
			t.Fatalf("expected /v1/clients/, got %s", req.URL.Path)
		}
		if got := req.URL.Query().Get("limit"); got != "50" {
			t.Fatalf("limit = %q", got)
		}
		if got := req.URL.Query().Get("offset"); got != "100" {
			t.Fatalf("offset = %q", got)
		}
		if got := req.Header.Get("Authorization"); got != "tok-123" {
			t.Fatalf("unexpected authorization header: %q", got)
		}
		return response(http.StatusOK, `{"data":[{"id":726888910,"username":"piligrimdev","tags":[{"id":379158}]}],"meta":{"total":1,"limit":50,"offset":100}}`), nil
	})

	page, err := api.ListClients(context.Background(), testCreds, 50, 100)
	if err != nil {
		t.Fatalf("ListClients failed: %v", err)
	}
	if len(page.Data) != 1 || page.Data[0].ID != 726888910 || !page.Data[0].HasTag(379158) {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Meta.Total != 1 {
		t.Fatalf("unexpected meta: %+v", page.Meta)
	}
}

func TestAuthScheme(t *testing.T) {
	api, err := NewAPI(Options{
		BaseURL:    "https://api.example.test",
		AuthScheme: "Bearer",
		HTTPClient: &http.Client{Transport: &mockRT{roundTrip: func(req *http.Request) (*http.Response, error) {
			if got := req.Header.Get("Authorization"); got != "Bearer tok-123" {
				t.Fatalf("unexpected authorization header: %q", got)
			}
			return response(http.StatusOK, `{"data":[],"meta":{"total":0}}`), nil
		}}},
	}, nil)
	if err != nil {
		t.Fatalf("NewAPI failed: %v", err)
	}
	if _, err := api.ListTags(context.Background(), testCreds, 1, 0); err != nil {
		t.Fatalf("ListTags failed: %v", err)
	}
}

func TestMissingCredentials(t *testing.T) {
	api := newTestAPI(t, 10, func(req *http.Request) (*http.Response, error) {
		t.Fatalf("no request expected")
		return nil, nil
	})
	if _, err := api.ListOperators(context.Background(), Credentials{Token: " "}, 1, 0); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestGetClientNotFoundIsAbsence(t *testing.T) {
	api := newTestAPI(t, 10, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/v1/clients/42" {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		return response(http.StatusNotFound, `{"message":"not found"}`), nil
	})
	client, err := api.GetClient(context.Background(), testCreds, 42)
	if err != nil {
		t.Fatalf("expected absence, got error %v", err)
	}
	if client != nil {
		t.Fatalf("expected nil client, got %+v", client)
	}
}

func TestGetClientServerErrorFailsLoudly(t *testing.T) {
	api := newTestAPI(t, 10, func(req *http.Request) (*http.Response, error) {
		return response(http.StatusInternalServerError, `boom`), nil
	})
	_, err := api.GetClient(context.Background(), testCreds, 42)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError || apiErr.Body != "boom" {
		t.Fatalf("unexpected APIError: %+v", apiErr)
	}
}

func TestUnauthorizedMapsToSentinel(t *testing.T) {
	api := newTestAPI(t, 10, func(req *http.Request) (*http.Response, error) {
		return response(http.StatusUnauthorized, `{"message":"bad token"}`), nil
	})
	err := api.AssignTag(context.Background(), testCreds, 1, 2)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAssignTagBody(t *testing.T) {
	api := newTestAPI(t, 10, func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodPost || req.URL.Path != "/v1/tags/assign_to" {
			t.Fatalf("unexpected request %s %s", req.Method, req.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["assignee_id"] != float64(726888910) || body["assignee_type"] != "client" {
			t.Fatalf("unexpected body: %v", body)
		}
		ids, ok := body["tag_ids"].([]any)
		if !ok || len(ids) != 1 || ids[0] != float64(379158) {
			t.Fatalf("unexpected tag_ids: %v", body["tag_ids"])
		}
		return response(http.StatusOK, `{"status":"success"}`), nil
	})
	if err := api.AssignTag(context.Background(), testCreds, 726888910, 379158); err != nil {
		t.Fatalf("AssignTag failed: %v", err)
	}
}

func TestSendMessage(t *testing.T) {
	api := newTestAPI(t, 10, func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodPost || req.URL.Path != "/v1/messages" {
			t.Fatalf("unexpected request %s %s", req.Method, req.URL.Path)
		}
		var msg Message
		if err := json.NewDecoder(req.Body).Decode(&msg); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if msg.ClientID != 7 || msg.Text != "hi" || msg.OpenDialog || msg.Type != MessageSystem {
			t.Fatalf("unexpected message: %+v", msg)
		}
		return response(http.StatusCreated, `{}`), nil
	})
	if err := api.SendMessage(context.Background(), testCreds, Message{ClientID: 7, Text: "hi", Type: MessageSystem}); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
}

func TestSendMessageRejectsUnknownType(t *testing.T) {
	api := newTestAPI(t, 10, func(req *http.Request) (*http.Response, error) {
		t.Fatalf("no request expected")
		return nil, nil
	})
	err := api.SendMessage(context.Background(), testCreds, Message{ClientID: 1, Text: "x", Type: "broadcast"})
	if !errors.Is(err, ErrInvalidMessageType) {
		t.Fatalf("expected ErrInvalidMessageType, got %v", err)
	}
}

func TestSetDialogOperatorDefaults(t *testing.T) {
	tests := []struct {
		name          string
		update        DialogUpdate
		wantState     string
		wantInitiator float64
	}{
		{name: "defaults", update: DialogUpdate{OperatorID: 5}, wantState: "closed", wantInitiator: 5},
		{name: "upper case state", update: DialogUpdate{OperatorID: 5, State: "OPEN"}, wantState: "open", wantInitiator: 5},
		{name: "explicit initiator", update: DialogUpdate{OperatorID: 5, State: DialogOpen, InitiatorID: 9}, wantState: "open", wantInitiator: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, 10, func(req *http.Request) (*http.Response, error) {
				if req.Method != http.MethodPut || req.URL.Path != "/v1/dialogs/18498876" {
					t.Fatalf("unexpected request %s %s", req.Method, req.URL.Path)
				}
				var body map[string]any
				if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
					t.Fatalf("decode body: %v", err)
				}
				if body["state"] != tt.wantState || body["initiator_id"] != tt.wantInitiator || body["operator_id"] != float64(5) {
					t.Fatalf("unexpected body: %v", body)
				}
				return response(http.StatusOK, `{}`), nil
			})
			if err := api.SetDialogOperator(context.Background(), testCreds, 18498876, tt.update); err != nil {
				t.Fatalf("SetDialogOperator failed: %v", err)
			}
		})
	}
}

func TestClientIDByDialog(t *testing.T) {
	api := newTestAPI(t, 10, func(req *http.Request) (*http.Response, error) {
		switch req.URL.Path {
		case "/v1/dialogs/1":
			return response(http.StatusOK, `{"data":{"id":1,"last_message":{"id":3,"client_id":726888910}}}`), nil
		case "/v1/dialogs/2":
			return response(http.StatusOK, `{"data":{"id":2}}`), nil
		default:
			return response(http.StatusNotFound, ``), nil
		}
	})

	id, found, err := api.ClientIDByDialog(context.Background(), testCreds, 1)
	if err != nil || !found || id != 726888910 {
		t.Fatalf("got (%d, %v, %v)", id, found, err)
	}
	if _, _, err := api.ClientIDByDialog(context.Background(), testCreds, 2); !errors.Is(err, ErrMissingLastMessage) {
		t.Fatalf("expected ErrMissingLastMessage, got %v", err)
	}
	if _, found, err := api.ClientIDByDialog(context.Background(), testCreds, 3); err != nil || found {
		t.Fatalf("expected absence, got found=%v err=%v", found, err)
	}
}

func TestGetRequest(t *testing.T) {
	api := newTestAPI(t, 10, func(req *http.Request) (*http.Response, error) {
		return response(http.StatusOK, `{"data":{"id":11,"dialog_id":22,"client_id":33,"channel_id":44,"type":"new"}}`), nil
	})
	r, err := api.GetRequest(context.Background(), testCreds, 11)
	if err != nil {
		t.Fatalf("GetRequest failed: %v", err)
	}
	if r == nil || r.DialogID != 22 || r.ClientID != 33 || r.ChannelID != 44 {
		t.Fatalf("unexpected request: %+v", r)
	}
}

func TestListMessageRequestIDs(t *testing.T) {
	api := newTestAPI(t, 10, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/v1/messages/" {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		return response(http.StatusOK, `{"data":[{"id":1,"request_id":100},{"id":2,"request_id":101}],"meta":{"total":2}}`), nil
	})
	ids, err := api.ListMessageRequestIDs(context.Background(), testCreds)
	if err != nil {
		t.Fatalf("ListMessageRequestIDs failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != 100 || ids[1] != 101 {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

// pagedTags serves /v1/tags/ from an in-memory slice honoring limit/offset.
func pagedTags(t *testing.T, tags []Tag, calls *int) func(req *http.Request) (*http.Response, error) {
	return func(req *http.Request) (*http.Response, error) {
		*calls++
		limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(req.URL.Query().Get("offset"))
		end := offset + limit
		if end > len(tags) {
			end = len(tags)
		}
		if offset > end {
			offset = end
		}
		body, err := json.Marshal(Page[Tag]{Data: tags[offset:end], Meta: Meta{Total: len(tags), Limit: limit, Offset: offset}})
		if err != nil {
			t.Fatalf("marshal page: %v", err)
		}
		return response(http.StatusOK, string(body)), nil
	}
}

func TestFindTagByLabel(t *testing.T) {
	tags := []Tag{{ID: 1, Label: "new"}, {ID: 2, Label: "spam"}, {ID: 379158, Label: "VIP"}, {ID: 4, Label: "late"}}

	calls := 0
	api := newTestAPI(t, 1, pagedTags(t, tags, &calls))
	id, found, err := api.FindTagByLabel(context.Background(), testCreds, "VIP")
	if err != nil || !found || id != 379158 {
		t.Fatalf("got (%d, %v, %v)", id, found, err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 page fetches, got %d", calls)
	}

	calls = 0
	_, found, err = api.FindTagByLabel(context.Background(), testCreds, "gold")
	if err != nil || found {
		t.Fatalf("expected not found, got found=%v err=%v", found, err)
	}
	if calls != 4 {
		t.Fatalf("expected 4 page fetches, got %d", calls)
	}
}

func TestFindAvailableOperatorFailsLoudly(t *testing.T) {
	api := newTestAPI(t, 200, func(req *http.Request) (*http.Response, error) {
		return response(http.StatusBadGateway, `upstream`), nil
	})
	_, found, err := api.FindAvailableOperator(context.Background(), testCreds, 5)
	if err == nil || found {
		t.Fatalf("expected error, got found=%v err=%v", found, err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected wrapped APIError, got %v", err)
	}
}
