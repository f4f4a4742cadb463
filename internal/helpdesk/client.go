// Package helpdesk implements a thin client for the helpdesk platform's REST API
// together with the paginated search used to locate clients, tags, and operators.
package helpdesk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL  = "https://api.chat2desk.com"
	DefaultPageSize = 200

	maxErrorBodyBytes = 2048
)

// Options configures an API client.
type Options struct {
	BaseURL    string
	AuthScheme string // e.g. "Bearer"; empty sends the raw token
	PageSize   int
	Timeout    time.Duration
	HTTPClient *http.Client
}

// API talks to the helpdesk REST API. It is safe for concurrent use; every
// call takes its own Credentials.
type API struct {
	baseURL    string
	authScheme string
	pageSize   int
	client     *http.Client
	log        *slog.Logger
}

// NewAPI creates a helpdesk API client.
func NewAPI(opts Options, log *slog.Logger) (*API, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errEmptyBaseURL
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid helpdesk base url %q: %w", base, err)
	}
	if opts.PageSize < 1 {
		opts.PageSize = DefaultPageSize
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &API{
		baseURL:    base,
		authScheme: strings.TrimSpace(opts.AuthScheme),
		pageSize:   opts.PageSize,
		client:     httpClient,
		log:        log.With("component", "helpdesk_api"),
	}, nil
}

// PageSize is the page size used by the lookup helpers.
func (a *API) PageSize() int {
	return a.pageSize
}

func (a *API) authorization(creds Credentials) string {
	if a.authScheme == "" {
		return creds.Token
	}
	return a.authScheme + " " + creds.Token
}

// do performs a request and decodes a 2xx JSON response into out (when non-nil).
func (a *API) do(ctx context.Context, creds Credentials, method, path string, query url.Values, body, out any) error {
	if !creds.Valid() {
		return ErrMissingCredentials
	}

	endpoint := a.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", a.authorization(creds))
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("helpdesk %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	a.log.DebugContext(ctx, "Helpdesk request finished",
		"method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(errorBody)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func listPage[T any](ctx context.Context, a *API, creds Credentials, path string, limit, offset int) (Page[T], error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	var page Page[T]
	if err := a.do(ctx, creds, http.MethodGet, path, query, nil, &page); err != nil {
		return Page[T]{}, err
	}
	return page, nil
}

// getOne fetches a single object. A 404 yields (nil, nil).
func getOne[T any](ctx context.Context, a *API, creds Credentials, path string) (*T, error) {
	var env envelope[T]
	if err := a.do(ctx, creds, http.MethodGet, path, nil, nil, &env); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &env.Data, nil
}

// ListClients returns one page of /v1/clients/.
func (a *API) ListClients(ctx context.Context, creds Credentials, limit, offset int) (Page[Client], error) {
	return listPage[Client](ctx, a, creds, "/v1/clients/", limit, offset)
}

// ListTags returns one page of /v1/tags/.
func (a *API) ListTags(ctx context.Context, creds Credentials, limit, offset int) (Page[Tag], error) {
	return listPage[Tag](ctx, a, creds, "/v1/tags/", limit, offset)
}

// ListOperators returns one page of /v1/operators/.
func (a *API) ListOperators(ctx context.Context, creds Credentials, limit, offset int) (Page[Operator], error) {
	return listPage[Operator](ctx, a, creds, "/v1/operators/", limit, offset)
}

// GetClient fetches a client by id. A missing client yields (nil, nil).
func (a *API) GetClient(ctx context.Context, creds Credentials, clientID int64) (*Client, error) {
	return getOne[Client](ctx, a, creds, "/v1/clients/"+strconv.FormatInt(clientID, 10))
}

// GetRequest fetches a support request by id. A missing request yields (nil, nil).
func (a *API) GetRequest(ctx context.Context, creds Credentials, requestID int64) (*Request, error) {
	return getOne[Request](ctx, a, creds, "/v1/requests/"+strconv.FormatInt(requestID, 10))
}

// GetDialog fetches a dialog by id. A missing dialog yields (nil, nil).
func (a *API) GetDialog(ctx context.Context, creds Credentials, dialogID int64) (*Dialog, error) {
	return getOne[Dialog](ctx, a, creds, "/v1/dialogs/"+strconv.FormatInt(dialogID, 10))
}

// ClientIDByDialog derives the client id from the dialog's last message.
func (a *API) ClientIDByDialog(ctx context.Context, creds Credentials, dialogID int64) (int64, bool, error) {
	dialog, err := a.GetDialog(ctx, creds, dialogID)
	if err != nil {
		return 0, false, err
	}
	if dialog == nil {
		return 0, false, nil
	}
	if dialog.LastMessage == nil {
		return 0, false, fmt.Errorf("dialog %d: %w", dialogID, ErrMissingLastMessage)
	}
	return dialog.LastMessage.ClientID, true, nil
}

// AssignTag attaches a tag to a client.
func (a *API) AssignTag(ctx context.Context, creds Credentials, clientID, tagID int64) error {
	body := assignTagBody{
		AssigneeID:   clientID,
		TagIDs:       []int64{tagID},
		AssigneeType: "client",
	}
	return a.do(ctx, creds, http.MethodPost, "/v1/tags/assign_to", nil, body, nil)
}

// SendMessage posts a message to a client.
func (a *API) SendMessage(ctx context.Context, creds Credentials, msg Message) error {
	if !msg.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMessageType, msg.Type)
	}
	return a.do(ctx, creds, http.MethodPost, "/v1/messages", nil, msg, nil)
}

// SetDialogOperator assigns an operator to a dialog and sets its state.
func (a *API) SetDialogOperator(ctx context.Context, creds Credentials, dialogID int64, update DialogUpdate) error {
	path := "/v1/dialogs/" + strconv.FormatInt(dialogID, 10)
	return a.do(ctx, creds, http.MethodPut, path, nil, update.body(), nil)
}

// ListMessageRequestIDs returns the request ids of the most recent messages.
func (a *API) ListMessageRequestIDs(ctx context.Context, creds Credentials) ([]int64, error) {
	var page Page[messageRecord]
	if err := a.do(ctx, creds, http.MethodGet, "/v1/messages/", nil, nil, &page); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(page.Data))
	for _, m := range page.Data {
		ids = append(ids, m.RequestID)
	}
	return ids, nil
}
