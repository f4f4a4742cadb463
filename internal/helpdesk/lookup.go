package helpdesk

import (
	"context"
	"fmt"
)

// UsernameMatcher matches a client by username (or name when the username is empty).
type UsernameMatcher struct {
	Username string
}

func (m UsernameMatcher) Match(items []Client) (int64, bool) {
	for _, c := range items {
		if c.DisplayName() == m.Username {
			return c.ID, true
		}
	}
	return 0, false
}

// LabelMatcher matches a tag by its exact label.
type LabelMatcher struct {
	Label string
}

func (m LabelMatcher) Match(items []Tag) (int64, bool) {
	for _, t := range items {
		if t.Label == m.Label {
			return t.ID, true
		}
	}
	return 0, false
}

// AvailabilityMatcher matches the first operator with fewer open dialogs than Threshold.
type AvailabilityMatcher struct {
	Threshold int
}

func (m AvailabilityMatcher) Match(items []Operator) (int64, bool) {
	for _, o := range items {
		if o.OpenedDialogs < m.Threshold {
			return o.ID, true
		}
	}
	return 0, false
}

// FindClientByUsername scans /v1/clients/ for username.
func (a *API) FindClientByUsername(ctx context.Context, creds Credentials, username string) (int64, bool, error) {
	fetch := func(ctx context.Context, limit, offset int) (Page[Client], error) {
		return a.ListClients(ctx, creds, limit, offset)
	}
	id, found, err := Search[Client, int64](ctx, fetch, a.pageSize, UsernameMatcher{Username: username})
	if err != nil {
		return 0, false, fmt.Errorf("find client %q: %w", username, err)
	}
	a.log.DebugContext(ctx, "Client lookup finished", "username", username, "found", found, "client_id", id)
	return id, found, nil
}

// FindTagByLabel scans /v1/tags/ for label.
func (a *API) FindTagByLabel(ctx context.Context, creds Credentials, label string) (int64, bool, error) {
	fetch := func(ctx context.Context, limit, offset int) (Page[Tag], error) {
		return a.ListTags(ctx, creds, limit, offset)
	}
	id, found, err := Search[Tag, int64](ctx, fetch, a.pageSize, LabelMatcher{Label: label})
	if err != nil {
		return 0, false, fmt.Errorf("find tag %q: %w", label, err)
	}
	a.log.DebugContext(ctx, "Tag lookup finished", "label", label, "found", found, "tag_id", id)
	return id, found, nil
}

// FindAvailableOperator scans /v1/operators/ for the first operator whose
// open dialog count is below threshold.
func (a *API) FindAvailableOperator(ctx context.Context, creds Credentials, threshold int) (int64, bool, error) {
	fetch := func(ctx context.Context, limit, offset int) (Page[Operator], error) {
		return a.ListOperators(ctx, creds, limit, offset)
	}
	id, found, err := Search[Operator, int64](ctx, fetch, a.pageSize, AvailabilityMatcher{Threshold: threshold})
	if err != nil {
		return 0, false, fmt.Errorf("find available operator: %w", err)
	}
	a.log.DebugContext(ctx, "Operator lookup finished", "threshold", threshold, "found", found, "operator_id", id)
	return id, found, nil
}
