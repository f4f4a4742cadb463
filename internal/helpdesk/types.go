package helpdesk

import "strings"

// Credentials carries the API token for a single workflow invocation.
// It is passed explicitly into every call instead of living in shared state.
type Credentials struct {
	Token string
}

// Valid reports whether the credentials hold a non-blank token.
func (c Credentials) Valid() bool {
	return strings.TrimSpace(c.Token) != ""
}

// Meta is the pagination block returned by every list endpoint.
type Meta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Page is one page of a list resource.
type Page[T any] struct {
	Data []T  `json:"data"`
	Meta Meta `json:"meta"`
}

type envelope[T any] struct {
	Data T `json:"data"`
}

// TagRef is a tag as embedded in a client object.
type TagRef struct {
	ID    int64  `json:"id"`
	Label string `json:"label,omitempty"`
}

// Client is a helpdesk customer.
type Client struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Name     string   `json:"name"`
	Tags     []TagRef `json:"tags"`
}

// DisplayName returns the username, falling back to the name.
func (c Client) DisplayName() string {
	if c.Username != "" {
		return c.Username
	}
	return c.Name
}

// HasTag reports whether tagID is among the client's assigned tags.
func (c Client) HasTag(tagID int64) bool {
	for _, t := range c.Tags {
		if t.ID == tagID {
			return true
		}
	}
	return false
}

// Tag is a label that can be assigned to clients.
type Tag struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// Operator is a human agent.
type Operator struct {
	ID            int64 `json:"id"`
	OpenedDialogs int   `json:"opened_dialogs"`
}

// DialogState is the open/closed state of a dialog.
type DialogState string

const (
	DialogOpen   DialogState = "open"
	DialogClosed DialogState = "closed"
)

// LastMessage is the subset of a dialog's most recent message we rely on.
type LastMessage struct {
	ID       int64 `json:"id"`
	ClientID int64 `json:"client_id"`
}

// Dialog is a conversation thread between a client and the helpdesk.
type Dialog struct {
	ID          int64        `json:"id"`
	OperatorID  int64        `json:"operator_id"`
	State       DialogState  `json:"state"`
	InitiatorID int64        `json:"initiator_id"`
	LastMessage *LastMessage `json:"last_message"`
}

// Request is a support request as delivered by the platform.
type Request struct {
	ID        int64   `json:"id"`
	DialogID  int64   `json:"dialog_id"`
	ClientID  int64   `json:"client_id"`
	ChannelID int64   `json:"channel_id"`
	Type      string  `json:"type"`
	Tags      []int64 `json:"tags,omitempty"`
}

// MessageType selects how the platform delivers a message.
type MessageType string

const (
	MessageToClient MessageType = "to_client"
	MessageSystem   MessageType = "system"
	MessageComment  MessageType = "comment"
)

// Valid reports whether t is one of the supported message types.
func (t MessageType) Valid() bool {
	switch t {
	case MessageToClient, MessageSystem, MessageComment:
		return true
	}
	return false
}

// Message is an outbound message to a client.
type Message struct {
	ClientID   int64       `json:"client_id"`
	Text       string      `json:"text"`
	OpenDialog bool        `json:"open_dialog"`
	Type       MessageType `json:"type"`
}

// DialogUpdate sets the operator of a dialog. Zero State means closed and
// zero InitiatorID means the operator itself.
type DialogUpdate struct {
	OperatorID  int64
	State       DialogState
	InitiatorID int64
}

type dialogUpdateBody struct {
	OperatorID  int64       `json:"operator_id"`
	State       DialogState `json:"state"`
	InitiatorID int64       `json:"initiator_id"`
}

func (u DialogUpdate) body() dialogUpdateBody {
	state := DialogState(strings.ToLower(string(u.State)))
	if state == "" {
		state = DialogClosed
	}
	initiator := u.InitiatorID
	if initiator == 0 {
		initiator = u.OperatorID
	}
	return dialogUpdateBody{OperatorID: u.OperatorID, State: state, InitiatorID: initiator}
}

type assignTagBody struct {
	AssigneeID   int64   `json:"assignee_id"`
	TagIDs       []int64 `json:"tag_ids"`
	AssigneeType string  `json:"assignee_type"`
}

type messageRecord struct {
	ID        int64 `json:"id"`
	RequestID int64 `json:"request_id"`
}
