package routing

import "fmt"

// TagResult is the terminal state of a VIP tagging run.
type TagResult int

const (
	TagIncomplete TagResult = iota
	TagClientNotFound
	TagLabelNotFound
	TagTagged
)

func (r TagResult) String() string {
	switch r {
	case TagClientNotFound:
		return "client_not_found"
	case TagLabelNotFound:
		return "tag_not_found"
	case TagTagged:
		return "tagged"
	default:
		return "error"
	}
}

// TagOutcome reports a VIP tagging run and the identifiers it reached.
type TagOutcome struct {
	Result   TagResult
	Username string
	Label    string
	ClientID int64
	TagID    int64
}

func (o TagOutcome) Success() bool { return o.Result == TagTagged }

// Status returns a human-readable summary.
func (o TagOutcome) Status() string {
	switch o.Result {
	case TagClientNotFound:
		return fmt.Sprintf("No client with username %s", o.Username)
	case TagLabelNotFound:
		return fmt.Sprintf("Client %s (id %d) greeted, but tag %q was not found", o.Username, o.ClientID, o.Label)
	case TagTagged:
		return fmt.Sprintf("Client %s (id %d) greeted and tagged %q (tag id %d)", o.Username, o.ClientID, o.Label, o.TagID)
	default:
		return fmt.Sprintf("Tagging of %s did not complete", o.Username)
	}
}

// RouteResult is the terminal state of a request routing run.
type RouteResult int

const (
	RouteIncomplete RouteResult = iota
	RouteRequestNotFound
	RouteClientNotFound
	RouteNotVIP
	RouteNoOperator
	RouteRouted
)

func (r RouteResult) String() string {
	switch r {
	case RouteRequestNotFound:
		return "request_not_found"
	case RouteClientNotFound:
		return "client_not_found"
	case RouteNotVIP:
		return "not_vip"
	case RouteNoOperator:
		return "no_operator"
	case RouteRouted:
		return "routed"
	default:
		return "error"
	}
}

// NoOperator is the operator id reported when nobody was attached.
const NoOperator int64 = 0

// RouteOutcome reports a routing run. OperatorID is NoOperator unless Result is RouteRouted.
type RouteOutcome struct {
	Result     RouteResult
	RequestID  int64
	ClientID   int64
	DialogID   int64
	TagID      int64
	OperatorID int64
}

func (o RouteOutcome) Success() bool { return o.Result == RouteRouted }

// Status returns a human-readable summary.
func (o RouteOutcome) Status() string {
	switch o.Result {
	case RouteRequestNotFound:
		return fmt.Sprintf("Request %d not found", o.RequestID)
	case RouteClientNotFound:
		return fmt.Sprintf("Client %d not found", o.ClientID)
	case RouteNotVIP:
		return fmt.Sprintf("Client %d is not VIP, request not routed", o.ClientID)
	case RouteNoOperator:
		return fmt.Sprintf("No operator available for dialog %d of client %d", o.DialogID, o.ClientID)
	case RouteRouted:
		return fmt.Sprintf("Operator %d assigned to dialog %d of client %d", o.OperatorID, o.DialogID, o.ClientID)
	default:
		return fmt.Sprintf("Routing of dialog %d did not complete", o.DialogID)
	}
}
