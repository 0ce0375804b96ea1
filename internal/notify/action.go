package notify

import (
	"encoding/json"
	"fmt"
)

// Kind is the reviewer's decision carried by a Slack button.
type Kind string

const (
	KindApprove Kind = "approve"
	KindRevise  Kind = "revise"
	KindReject  Kind = "reject"
)

// Button action IDs as they appear in the Block Kit payload.
const (
	ActionIDApprove = "approve_script"
	ActionIDRevise  = "revise_script"
	ActionIDReject  = "reject_script"
)

// Action is one validated button press: which decision, for which
// sheet row.
type Action struct {
	Kind Kind
	Row  int
}

// buttonValue is the JSON embedded in each button's value field.
type buttonValue struct {
	Action string `json:"action"`
	Row    int    `json:"row"`
}

// ParseAction validates an incoming interaction's action ID and value
// payload. Malformed or inconsistent inputs are rejected with an
// error; nothing is ever blindly indexed out of the raw strings.
func ParseAction(actionID, value string) (Action, error) {
	var kind Kind
	switch actionID {
	case ActionIDApprove:
		kind = KindApprove
	case ActionIDRevise:
		kind = KindRevise
	case ActionIDReject:
		kind = KindReject
	default:
		return Action{}, fmt.Errorf("unknown action id %q", actionID)
	}

	var v buttonValue
	if err := json.Unmarshal([]byte(value), &v); err != nil {
		return Action{}, fmt.Errorf("parse action value: %w", err)
	}
	if string(kind) != v.Action {
		return Action{}, fmt.Errorf("action id %q does not match value action %q", actionID, v.Action)
	}
	if v.Row < 2 {
		return Action{}, fmt.Errorf("invalid sheet row %d", v.Row)
	}
	return Action{Kind: kind, Row: v.Row}, nil
}

// Value renders the button value JSON for a row.
func (k Kind) Value(row int) string {
	data, _ := json.Marshal(buttonValue{Action: string(k), Row: row})
	return string(data)
}
