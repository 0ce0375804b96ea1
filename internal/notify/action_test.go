package notify

import "testing"

func TestParseAction(t *testing.T) {
	tests := []struct {
		name     string
		actionID string
		value    string
		want     Action
		wantErr  bool
	}{
		{
			name:     "approve",
			actionID: ActionIDApprove,
			value:    `{"action":"approve","row":12}`,
			want:     Action{Kind: KindApprove, Row: 12},
		},
		{
			name:     "revise",
			actionID: ActionIDRevise,
			value:    `{"action":"revise","row":3}`,
			want:     Action{Kind: KindRevise, Row: 3},
		},
		{
			name:     "reject",
			actionID: ActionIDReject,
			value:    `{"action":"reject","row":7}`,
			want:     Action{Kind: KindReject, Row: 7},
		},
		{
			name:     "unknown action id",
			actionID: "delete_everything",
			value:    `{"action":"approve","row":2}`,
			wantErr:  true,
		},
		{
			name:     "malformed value json",
			actionID: ActionIDApprove,
			value:    "approve_2",
			wantErr:  true,
		},
		{
			name:     "id and value disagree",
			actionID: ActionIDApprove,
			value:    `{"action":"reject","row":2}`,
			wantErr:  true,
		},
		{
			name:     "header row rejected",
			actionID: ActionIDApprove,
			value:    `{"action":"approve","row":1}`,
			wantErr:  true,
		},
		{
			name:     "missing row",
			actionID: ActionIDApprove,
			value:    `{"action":"approve"}`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAction(tt.actionID, tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("got %+v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestKindValueRoundTrip(t *testing.T) {
	for _, pair := range []struct {
		kind Kind
		id   string
	}{
		{KindApprove, ActionIDApprove},
		{KindRevise, ActionIDRevise},
		{KindReject, ActionIDReject},
	} {
		got, err := ParseAction(pair.id, pair.kind.Value(42))
		if err != nil {
			t.Fatalf("%s: %v", pair.kind, err)
		}
		if got.Kind != pair.kind || got.Row != 42 {
			t.Errorf("%s round trip = %+v", pair.kind, got)
		}
	}
}
