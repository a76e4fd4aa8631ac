package gateway

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mcdev12/typerace/go/internal/models"
	"github.com/mcdev12/typerace/go/internal/session"
)

func TestParseClientMessage(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    ClientMessage
		wantErr bool
	}{
		{
			name: "join",
			data: `{"type":"join","room_id":"abc12"}`,
			want: ClientMessage{Type: ClientMessageJoin, RoomID: "abc12"},
		},
		{
			name: "input",
			data: `{"type":"input","value":"The qui"}`,
			want: ClientMessage{Type: ClientMessageInput, Value: "The qui"},
		},
		{
			name: "leave",
			data: `{"type":"leave"}`,
			want: ClientMessage{Type: ClientMessageLeave},
		},
		{
			name:    "unknown type",
			data:    `{"type":"explode"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			data:    `hello`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClientMessage([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClientMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseClientMessage() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestViewMessageRoundTrip(t *testing.T) {
	view := session.View{
		Phase:    models.PhaseRacing,
		PlayerID: "p1",
		RoomID:   "abc12",
		Players:  map[string]models.PlayerRecord{"p1": {Typed: "The", Accuracy: 100}},
	}

	data, err := json.Marshal(NewViewMessage(view))
	if err != nil {
		t.Fatalf("marshal view message: %v", err)
	}

	var decoded ServerMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal view message: %v", err)
	}
	if decoded.Type != ServerMessageView {
		t.Errorf("type = %v, want %v", decoded.Type, ServerMessageView)
	}
	if decoded.View == nil || decoded.View.PlayerID != "p1" {
		t.Errorf("view payload not preserved: %+v", decoded.View)
	}
}
