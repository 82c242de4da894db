package observerproto_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"antfarm.ai/internal/observerproto"
)

func compile(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	p := filepath.Join("..", "..", "schemas", name)
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

func validate(t *testing.T, s *jsonschema.Schema, raw []byte) {
	t.Helper()
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := s.Validate(v); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestSchemas_ValidateSamples(t *testing.T) {
	validate(t, compile(t, "subscribe.schema.json"), []byte(`{
	  "type":"SUBSCRIBE",
	  "protocol_version":"1.0",
	  "every_ticks":5,
	  "scent":true
	}`))

	validate(t, compile(t, "edit.schema.json"), []byte(`{
	  "type":"EDIT",
	  "protocol_version":"1.0",
	  "op":"PLACE_OBSTACLE",
	  "x":12,
	  "y":7
	}`))

	validate(t, compile(t, "bootstrap.schema.json"), []byte(`{
	  "protocol_version":"1.0",
	  "world_id":"FARM",
	  "tick":0,
	  "world_params":{"width":80,"height":60,"cell_size":10,"tick_rate_hz":30,"evaporation_rate":0.1,"home_size":10},
	  "colonies":[{"id":0,"origin":[4,4],"size":10}]
	}`))
}

func TestSchemas_EncodedMessages(t *testing.T) {
	frame := observerproto.FrameMsg{
		Type:            observerproto.TypeFrame,
		ProtocolVersion: observerproto.Version,
		Tick:            42,
		Agents: []observerproto.AgentState{
			{ID: 1, Colony: 0, Role: "worker", Pos: [2]int{3, 4}, Dir: 2, Food: 1, Health: 0.9, Task: "drop food"},
		},
		Cells: []observerproto.CellState{
			{Pos: [2]int{0, 0}, Home: 0, HomeScent: 12.5},
			{Pos: [2]int{9, 9}, Home: -1, Obstacle: true},
		},
	}
	b, err := json.Marshal(frame)
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	validate(t, compile(t, "frame.schema.json"), b)

	res := observerproto.EditResultMsg{
		Type:            observerproto.TypeEditResult,
		ProtocolVersion: observerproto.Version,
		Op:              observerproto.OpRemoveObstacle,
		X:               1,
		Y:               2,
		OK:              false,
		Tick:            7,
		Error:           "no obstacle",
	}
	b, err = json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal edit result: %v", err)
	}
	validate(t, compile(t, "edit_result.schema.json"), b)
}

func TestSchemas_RejectUnknownOp(t *testing.T) {
	s := compile(t, "edit.schema.json")
	var v any
	_ = json.Unmarshal([]byte(`{"type":"EDIT","protocol_version":"1.0","op":"DIG","x":0,"y":0}`), &v)
	if err := s.Validate(v); err == nil {
		t.Fatalf("expected unknown op to be rejected")
	}
}
