package wire

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// MarshalJSON emits the canonical signed-integer encoding (South=1,
// North=-1), matching BoardCell and Rotation: a small-integer-semantics
// enum is not a string on the wire (spec.md §4.5, §6.2).
func (p PlayerSide) MarshalJSON() ([]byte, error) {
	return json.Marshal(int8(p))
}

// UnmarshalJSON accepts the canonical integer form, and, for leniency
// toward older clients, the legacy string spellings "South"/"Sourth"/
// "North" (spec.md §6.2, §9).
func (p *PlayerSide) UnmarshalJSON(data []byte) error {
	var n int8
	if err := json.Unmarshal(data, &n); err == nil {
		switch n {
		case int8(South):
			*p = South
			return nil
		case int8(North):
			*p = North
			return nil
		default:
			return fmt.Errorf("wire: PlayerSide: unrecognized value %d", n)
		}
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("wire: PlayerSide: %w", err)
	}
	switch s {
	case "South", "Sourth":
		*p = South
	case "North":
		*p = North
	default:
		return fmt.Errorf("wire: PlayerSide: unrecognized value %q", s)
	}
	return nil
}

// MarshalJSON emits Action as a Rust-style serde tagged enum: a newtype
// variant (Pass) serializes as {"Pass": card_id}; tuple variants (Put,
// Special) serialize as {"Variant": [card_id, position]}.
func (a Action) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case ActionPass:
		return json.Marshal(map[string]uint32{"Pass": a.CardID})
	case ActionPut:
		return json.Marshal(map[string]any{"Put": []any{a.CardID, a.Position}})
	case ActionSpecial:
		return json.Marshal(map[string]any{"Special": []any{a.CardID, a.Position}})
	default:
		return nil, fmt.Errorf("wire: Action: unknown kind %d", a.Kind)
	}
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("wire: Action: %w", err)
	}
	if len(tagged) != 1 {
		return fmt.Errorf("wire: Action: expected exactly one variant tag, got %d", len(tagged))
	}
	for tag, payload := range tagged {
		switch tag {
		case "Pass":
			var id uint32
			if err := json.Unmarshal(payload, &id); err != nil {
				return fmt.Errorf("wire: Action.Pass: %w", err)
			}
			*a = Action{Kind: ActionPass, CardID: id}
		case "Put", "Special":
			var tuple [2]json.RawMessage
			if err := json.Unmarshal(payload, &tuple); err != nil {
				return fmt.Errorf("wire: Action.%s: %w", tag, err)
			}
			var id uint32
			var pos CardPosition
			if err := json.Unmarshal(tuple[0], &id); err != nil {
				return fmt.Errorf("wire: Action.%s: card id: %w", tag, err)
			}
			if err := json.Unmarshal(tuple[1], &pos); err != nil {
				return fmt.Errorf("wire: Action.%s: position: %w", tag, err)
			}
			kind := ActionPut
			if tag == "Special" {
				kind = ActionSpecial
			}
			*a = Action{Kind: kind, CardID: id, Position: pos}
		default:
			return fmt.Errorf("wire: Action: unknown variant %q", tag)
		}
	}
	return nil
}

// MarshalJSON emits TimeControl as the unit variant "Infinite" or the
// newtype-of-struct variant {"PerAction": {...}}.
func (tc TimeControl) MarshalJSON() ([]byte, error) {
	if tc.Infinite {
		return json.Marshal("Infinite")
	}
	return json.Marshal(map[string]any{
		"PerAction": map[string]uint32{"time_limit_in_seconds": tc.TimeLimitInSeconds},
	})
}

func (tc *TimeControl) UnmarshalJSON(data []byte) error {
	var unit string
	if err := json.Unmarshal(data, &unit); err == nil {
		if unit != "Infinite" {
			return fmt.Errorf("wire: TimeControl: unknown unit variant %q", unit)
		}
		*tc = TimeControl{Infinite: true}
		return nil
	}
	var tagged struct {
		PerAction struct {
			TimeLimitInSeconds uint32 `json:"time_limit_in_seconds"`
		} `json:"PerAction"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("wire: TimeControl: %w", err)
	}
	*tc = TimeControl{TimeLimitInSeconds: tagged.PerAction.TimeLimitInSeconds}
	return nil
}

// JSONCodec implements Codec over newline-delimited JSON (spec.md §4.5,
// §6.3): one message per line, tagged variants as {"VariantName": payload}.
type JSONCodec struct {
	w       io.Writer
	scanner *bufio.Scanner
}

// NewJSONCodec wraps rw for newline-framed JSON messages.
func NewJSONCodec(rw io.ReadWriter) *JSONCodec {
	scanner := bufio.NewScanner(rw)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &JSONCodec{w: rw, scanner: scanner}
}

func (c *JSONCodec) writeLine(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("wire: json encode: %w", err)
	}
	line = append(line, '\n')
	if _, err := c.w.Write(line); err != nil {
		return fmt.Errorf("wire: json write: %w", err)
	}
	return nil
}

func (c *JSONCodec) readLine() ([]byte, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return nil, fmt.Errorf("wire: json read: %w", err)
		}
		return nil, io.EOF
	}
	return c.scanner.Bytes(), nil
}

func (c *JSONCodec) SendRequest(r Request) error {
	return c.writeLine(wrapRequest(r))
}

func (c *JSONCodec) SendResponse(r Response) error {
	return c.writeLine(wrapResponse(r))
}

func (c *JSONCodec) RecvRequest() (Request, error) {
	line, err := c.readLine()
	if err != nil {
		return nil, err
	}
	return unwrapRequest(line)
}

func (c *JSONCodec) RecvResponse() (Response, error) {
	line, err := c.readLine()
	if err != nil {
		return nil, err
	}
	return unwrapResponse(line)
}

func wrapRequest(r Request) map[string]any {
	switch v := r.(type) {
	case Manmenmi:
		return map[string]any{"Manmenmi": v}
	case JoinGame:
		return map[string]any{"JoinGame": v}
	case AcceptHands:
		return map[string]any{"AcceptHands": v}
	case SelectAction:
		return map[string]any{"SelectAction": v}
	default:
		panic(fmt.Sprintf("wire: unknown Request type %T", r))
	}
}

func wrapResponse(r Response) map[string]any {
	switch v := r.(type) {
	case ErrorResponse:
		return map[string]any{"Error": v}
	case ManmenmiResponse:
		return map[string]any{"ManmenmiResponse": v}
	case JoinGameResponse:
		return map[string]any{"JoinGameResponse": v}
	case AcceptHandsResponse:
		return map[string]any{"AcceptHandsResponse": v}
	case SelectActionResponse:
		return map[string]any{"SelectActionResponse": v}
	default:
		panic(fmt.Sprintf("wire: unknown Response type %T", r))
	}
}

func unwrapRequest(line []byte) (Request, error) {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(line, &tagged); err != nil {
		return nil, ErrorResponse{Code: ErrMalformedPayload, Message: err.Error()}
	}
	if len(tagged) != 1 {
		return nil, ErrorResponse{Code: ErrMalformedPayload, Message: "expected exactly one variant tag"}
	}
	for tag, payload := range tagged {
		switch tag {
		case "Manmenmi":
			var v Manmenmi
			return v, decodeVariant(payload, &v)
		case "JoinGame":
			var v JoinGame
			return v, decodeVariant(payload, &v)
		case "AcceptHands":
			var v AcceptHands
			return v, decodeVariant(payload, &v)
		case "SelectAction":
			var v SelectAction
			return v, decodeVariant(payload, &v)
		default:
			return nil, ErrorResponse{Code: ErrMalformedPayload, Message: fmt.Sprintf("unknown request variant %q", tag)}
		}
	}
	panic("unreachable")
}

func unwrapResponse(line []byte) (Response, error) {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(line, &tagged); err != nil {
		return nil, fmt.Errorf("wire: %w", err)
	}
	if len(tagged) != 1 {
		return nil, fmt.Errorf("wire: expected exactly one variant tag, got %d", len(tagged))
	}
	for tag, payload := range tagged {
		switch tag {
		case "Error":
			var v ErrorResponse
			return v, decodeVariant(payload, &v)
		case "ManmenmiResponse":
			var v ManmenmiResponse
			return v, decodeVariant(payload, &v)
		case "JoinGameResponse":
			var v JoinGameResponse
			return v, decodeVariant(payload, &v)
		case "AcceptHandsResponse":
			var v AcceptHandsResponse
			return v, decodeVariant(payload, &v)
		case "SelectActionResponse":
			var v SelectActionResponse
			return v, decodeVariant(payload, &v)
		default:
			return nil, fmt.Errorf("wire: unknown response variant %q", tag)
		}
	}
	panic("unreachable")
}

// decodeVariant unmarshals payload into dst, a pointer to the concrete
// message type; unwrapRequest/unwrapResponse then return that value as the
// interface's dynamic value.
func decodeVariant[T any](payload json.RawMessage, dst *T) error {
	return json.Unmarshal(payload, dst)
}
