package wire

import (
	"bytes"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/hailam/paintclash/internal/board"
	"github.com/hailam/paintclash/internal/card"
	"github.com/hailam/paintclash/internal/rules"
)

func TestPlayerSideAcceptsHistoricalSourthSpelling(t *testing.T) {
	for _, raw := range []string{`"South"`, `"Sourth"`} {
		var p PlayerSide
		if err := p.UnmarshalJSON([]byte(raw)); err != nil {
			t.Fatalf("UnmarshalJSON(%s): %v", raw, err)
		}
		if p != South {
			t.Fatalf("UnmarshalJSON(%s) = %v, want South", raw, p)
		}
	}
	out, err := South.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "1" {
		t.Fatalf("South always emits canonically as the signed integer 1, got %s", out)
	}
}

func TestPlayerSideJSONIsSignedInteger(t *testing.T) {
	for _, p := range []PlayerSide{South, North} {
		data, err := json.Marshal(p)
		if err != nil {
			t.Fatal(err)
		}
		want := "1"
		if p == North {
			want = "-1"
		}
		if string(data) != want {
			t.Fatalf("Marshal(%v) = %s, want %s", p, data, want)
		}

		var decoded PlayerSide
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Unmarshal(%s): %v", data, err)
		}
		if decoded != p {
			t.Fatalf("round trip: got %v, want %v", decoded, p)
		}
	}
}

func TestActionJSONRoundTrip(t *testing.T) {
	cases := []Action{
		{Kind: ActionPass, CardID: 7},
		{Kind: ActionPut, CardID: 3, Position: CardPosition{X: 1, Y: 2, Rotation: Right}},
		{Kind: ActionSpecial, CardID: 9, Position: CardPosition{X: -1, Y: 4, Rotation: Left}},
	}
	for _, a := range cases {
		data, err := json.Marshal(a)
		if err != nil {
			t.Fatalf("marshal %+v: %v", a, err)
		}
		var got Action
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if got != a {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, a)
		}
	}
}

func TestTimeControlJSONRoundTrip(t *testing.T) {
	cases := []TimeControl{
		{Infinite: true},
		{TimeLimitInSeconds: 30},
	}
	for _, tc := range cases {
		data, err := json.Marshal(tc)
		if err != nil {
			t.Fatalf("marshal %+v: %v", tc, err)
		}
		var got TimeControl
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if got != tc {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, tc)
		}
	}
}

func TestBoardWireRoundTrip(t *testing.T) {
	b := board.New("test", [][]board.Cell{
		{board.WallCell, board.WallCell, board.WallCell},
		{board.WallCell, board.InkCell(board.South), board.SpecialInkCell(board.North)},
		{board.WallCell, board.WallCell, board.WallCell},
	})
	wb := BoardToWire(b)
	back, err := BoardFromWire(wb)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if back.At(x, y) != b.At(x, y) {
				t.Fatalf("cell (%d,%d) mismatch: got %v, want %v", x, y, back.At(x, y), b.At(x, y))
			}
		}
	}
}

func TestActionConversionRoundTrip(t *testing.T) {
	c := card.New(5, "test", 2, []card.Cell{{X: 0, Y: 0, Type: card.Painted, Priority: 1}})
	lookup := func(id uint32) (*card.Card, bool) {
		if id == c.ID {
			return c, true
		}
		return nil, false
	}

	pass := rules.PassAction(c)
	got, err := ActionFromWire(ActionToWire(pass), lookup)
	if err != nil || got.Kind != rules.Pass || got.Card.ID != c.ID {
		t.Fatalf("Pass round trip: got %+v, err %v", got, err)
	}

	place := rules.PlaceAction(c, card.Position{X: 3, Y: 1, Rotation: card.Down})
	got, err = ActionFromWire(ActionToWire(place), lookup)
	if err != nil || got.Kind != rules.Place || got.Position.X != 3 || got.Position.Rotation != card.Down {
		t.Fatalf("Place round trip: got %+v, err %v", got, err)
	}

	special := rules.SpecialPlaceAction(c, card.Position{X: -2, Y: 5, Rotation: card.Left})
	got, err = ActionFromWire(ActionToWire(special), lookup)
	if err != nil || got.Kind != rules.SpecialPlace || got.Position.X != -2 {
		t.Fatalf("SpecialPlace round trip: got %+v, err %v", got, err)
	}

	if _, err := ActionFromWire(Action{Kind: ActionPass, CardID: 999}, lookup); err == nil {
		t.Fatal("expected an error for an unknown card id")
	}
}

func TestScoresConversion(t *testing.T) {
	s := ScoresToWire(4, 9)
	if s.SouthScore != 4 || s.NorthScore != 9 {
		t.Fatalf("unexpected scores: %+v", s)
	}
}

func TestJSONCodecRoundTripsEveryVariant(t *testing.T) {
	var buf bytes.Buffer
	codec := NewJSONCodec(&buf)

	requests := []Request{
		Manmenmi{PreferredFormat: FormatJSON, Name: "Ika"},
		JoinGame{GameID: 1, Deck: []uint32{1, 2, 3}},
		AcceptHands{Accept: true},
		SelectAction{Action: Action{Kind: ActionPut, CardID: 4, Position: CardPosition{X: 1, Y: 1, Rotation: Up}}},
	}
	for _, r := range requests {
		if err := codec.SendRequest(r); err != nil {
			t.Fatalf("SendRequest(%+v): %v", r, err)
		}
	}
	for _, want := range requests {
		got, err := codec.RecvRequest()
		if err != nil {
			t.Fatalf("RecvRequest: %v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("request round trip mismatch: got %+v, want %+v", got, want)
		}
	}

	scores := Scores{SouthScore: 5, NorthScore: 2}
	responses := []Response{
		ErrorResponse{Code: ErrBadRequest, Message: "nope"},
		ManmenmiResponse{AvailableGames: []GameInfo{{GameID: 1, TimeControl: TimeControl{Infinite: true}}}},
		JoinGameResponse{PlayerID: South, InitialHands: []uint32{1, 2}},
		AcceptHandsResponse{Hands: []uint32{1, 2, 3, 4}},
		SelectActionResponse{OpponentAction: Action{Kind: ActionPass, CardID: 2}, Hands: []uint32{1}, GameResult: &scores},
	}
	for _, r := range responses {
		if err := codec.SendResponse(r); err != nil {
			t.Fatalf("SendResponse(%+v): %v", r, err)
		}
	}
	for i, want := range responses {
		got, err := codec.RecvResponse()
		if err != nil {
			t.Fatalf("RecvResponse[%d]: %v", i, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("response[%d] mismatch: got %+v, want %+v", i, got, want)
		}
	}
}
