package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"testing"

	"github.com/park285/dambrete/internal/draughts"
	"github.com/park285/dambrete/internal/msgcat"
	"github.com/park285/dambrete/internal/results"
	"github.com/park285/dambrete/internal/room"
	"github.com/park285/dambrete/pkg/damdto"
	"github.com/valyala/fasthttp"
)

func newTestServer(t *testing.T) (*Server, *room.Manager, results.Repository) {
	t.Helper()
	repo := results.NewMemoryRepository()
	m := room.NewManager(room.NewMemoryStore(), room.Options{
		AllowSpectators: true,
		Results:         results.NewRecorder(repo),
		NewID:           func() (string, error) { return "ABC234", nil },
	})
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatal(err)
	}
	s := New(Deps{
		Manager:        m,
		Results:        repo,
		Catalog:        cat,
		AllowedOrigins: []string{"https://dam.example"},
		Online:         func() int { return 3 },
	})
	return s, m, repo
}

func do(s *Server, method, uri string, hdr map[string]string) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	for k, v := range hdr {
		ctx.Request.Header.Set(k, v)
	}
	s.Handler(&ctx)
	return &ctx
}

func decodeBody(t *testing.T, ctx *fasthttp.RequestCtx, v any) {
	t.Helper()
	if err := json.Unmarshal(ctx.Response.Body(), v); err != nil {
		t.Fatalf("body %q: %v", ctx.Response.Body(), err)
	}
}

func TestHealthz(t *testing.T) {
	s, _, _ := newTestServer(t)
	ctx := do(s, "GET", "/healthz", nil)
	var body struct {
		OK     bool `json:"ok"`
		Online int  `json:"online"`
	}
	decodeBody(t, ctx, &body)
	if ctx.Response.StatusCode() != 200 || !body.OK || body.Online != 3 {
		t.Fatalf("healthz = %d %+v", ctx.Response.StatusCode(), body)
	}
}

func TestRoomsAndSnapshot(t *testing.T) {
	s, m, _ := newTestServer(t)
	bg := context.Background()
	if _, err := m.Create(bg, "alice"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Join(bg, "ABC234", "bob"); err != nil {
		t.Fatal(err)
	}

	ctx := do(s, "GET", "/api/rooms", nil)
	var list struct {
		Rooms []damdto.RoomSummary `json:"rooms"`
	}
	decodeBody(t, ctx, &list)
	if len(list.Rooms) != 1 || list.Rooms[0].White != "alice" || list.Rooms[0].Status != "PLAYING" {
		t.Fatalf("rooms = %+v", list.Rooms)
	}

	ctx = do(s, "GET", "/api/rooms/abc234?user=alice", nil)
	var one struct {
		OK    bool                `json:"ok"`
		Room  damdto.SessionState `json:"room"`
		Moves *damdto.LegalMoves  `json:"moves"`
	}
	decodeBody(t, ctx, &one)
	if !one.OK || one.Room.ID != "ABC234" || one.Room.Turn != "white" {
		t.Fatalf("room = %+v", one.Room)
	}
	if one.Moves == nil || one.Moves.Side != "white" {
		t.Fatalf("moves = %+v", one.Moves)
	}

	ctx = do(s, "GET", "/api/rooms/abc234?user=bob", nil)
	one.Moves = nil
	decodeBody(t, ctx, &one)
	if one.Moves != nil {
		t.Fatalf("bob got a hint off turn: %+v", one.Moves)
	}
}

func TestNotFoundAndMethod(t *testing.T) {
	s, _, _ := newTestServer(t)
	cases := []struct {
		method, uri string
		status      int
		code        string
	}{
		{"GET", "/api/rooms/ZZZZZZ", 404, damdto.CodeNotFound},
		{"GET", "/api/rooms/ZZZZZZ/board.png", 404, damdto.CodeNotFound},
		{"GET", "/api/players/nobody", 404, damdto.CodeNotFound},
		{"GET", "/nothing/here", 404, damdto.CodeNotFound},
		{"POST", "/api/rooms", 405, damdto.CodeInvalidArgs},
	}
	for _, tc := range cases {
		ctx := do(s, tc.method, tc.uri, nil)
		var body struct {
			OK    bool               `json:"ok"`
			Error damdto.DomainError `json:"error"`
		}
		decodeBody(t, ctx, &body)
		if ctx.Response.StatusCode() != tc.status || body.OK || body.Error.Code != tc.code || body.Error.Message == "" {
			t.Fatalf("%s %s = %d %+v", tc.method, tc.uri, ctx.Response.StatusCode(), body)
		}
	}
}

func TestBoardPNG(t *testing.T) {
	s, m, _ := newTestServer(t)
	bg := context.Background()
	_, _ = m.Create(bg, "alice")
	_, _ = m.Join(bg, "ABC234", "bob")
	if _, err := m.SubmitMove(bg, "ABC234", "alice", draughts.Sq(5, 0), draughts.Sq(4, 1)); err != nil {
		t.Fatal(err)
	}

	ctx := do(s, "GET", "/api/rooms/ABC234/board.png?user=bob", nil)
	if ctx.Response.StatusCode() != 200 {
		t.Fatalf("status = %d body=%s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	if ct := string(ctx.Response.Header.ContentType()); ct != "image/png" {
		t.Fatalf("content type = %q", ct)
	}
	if _, err := png.Decode(bytes.NewReader(ctx.Response.Body())); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestLeaderboardAndPlayer(t *testing.T) {
	s, m, _ := newTestServer(t)
	bg := context.Background()
	_, _ = m.Create(bg, "alice")
	_, _ = m.Join(bg, "ABC234", "bob")
	if _, err := m.Resign(bg, "ABC234", "bob"); err != nil {
		t.Fatal(err)
	}

	ctx := do(s, "GET", "/api/leaderboard", nil)
	var top struct {
		Top []damdto.PlayerStats `json:"top"`
	}
	decodeBody(t, ctx, &top)
	if len(top.Top) != 2 || top.Top[0].Name != "alice" || top.Top[0].Rating != results.BaseRating+results.WinRating {
		t.Fatalf("top = %+v", top.Top)
	}

	ctx = do(s, "GET", "/api/players/bob", nil)
	var p struct {
		Player damdto.PlayerStats `json:"player"`
	}
	decodeBody(t, ctx, &p)
	if p.Player.Losses != 1 || p.Player.XP != results.LossXP {
		t.Fatalf("bob = %+v", p.Player)
	}
}

func TestCORS(t *testing.T) {
	s, _, _ := newTestServer(t)
	ctx := do(s, "GET", "/healthz", map[string]string{"Origin": "https://dam.example"})
	if got := string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")); got != "https://dam.example" {
		t.Fatalf("allow origin = %q", got)
	}
	ctx = do(s, "GET", "/healthz", map[string]string{"Origin": "https://evil.example"})
	if got := ctx.Response.Header.Peek("Access-Control-Allow-Origin"); len(got) != 0 {
		t.Fatalf("foreign origin allowed: %q", got)
	}
	ctx = do(s, "OPTIONS", "/api/rooms", nil)
	if ctx.Response.StatusCode() != fasthttp.StatusNoContent {
		t.Fatalf("preflight = %d", ctx.Response.StatusCode())
	}
}
