package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/park285/dambrete/internal/draughts"
	"github.com/park285/dambrete/internal/msgcat"
	"github.com/park285/dambrete/internal/obslog"
	"github.com/park285/dambrete/internal/render"
	"github.com/park285/dambrete/internal/results"
	"github.com/park285/dambrete/internal/room"
	"github.com/park285/dambrete/pkg/damdto"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

type Deps struct {
	Manager        *room.Manager
	Results        results.Repository
	Renderer       render.BoardRenderer
	Catalog        *msgcat.Catalog
	AllowedOrigins []string
	// Online reports the live WebSocket connection count, when wired.
	Online func() int
}

// Server is the read-only REST surface.
type Server struct {
	deps    Deps
	origins map[string]bool
	srv     *fasthttp.Server
}

func New(d Deps) *Server {
	if d.Renderer == nil {
		d.Renderer = render.NewBoardRenderer()
	}
	s := &Server{deps: d, origins: map[string]bool{}}
	for _, o := range d.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			s.origins[o] = true
		}
	}
	s.srv = &fasthttp.Server{
		Handler:      s.Handler,
		Name:         "dambrete",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe(addr string) error {
	obslog.L().Info("http_api_listen", zap.String("addr", addr))
	return s.srv.ListenAndServe(addr)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	return s.srv.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.ShutdownWithContext(ctx)
}

// Handler routes one request.
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	s.cors(ctx)
	if ctx.IsOptions() {
		ctx.SetStatusCode(fasthttp.StatusNoContent)
		return
	}
	if !ctx.IsGet() && !ctx.IsHead() {
		s.fail(ctx, fasthttp.StatusMethodNotAllowed, damdto.CodeInvalidArgs, nil)
		return
	}

	path := strings.TrimRight(string(ctx.Path()), "/")
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	switch {
	case path == "/healthz":
		s.health(ctx)
	case path == "/api/rooms":
		s.rooms(ctx)
	case len(parts) == 3 && parts[0] == "api" && parts[1] == "rooms":
		s.room(ctx, parts[2])
	case len(parts) == 4 && parts[0] == "api" && parts[1] == "rooms" && parts[3] == "board.png":
		s.board(ctx, parts[2])
	case path == "/api/leaderboard":
		s.leaderboard(ctx)
	case len(parts) == 3 && parts[0] == "api" && parts[1] == "players":
		s.player(ctx, parts[2])
	default:
		s.fail(ctx, fasthttp.StatusNotFound, damdto.CodeNotFound, nil)
	}
	obslog.L().Debug("http_request",
		zap.ByteString("method", ctx.Method()),
		zap.String("path", path),
		zap.Int("status", ctx.Response.StatusCode()),
		zap.Duration("took", time.Since(start)),
	)
}

func (s *Server) cors(ctx *fasthttp.RequestCtx) {
	origin := string(ctx.Request.Header.Peek("Origin"))
	if origin == "" || !s.origins[origin] {
		return
	}
	ctx.Response.Header.Set("Access-Control-Allow-Origin", origin)
	ctx.Response.Header.Set("Vary", "Origin")
	ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
}

// opCtx bounds store and render calls. It is detached from the RequestCtx,
// which only carries a server-wide done channel.
func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, body any) {
	raw, err := json.Marshal(body)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json; charset=utf-8")
	ctx.SetStatusCode(status)
	ctx.SetBody(raw)
}

type envelope map[string]any

func (s *Server) fail(ctx *fasthttp.RequestCtx, status int, code string, data any) {
	msg := code
	if s.deps.Catalog != nil {
		msg = s.deps.Catalog.ErrorText(code, data)
	}
	writeJSON(ctx, status, envelope{"ok": false, "error": damdto.DomainError{Code: code, Message: msg}})
}

func (s *Server) failErr(ctx *fasthttp.RequestCtx, err error) {
	code := room.ReasonOf(err)
	status := fasthttp.StatusBadRequest
	switch code {
	case damdto.CodeNotFound:
		status = fasthttp.StatusNotFound
	case damdto.CodeInternal:
		status = fasthttp.StatusInternalServerError
		obslog.L().Error("http_api_error", zap.ByteString("path", ctx.Path()), zap.Error(err))
	}
	s.fail(ctx, status, code, nil)
}

func (s *Server) health(ctx *fasthttp.RequestCtx) {
	body := envelope{"ok": true}
	if s.deps.Online != nil {
		body["online"] = s.deps.Online()
	}
	writeJSON(ctx, fasthttp.StatusOK, body)
}

func (s *Server) rooms(ctx *fasthttp.RequestCtx) {
	c, cancel := opCtx()
	defer cancel()
	list, err := s.deps.Manager.List(c)
	if err != nil {
		s.failErr(ctx, err)
		return
	}
	out := make([]damdto.RoomSummary, 0, len(list))
	for _, sess := range list {
		out = append(out, room.Summarize(sess))
	}
	writeJSON(ctx, fasthttp.StatusOK, envelope{"ok": true, "rooms": out})
}

func (s *Server) room(ctx *fasthttp.RequestCtx, id string) {
	c, cancel := opCtx()
	defer cancel()
	sess, err := s.deps.Manager.Session(c, id)
	if err != nil {
		s.failErr(ctx, err)
		return
	}
	body := envelope{"ok": true, "room": room.Snapshot(sess)}
	if viewer := strings.TrimSpace(string(ctx.QueryArgs().Peek("user"))); viewer != "" {
		ms, err := s.deps.Manager.LegalMoves(c, id, viewer)
		if err == nil {
			body["moves"] = room.Hint(ms)
		}
	}
	writeJSON(ctx, fasthttp.StatusOK, body)
}

func (s *Server) board(ctx *fasthttp.RequestCtx, id string) {
	c, cancel := opCtx()
	defer cancel()
	sess, err := s.deps.Manager.Session(c, id)
	if err != nil {
		s.failErr(ctx, err)
		return
	}
	opts := render.Options{
		Header: headerLine(sess),
		Turn:   statusLine(sess),
		Flip:   string(ctx.QueryArgs().Peek("flip")) == "1" || sess.SideOf(string(ctx.QueryArgs().Peek("user"))) == draughts.Black,
	}
	if lm := sess.LastMove; lm != nil {
		opts.Highlight = &render.Highlight{From: lm.From, To: lm.To}
	}
	if p := sess.Game.Pending; p != nil {
		cur := p.Current
		opts.Pending = &cur
	}
	img, err := s.deps.Renderer.RenderPNG(c, &sess.Game.Board, opts)
	if err != nil {
		s.failErr(ctx, err)
		return
	}
	ctx.SetContentType("image/png")
	ctx.Response.Header.Set("Cache-Control", "no-store")
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(img)
}

func (s *Server) leaderboard(ctx *fasthttp.RequestCtx) {
	c, cancel := opCtx()
	defer cancel()
	out := []damdto.PlayerStats{}
	if s.deps.Results != nil {
		top, err := s.deps.Results.Top(c, results.TopSize)
		if err != nil {
			s.failErr(ctx, err)
			return
		}
		for _, p := range top {
			out = append(out, toDTO(p))
		}
	}
	writeJSON(ctx, fasthttp.StatusOK, envelope{"ok": true, "top": out})
}

func (s *Server) player(ctx *fasthttp.RequestCtx, name string) {
	c, cancel := opCtx()
	defer cancel()
	if s.deps.Results == nil {
		s.fail(ctx, fasthttp.StatusNotFound, damdto.CodeNotFound, nil)
		return
	}
	p, err := s.deps.Results.Stats(c, name)
	if errors.Is(err, results.ErrPlayerNotFound) {
		s.fail(ctx, fasthttp.StatusNotFound, damdto.CodeNotFound, nil)
		return
	}
	if err != nil {
		s.failErr(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, envelope{"ok": true, "player": toDTO(p)})
}

func toDTO(p results.PlayerStats) damdto.PlayerStats {
	return damdto.PlayerStats{Name: p.Name, Wins: p.Wins, Losses: p.Losses, XP: p.XP, Rating: p.Rating}
}
