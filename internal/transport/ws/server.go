package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/san-kum/counterfall/internal/config"
	"github.com/san-kum/counterfall/internal/counter"
	"github.com/san-kum/counterfall/internal/scene"
	"github.com/san-kum/counterfall/internal/sim"
	"github.com/san-kum/counterfall/internal/transition"
)

var (
	ErrUnknownCommand = errors.New("ws: unknown command")
	ErrExitRejected   = errors.New("ws: no step that way or a transition is running")
)

// Server shares one live counter between any number of websocket clients.
// The engine lives on a sim.Runner goroutine; step navigation goes through a
// scene.Session whose calls, timer callbacks included, are serialised by mu.
type Server struct {
	runner   *sim.Runner
	session  *scene.Session
	logger   *slog.Logger
	interval time.Duration

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu    sync.Mutex
	step  atomic.Int64
	dirty chan struct{}

	cmu     sync.Mutex
	clients map[uint64]chan []byte
}

func NewServer(cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	eng := cfg.NewEngine(0, logger)
	s := &Server{
		runner:   sim.NewRunner(eng, cfg.FrameRate),
		logger:   logger,
		interval: time.Second / time.Duration(max(1, cfg.FrameRate)),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		dirty:   make(chan struct{}, 1),
		clients: make(map[uint64]chan []byte),
	}
	s.session = scene.New(cfg,
		scene.WithEngine(eng),
		scene.WithLogger(logger),
		scene.WithScheduler(serialScheduler{inner: transition.WallClock(), mu: &s.mu}),
		scene.WithDispatch(func(fn func(*counter.Engine)) {
			if err := s.runner.Do(context.Background(), fn); err != nil {
				s.logger.Warn("engine update dropped", "err", err)
			}
		}),
		scene.OnStep(func(step int) { s.step.Store(int64(step)) }),
	)
	s.runner.AddObserver(sim.ObserverFunc(func(counter.Frame) { s.markDirty() }))
	return s
}

// serialScheduler runs timer callbacks while holding mu, so they never race
// with session calls made from connection goroutines.
type serialScheduler struct {
	inner transition.Scheduler
	mu    *sync.Mutex
}

func (s serialScheduler) AfterFunc(d time.Duration, f func()) transition.Timer {
	return s.inner.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		f()
	})
}

func (s serialScheduler) Now() time.Duration { return s.inner.Now() }

func (s *Server) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

// Run drives the engine and broadcasts frames until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	runErr := make(chan error, 1)
	go func() { runErr <- s.runner.Run(ctx) }()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.session.Close()
			s.mu.Unlock()
			<-runErr
			return nil
		case err := <-runErr:
			return err
		case <-s.dirty:
			s.broadcast()
		case <-ticker.C:
			if s.session.Sequencer().Phase() != transition.None {
				s.broadcast()
			}
		}
	}
}

// Handler serves the websocket at /ws and the current frame as JSON at /frame.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.WSHandler())
	mux.HandleFunc("/frame", s.FrameHandler())
	return mux
}

func (s *Server) FrameHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(s.frame())
	}
}

func (s *Server) frame() FrameMsg {
	f := s.runner.Frame()
	seq := s.session.Sequencer()
	step := int(s.step.Load())
	return FrameMsg{
		Type:            TypeFrame,
		ProtocolVersion: ProtocolVersion,
		Tick:            f.Tick,
		Step:            step,
		Steps:           s.session.Steps(),
		Title:           s.session.Config().Step(step).Title,
		Phase:           seq.Phase().String(),
		Progress:        seq.Progress(),
		Offset:          seq.Offset(f.Geometry.Width),
		Geometry:        f.Geometry,
		Items:           f.Items,
	}
}

func (s *Server) broadcast() {
	b, err := json.Marshal(s.frame())
	if err != nil {
		s.logger.Error("encode frame", "err", err)
		return
	}
	s.cmu.Lock()
	defer s.cmu.Unlock()
	for _, out := range s.clients {
		select {
		case out <- b:
		default:
			// Slow client; it catches up with the next frame.
		}
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		id := s.nextID.Add(1)
		out := make(chan []byte, 16)
		if b, err := json.Marshal(s.frame()); err == nil {
			out <- b
		}
		s.cmu.Lock()
		s.clients[id] = out
		s.cmu.Unlock()
		defer func() {
			s.cmu.Lock()
			delete(s.clients, id)
			s.cmu.Unlock()
		}()
		s.logger.Info("client connected", "client", id, "remote", r.RemoteAddr)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var cmd CommandMsg
			if err := json.Unmarshal(msg, &cmd); err != nil {
				s.reply(out, "", fmt.Errorf("bad command: %w", err))
				continue
			}
			if err := s.apply(ctx, cmd); err != nil {
				s.logger.Debug("command failed", "client", id, "command", cmd.Type, "err", err)
				s.reply(out, cmd.Type, err)
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
		s.logger.Info("client disconnected", "client", id)

		// Best-effort wait for the writer to stop so it doesn't outlive conn.
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func (s *Server) reply(out chan<- []byte, command string, err error) {
	b, merr := json.Marshal(ErrorMsg{Type: TypeError, Command: command, Message: err.Error()})
	if merr != nil {
		return
	}
	select {
	case out <- b:
	default:
	}
}

// apply executes one client command.
func (s *Server) apply(ctx context.Context, cmd CommandMsg) error {
	switch cmd.Type {
	case TypePointerDown:
		return s.do(ctx, func(eng *counter.Engine) error {
			return eng.PointerDown(cmd.ID, cmd.X, cmd.Y)
		})
	case TypePointerMove:
		return s.do(ctx, func(eng *counter.Engine) error {
			_, err := eng.PointerMove(cmd.X, cmd.Y)
			return err
		})
	case TypePointerUp:
		return s.do(ctx, func(eng *counter.Engine) error { return eng.PointerUp() })
	case TypeGeometry:
		if cmd.Geometry == nil || !cmd.Geometry.Valid() {
			return counter.ErrNoGeometry
		}
		g := *cmd.Geometry
		return s.do(ctx, func(eng *counter.Engine) error {
			eng.SetGeometry(g)
			return nil
		})
	case TypeReset:
		s.mu.Lock()
		defer s.mu.Unlock()
		s.session.Reset()
		return nil
	case TypeExit:
		if cmd.Direction != 1 && cmd.Direction != -1 {
			return fmt.Errorf("exit direction must be 1 or -1, got %d", cmd.Direction)
		}
		s.mu.Lock()
		ok := s.session.Exit(cmd.Direction)
		s.mu.Unlock()
		if !ok {
			return ErrExitRejected
		}
		s.markDirty()
		return nil
	default:
		return fmt.Errorf("%w %q", ErrUnknownCommand, cmd.Type)
	}
}

func (s *Server) do(ctx context.Context, fn func(*counter.Engine) error) error {
	var err error
	if derr := s.runner.Do(ctx, func(eng *counter.Engine) { err = fn(eng) }); derr != nil {
		return derr
	}
	return err
}
