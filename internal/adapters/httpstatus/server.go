package httpstatus

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jose-valero/dreamy-assistant-bot/internal/music"
)

// Sources son las lecturas que expone /status.
type Sources struct {
	Guilds  func() int
	Rosters func() int
	Players func(ctx context.Context) []music.State
}

type playerDTO struct {
	Guild   string `json:"guild"`
	Status  string `json:"status"`
	Queue   int    `json:"queue"`
	Current string `json:"current,omitempty"`
}

type statusDTO struct {
	Guilds  int         `json:"guilds"`
	Rosters int         `json:"rosters"`
	Players []playerDTO `json:"players"`
}

type Server struct {
	src Sources
	mux *http.ServeMux
	log *slog.Logger
	srv *http.Server
}

func New(src Sources, log *slog.Logger) *Server {
	s := &Server{src: src, mux: http.NewServeMux(), log: log.With("component", "http")}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/status", s.handleStatus)
}

func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out := statusDTO{Players: []playerDTO{}}
	if s.src.Guilds != nil {
		out.Guilds = s.src.Guilds()
	}
	if s.src.Rosters != nil {
		out.Rosters = s.src.Rosters()
	}
	if s.src.Players != nil {
		for _, st := range s.src.Players(ctx) {
			p := playerDTO{Guild: st.GuildID, Status: string(st.Status), Queue: len(st.Queue)}
			if st.Current != nil {
				p.Current = st.Current.Label()
			}
			out.Players = append(out.Players, p)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		s.log.Warn("encode status", "err", err)
	}
}

// Start bloquea hasta Shutdown.
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{Addr: addr, Handler: s.mux, ReadHeaderTimeout: 5 * time.Second}
	s.log.Info("🌐 HTTP listening", "addr", addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
