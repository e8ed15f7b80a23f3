package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mediatree/internal/api"
	"mediatree/internal/config"
	"mediatree/internal/logging"
	"mediatree/internal/media"
	"mediatree/internal/resource"
	"mediatree/internal/scan"
	"mediatree/internal/services"
)

const requestIDHeader = "X-Request-ID"

type apiServer struct {
	bind    string
	token   string
	logger  *slog.Logger
	daemon  *Daemon
	handler http.Handler

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		token:  cfg.Paths.APIToken,
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.wrap(srv.handleStatus))
	mux.HandleFunc("/api/browse", srv.wrap(srv.handleBrowse))
	mux.HandleFunc("/api/node", srv.wrap(srv.handleNode))
	mux.HandleFunc("/api/stream", srv.wrap(srv.handleStream))
	mux.HandleFunc("/api/scan", srv.wrap(srv.handleScan))
	srv.handler = mux
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		s.logger.Info("api server disabled", logging.String(logging.FieldEventType, "api_disabled"))
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Streams last as long as playback does.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
	s.mu.Lock()
	s.listener = listener
	s.server = server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	s.mu.Lock()
	server, listener := s.server, s.listener
	s.server, s.listener = nil, nil
	s.mu.Unlock()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			_ = server.Close()
		}
	}
	if listener != nil {
		_ = listener.Close()
	}
}

func (s *apiServer) address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// wrap applies authentication and request correlation.
func (s *apiServer) wrap(next http.HandlerFunc) http.HandlerFunc {
	authed := authMiddleware(s.token, next)
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := services.WithRequestID(r.Context(), id)
		logging.WithContext(ctx, s.logger).Debug("api request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
		)
		authed(w, r.WithContext(ctx))
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	payload := api.DaemonStatus{
		Running:        status.Running,
		PID:            status.PID,
		LockFilePath:   status.LockFilePath,
		CacheDBPath:    status.CacheDBPath,
		ListsDir:       status.ListsDir,
		Nodes:          status.Nodes,
		Tombstones:     status.Tombstones,
		ActivePlayback: status.ActivePlayback,
		Scan:           api.FromScanStatus(status.Scan),
		Checks:         api.FromChecks(status.Checks),
	}
	if status.Disc != nil {
		payload.Disc = api.FromDisc(*status.Disc)
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleBrowse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	n, ok := s.lookup(w, r, true)
	if !ok {
		return
	}
	if !n.IsFolder() {
		s.writeError(w, http.StatusBadRequest, "node is not a container")
		return
	}
	if err := n.EnsureFresh(r.Context()); err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.BrowseResponse{
		Node:     api.FromNode(n),
		Children: api.FromChildren(n.Children()),
	})
}

func (s *apiServer) handleNode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	n, ok := s.lookup(w, r, true)
	if !ok {
		return
	}
	if !n.IsFolder() {
		if err := n.Resolve(r.Context()); err != nil {
			s.writeServiceError(r.Context(), w, err)
			return
		}
	}
	s.writeJSON(w, http.StatusOK, api.NodeResponse{Node: api.FromNodeDetail(n)})
}

func (s *apiServer) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	n, ok := s.lookup(w, r, false)
	if !ok {
		return
	}
	if n.IsFolder() {
		s.writeError(w, http.StatusBadRequest, "node is a container")
		return
	}
	if n.Engine() != nil {
		s.writeError(w, http.StatusNotImplemented, "transcoded variants are served by their engine")
		return
	}
	if _, split := n.SplitRange(); split {
		s.writeError(w, http.StatusNotImplemented, "time ranges are served by a seeking engine")
		return
	}

	ctx := r.Context()
	release := s.daemon.tree.Realtime().Acquire()
	defer release()

	if err := n.Resolve(ctx); err != nil {
		s.writeServiceError(ctx, w, err)
		return
	}
	body, err := n.Open(ctx)
	if err != nil {
		s.writeServiceError(ctx, w, err)
		return
	}
	defer body.Close()

	md := n.Metadata()
	contentType := media.MimeType(n.Name())
	if md != nil && md.MimeType != "" {
		contentType = md.MimeType
	}
	w.Header().Set("Content-Type", contentType)

	if r.Method == http.MethodGet {
		s.recordPlayback(ctx, n, playerTag(r))
	}

	if seeker, ok := body.(io.ReadSeeker); ok && n.Seekable() {
		http.ServeContent(w, r, n.Name(), n.LastModified(), seeker)
		return
	}
	if md != nil && md.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(md.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, body); err != nil {
		logging.WithContext(ctx, s.logger).Debug("stream ended early",
			logging.NodeID(n.ID()),
			logging.Error(err),
		)
	}
}

func (s *apiServer) handleScan(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		id, err := s.daemon.StartScan()
		if errors.Is(err, scan.ErrRunning) {
			s.writeError(w, http.StatusConflict, err.Error())
			return
		}
		if err != nil {
			s.writeServiceError(r.Context(), w, err)
			return
		}
		s.writeJSON(w, http.StatusAccepted, api.ScanStarted{ScanID: id})
	case http.MethodDelete:
		s.writeJSON(w, http.StatusOK, api.ScanStopped{Stopped: s.daemon.scans.Stop()})
	case http.MethodGet:
		s.writeJSON(w, http.StatusOK, api.FromScanStatus(s.daemon.scans.Status()))
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// lookup resolves the id query parameter. An absent id means the root when
// rootDefault is set.
func (s *apiServer) lookup(w http.ResponseWriter, r *http.Request, rootDefault bool) (*resource.Node, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("id"))
	if raw == "" {
		if !rootDefault {
			s.writeError(w, http.StatusBadRequest, "id is required")
			return nil, false
		}
		raw = "0"
	}
	n, err := s.daemon.tree.LookupWire(raw)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return nil, false
	}
	return n, true
}

func (s *apiServer) recordPlayback(ctx context.Context, n *resource.Node, player string) {
	err := s.daemon.RecordPlayback(n, player)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrNotFound):
		logging.WithContext(ctx, s.logger).Debug("node not recorded in history", logging.NodeID(n.ID()))
	default:
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "history update failed", "history_write_failed",
			logging.NodeID(n.ID()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "playback is not listed in History"),
			logging.String(logging.FieldErrorHint, "check paths.lists_dir permissions"),
		)
	}
}

// playerTag names the client for history entries.
func playerTag(r *http.Request) string {
	tag := strings.TrimSpace(r.URL.Query().Get("player"))
	return strings.Map(func(r rune) rune {
		if r == ';' || r < ' ' {
			return -1
		}
		return r
	}, tag)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConfiguration):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *apiServer) writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.WithContext(ctx, s.logger).Error("api request failed", logging.Error(err))
	}
	s.writeError(w, status, err.Error())
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}
