package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/perpdesk/perpdesk/internal/domain"
	"github.com/perpdesk/perpdesk/internal/domain/models"
	"github.com/perpdesk/perpdesk/pkg/stream"
)

// Flow is the part of a signing flow the relay exposes
type Flow interface {
	ID() string
	Snapshot() models.SignFlowState
	Subscribe() *stream.Subscription[models.SignFlowState]
	Retry(ctx context.Context) error
}

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// any origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server relays a signing flow over HTTP: snapshot, retry, a websocket of
// every emission and the metrics registry
type Server struct {
	flow    Flow
	metrics http.Handler
	log     *slog.Logger
	engine  *gin.Engine

	// retries run under this context, not the request's
	runCtx context.Context
}

// NewServer builds the routes. metrics may be nil.
func NewServer(runCtx context.Context, flow Flow, metrics http.Handler, log *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		flow:    flow,
		metrics: metrics,
		log:     log.With("component", "relay"),
		engine:  gin.New(),
		runCtx:  runCtx,
	}
	s.engine.Use(gin.Recovery(), s.requestLog)

	api := s.engine.Group("/api")
	api.GET("/flow", s.getFlow)
	api.POST("/flow/retry", s.retryFlow)
	s.engine.GET("/ws", s.serveWs)
	if metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(metrics))
	}
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Serve listens on addr until ctx is cancelled. ready, if set, receives the
// bound address once the listener is open.
func (s *Server) Serve(ctx context.Context, addr string, ready func(net.Addr)) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if ready != nil {
		ready(lis.Addr())
	}

	srv := &http.Server{Handler: s.engine, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() {
		s.log.Info("relay listening", "addr", lis.Addr().String(), "flow", s.flow.ID())
		errc <- srv.Serve(lis)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("relay shutdown: %w", err)
	}
	return nil
}

func (s *Server) requestLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.log.Debug("request",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"status", c.Writer.Status(),
		"duration", time.Since(start),
	)
}

func (s *Server) getFlow(c *gin.Context) {
	c.JSON(http.StatusOK, s.flow.Snapshot())
}

func (s *Server) retryFlow(c *gin.Context) {
	err := s.flow.Retry(s.runCtx)
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, s.flow.Snapshot())
	case errors.Is(err, domain.ErrFlowRunning), errors.Is(err, domain.ErrFlowNotHalted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrFlowAborted):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// serveWs sends the current snapshot, then every emission until the flow's
// stream closes or the client goes away
func (s *Server) serveWs(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub := s.flow.Subscribe()
	defer sub.Close()

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := s.write(conn, s.flow.Snapshot()); err != nil {
		return
	}
	for {
		select {
		case <-gone:
			return
		case state, ok := <-sub.C():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "flow ended"),
					time.Now().Add(writeWait))
				return
			}
			if err := s.write(conn, state); err != nil {
				s.log.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}

func (s *Server) write(conn *websocket.Conn, state models.SignFlowState) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(state)
}
