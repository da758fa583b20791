package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jglee22/OpenHorizons-sub001/internal/antispam"
	"github.com/jglee22/OpenHorizons-sub001/internal/command"
	"github.com/jglee22/OpenHorizons-sub001/internal/config"
	"github.com/jglee22/OpenHorizons-sub001/internal/logger"
	"github.com/jglee22/OpenHorizons-sub001/internal/namefilter"
)

// Server accepts telnet and WebSocket connections and binds each one to a
// player's quest system through the session manager.
type Server struct {
	cfg      *config.ServiceConfig
	sessions *SessionManager

	listener   net.Listener
	httpServer *http.Server
	clients    map[Client]struct{}
	closing    bool
	mu         sync.Mutex
	wg         sync.WaitGroup

	shutdown     chan struct{}
	shutdownOnce sync.Once
	StartTime    time.Time

	connLimiter *ConnLimiter
	rateLimiter *KeyRateLimiter
	nameFilter  *namefilter.NameFilter
}

func NewServer(cfg *config.ServiceConfig, sessions *SessionManager) *Server {
	return &Server{
		cfg:         cfg,
		sessions:    sessions,
		clients:     make(map[Client]struct{}),
		shutdown:    make(chan struct{}),
		StartTime:   time.Now(),
		connLimiter: NewConnLimiter(cfg.Connections),
		rateLimiter: NewKeyRateLimiter(cfg.RateLimit),
		nameFilter:  namefilter.New(cfg.Players),
	}
}

// Sessions returns the session manager.
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// GetUptime returns how long the server has been running.
func (s *Server) GetUptime() time.Duration {
	return time.Since(s.StartTime)
}

// Listen binds the telnet listener.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.cfg.Listen.Telnet)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	logger.Info("Server listening", "address", listener.Addr().String())
	return nil
}

// Addr returns the bound telnet address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts telnet connections until Shutdown.
func (s *Server) Serve() error {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()
	if listener == nil {
		return errors.New("server is not listening")
	}

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			logger.Error("Error accepting connection", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// Start binds the telnet listener and serves it until Shutdown.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

func (s *Server) handleConnection(conn net.Conn) {
	remoteAddr := conn.RemoteAddr().String()
	ip := extractIP(remoteAddr)

	slot, err := s.connLimiter.Acquire(ip)
	if err != nil {
		logger.Warning("Connection rejected - limit exceeded",
			"remote_addr", remoteAddr,
			"ip", ip,
			"reason", err)
		conn.Write([]byte(limitMessage(err) + "\r\n"))
		conn.Close()
		return
	}

	defer func() {
		slot.Release()
		conn.Close()
	}()

	s.handleClient(NewTelnetClient(conn))
}

// trackClient registers client for Shutdown. It fails once shutdown began.
func (s *Server) trackClient(client Client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.clients[client] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrackClient(client Client) {
	s.mu.Lock()
	delete(s.clients, client)
	s.mu.Unlock()
	s.wg.Done()
}

// handleClient is the shared client handling logic for both telnet and WebSocket.
func (s *Server) handleClient(client Client) {
	if !s.trackClient(client) {
		client.WriteLine("Server is shutting down.")
		return
	}
	defer s.untrackClient(client)

	logger.Info("Client connected", "remote_addr", client.RemoteAddr())

	playerID, err := s.handleHello(client)
	if err != nil {
		logger.Info("Handshake failed", "remote_addr", client.RemoteAddr(), "error", err)
		return
	}

	session, err := s.sessions.Attach(context.Background(), playerID, client)
	if err != nil {
		logger.Error("Failed to attach session", "player", playerID, "error", err)
		client.WriteLine("Failed to load quest progress. Please try again.")
		return
	}
	defer func() {
		s.sessions.Detach(session)
		logger.Info("Client disconnected", "player", playerID, "remote_addr", client.RemoteAddr())
	}()

	client.WriteLine(fmt.Sprintf("Welcome, %s. Type 'help' for commands.", playerID))

	throttle := antispam.NewTracker(s.cfg.Throttle)
	for {
		line, err := client.ReadLine()
		if err != nil {
			return
		}

		if check := throttle.Check(); !check.Allowed {
			if check.Disconnect {
				logger.Warning("Disconnecting flooding client",
					"player", playerID,
					"remote_addr", client.RemoteAddr())
				client.WriteLine("Too many commands. Disconnecting.")
				return
			}
			client.WriteLine(check.Reason)
			continue
		}

		if reply := command.ParseCommand(line).Execute(session); reply != "" {
			if err := client.WriteLine(reply); err != nil {
				return
			}
		}
		if session.Quitting() {
			return
		}
	}
}

// Handler returns the HTTP handler serving WebSocket upgrades on the configured path.
func (s *Server) Handler() http.Handler {
	path := s.cfg.WebSocket.Path
	if path == "" {
		path = "/ws"
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, s.handleWebSocketUpgrade)
	return mux
}

// StartWebSocket serves WebSocket connections until Shutdown.
func (s *Server) StartWebSocket() error {
	httpServer := &http.Server{
		Addr:              s.cfg.Listen.WebSocket,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return nil
	}
	s.httpServer = httpServer
	s.mu.Unlock()

	logger.Info("WebSocket server listening", "address", httpServer.Addr, "path", s.cfg.WebSocket.Path)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleWebSocketUpgrade upgrades an HTTP connection to WebSocket.
func (s *Server) handleWebSocketUpgrade(w http.ResponseWriter, r *http.Request) {
	// Get the real client IP (supports X-Forwarded-For from reverse proxies)
	clientIP := getRealIP(r)

	slot, err := s.connLimiter.Acquire(clientIP)
	if err != nil {
		logger.Warning("WebSocket connection rejected - limit exceeded",
			"remote_addr", r.RemoteAddr,
			"client_ip", clientIP,
			"reason", err)
		http.Error(w, limitMessage(err), http.StatusTooManyRequests)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := s.cfg.WebSocket.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("WebSocket connection rejected - origin not allowed",
					"origin", origin,
					"host", r.Host,
					"remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", "error", err)
		slot.Release()
		return
	}
	if s.cfg.WebSocket.MaxMessageSize > 0 {
		wsConn.SetReadLimit(s.cfg.WebSocket.MaxMessageSize)
	}

	go s.handleWebSocketConnection(wsConn, slot)
}

func (s *Server) handleWebSocketConnection(wsConn *websocket.Conn, slot *ConnSlot) {
	defer func() {
		slot.Release()
		wsConn.Close()
	}()

	s.handleClient(NewWebSocketClient(wsConn))
}

// Shutdown stops the listeners, disconnects every client and saves every
// player still attached. Calls after the first return nil.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		close(s.shutdown)

		s.mu.Lock()
		s.closing = true
		listener := s.listener
		httpServer := s.httpServer
		clients := make([]Client, 0, len(s.clients))
		for client := range s.clients {
			clients = append(clients, client)
		}
		s.mu.Unlock()

		var errs []error
		if listener != nil {
			listener.Close()
		}
		if httpServer != nil {
			if shutdownErr := httpServer.Shutdown(ctx); shutdownErr != nil {
				errs = append(errs, shutdownErr)
			}
		}

		s.rateLimiter.Stop()

		for _, client := range clients {
			client.WriteLine("Server is shutting down.")
			client.Close()
		}

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			logger.Warning("Timed out waiting for clients to disconnect")
			errs = append(errs, ctx.Err())
		}

		// Detach saves players as their connections close; this catches the rest
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), SaveTimeout)
		if saveErr := s.sessions.SaveAll(saveCtx); saveErr != nil {
			errs = append(errs, saveErr)
		}
		cancel()

		err = errors.Join(errs...)
		logger.Info("Server shutdown complete", "clients", len(clients))
	})
	return err
}
