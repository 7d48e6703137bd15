package live

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/PabloGalante/ai-accountant/internal/app/conversation"
	"github.com/PabloGalante/ai-accountant/internal/domain"
)

const maxFrameBytes = 64 << 10

// Config tunes the live channel.
type Config struct {
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	AllowedOrigins []string // empty allows any origin
}

// Hub owns the bridges of every live assistant.
type Hub struct {
	cfg      Config
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	bridges map[domain.AssistantID]*Bridge
}

func NewHub(cfg Config) *Hub {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 20 * time.Second
	}

	h := &Hub{
		cfg:     cfg,
		bridges: make(map[domain.AssistantID]*Bridge),
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// ControllerFactory builds controllers whose speech engines are live bridges.
// base supplies everything but the speech ports.
func (h *Hub) ControllerFactory(base conversation.Deps, opts conversation.Options) conversation.Factory {
	return func(id domain.AssistantID, userID domain.UserID) (*conversation.Controller, error) {
		b := NewBridge(id)
		deps := base
		deps.Capture = b
		deps.Output = b

		ctrl := conversation.NewController(id, userID, deps, opts)
		b.Bind(ctrl)

		h.mu.Lock()
		h.bridges[id] = b
		h.mu.Unlock()

		ctrl.OnClose(func() { h.remove(id) })
		return ctrl, nil
	}
}

func (h *Hub) Bridge(id domain.AssistantID) (*Bridge, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	b, ok := h.bridges[id]
	if !ok {
		return nil, domain.ErrAssistantNotFound
	}
	return b, nil
}

func (h *Hub) remove(id domain.AssistantID) {
	h.mu.Lock()
	b, ok := h.bridges[id]
	delete(h.bridges, id)
	h.mu.Unlock()

	if !ok {
		return
	}
	b.mu.Lock()
	cl := b.client
	b.mu.Unlock()
	if cl != nil {
		cl.close()
	}
}

// Serve upgrades the request and runs the live channel of assistant id until
// the browser disconnects or the assistant is removed.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, id domain.AssistantID) error {
	b, err := h.Bridge(id)
	if err != nil {
		return err
	}
	ctrl := b.controller()
	if ctrl == nil {
		return errNoController
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		return nil
	}

	ctx := context.WithoutCancel(r.Context())
	log := b.logger(ctx)

	cl := newClient(conn)
	b.attach(cl)
	unsubscribe := ctrl.Subscribe(func(s conversation.Snapshot) {
		if !cl.enqueue(snapshotFrame{Type: TypeSnapshot, Snapshot: s}) {
			log.Warn("live snapshot dropped", "version", s.Version)
		}
	})
	defer func() {
		unsubscribe()
		b.detach(cl)
		cl.close()
	}()

	go func() {
		if err := cl.writeLoop(h.cfg.WriteTimeout, h.cfg.PingInterval); err != nil {
			log.Info("live write loop stopped", "err", err)
		}
	}()

	conn.SetReadLimit(maxFrameBytes)
	_ = conn.SetReadDeadline(time.Now().Add(2 * h.cfg.PingInterval))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * h.cfg.PingInterval))
	})

	cl.enqueue(snapshotFrame{Type: TypeSnapshot, Snapshot: ctrl.Snapshot()})
	log.Info("live client attached")

	for {
		var f ClientFrame
		if err := conn.ReadJSON(&f); err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) || errors.Is(err, websocket.ErrCloseSent) {
				log.Info("live client detached")
			} else {
				log.Info("live read failed", "err", err)
			}
			return nil
		}
		_ = conn.SetReadDeadline(time.Now().Add(2 * h.cfg.PingInterval))

		if err := b.handle(ctx, cl, f); err != nil {
			log.Info("live frame rejected", "type", f.Type, "err", err)
			cl.enqueue(errorFrame{Type: TypeError, Message: err.Error()})
		}
	}
}
