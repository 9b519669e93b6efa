package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/yahtzee-backend/internal/hub"
	"github.com/DoyleJ11/yahtzee-backend/internal/types"
)

const (
	outboxSize   = 32
	leaveTimeout = 2 * time.Second
)

type Options struct {
	// OriginPatterns allows cross-origin handshakes from matching hosts.
	OriginPatterns []string
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	Logger         *zap.Logger
}

func (o *Options) defaults() {
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 5 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

func Handler(h *hub.Hub, opts Options) http.HandlerFunc {
	opts.defaults()
	log := opts.Logger.Named("ws")

	return func(w http.ResponseWriter, r *http.Request) {
		wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		c := &conn{
			id:     uuid.NewString(),
			hub:    h,
			ws:     wsConn,
			opts:   opts,
			cancel: cancel,
		}
		c.log = log.With(zap.String("client_id", c.id))
		c.log.Debug("connection opened", zap.String("remote_addr", r.RemoteAddr))

		go c.heartbeat(ctx)
		c.readLoop(ctx)
		c.unbind()

		_ = wsConn.Close(websocket.StatusNormalClosure, "bye")
		c.log.Debug("connection closed")
	}
}

// heartbeat pings the peer; a failed ping ends the connection.
func (c *conn) heartbeat(ctx context.Context) {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, c.opts.WriteTimeout)
			err := c.ws.Ping(pingCtx)
			cancel()
			if err != nil {
				c.log.Debug("ping failed", zap.Error(err))
				c.cancel()
				return
			}
		}
	}
}

func (c *conn) readLoop(ctx context.Context) {
	for {
		_, data, err := c.ws.Read(ctx)
		if err != nil {
			// Treat clean close/going-away as normal:
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if ctx.Err() == nil {
					c.log.Debug("read failed", zap.Error(err))
				}
			}
			return
		}
		c.handle(ctx, data)
	}
}

// writer forwards lobby frames to the socket until the lobby closes the
// outbox. A closed outbox means the binding ended on the lobby side, so the
// socket is closed too.
func (c *conn) writer(outbox <-chan types.ServerMessage, done chan<- struct{}) {
	defer close(done)
	for m := range outbox {
		if err := c.write(context.Background(), m); err != nil {
			c.log.Debug("write failed", zap.Error(err))
			c.cancel()
			for range outbox {
			}
			return
		}
	}
	c.cancel()
}
