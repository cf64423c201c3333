package websocket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yegors/infotavla/internal/display"
	"github.com/yegors/infotavla/internal/source"
	"github.com/yegors/infotavla/pkg/logger"
	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when refresh requests come in too fast
var ErrRateLimited = errors.New("refresh rate limited")

// Refresher runs one pipeline on demand
type Refresher interface {
	Tick(ctx context.Context, name source.Name) error
}

// RegionMessage wraps a changed region
func RegionMessage(r display.Region) *Message {
	return &Message{Type: MessageTypeRegionUpdate, Data: map[string]any{"region": r}}
}

// SnapshotMessage wraps every region
func SnapshotMessage(regions []display.Region) *Message {
	return &Message{Type: MessageTypeSnapshot, Data: map[string]any{"regions": regions}}
}

// RefreshHandler handles refresh requests sent by dashboard pages
type RefreshHandler struct {
	refresher Refresher
	limiter   *rate.Limiter
	timeout   time.Duration
	logger    *logger.Logger
}

// NewRefreshHandler creates a handler sharing the given limiter with the HTTP API
func NewRefreshHandler(refresher Refresher, limiter *rate.Limiter, timeout time.Duration, log *logger.Logger) *RefreshHandler {
	return &RefreshHandler{
		refresher: refresher,
		limiter:   limiter,
		timeout:   timeout,
		logger:    log.Named("ws-refresh"),
	}
}

// HandleMessage implements MessageHandler
func (h *RefreshHandler) HandleMessage(client *Client, messageType string, data map[string]any) error {
	if messageType != MessageTypeRefresh {
		return fmt.Errorf("unsupported message type: %q", messageType)
	}

	raw, _ := data["source"].(string)
	name, ok := source.ParseName(raw)
	if !ok {
		return fmt.Errorf("unknown source: %q", raw)
	}
	if !h.limiter.Allow() {
		return ErrRateLimited
	}

	// The reply arrives through the normal region_update broadcast
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()
		if err := h.refresher.Tick(ctx, name); err != nil {
			h.logger.Warn("Requested refresh failed",
				logger.String("source", string(name)),
				logger.Error(err))
		}
	}()
	return nil
}
