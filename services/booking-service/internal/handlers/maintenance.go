package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/storage"
)

const maintenanceTask = "maintenance"

// PurgeFunc deletes rows older than before and reports how many went.
type PurgeFunc func(ctx context.Context, before time.Time) (int64, error)

type purgeTask struct {
	name      string
	retention time.Duration
	fn        PurgeFunc
}

// MaintenanceHandler keeps hosted databases from idling out. An external pinger calls it; the
// routine only runs once per interval.
type MaintenanceHandler struct {
	store    MaintenanceStore
	interval time.Duration
	purges   []purgeTask
	logger   *slog.Logger
	now      func() time.Time
}

func NewMaintenanceHandler(store MaintenanceStore, interval time.Duration, logger *slog.Logger) *MaintenanceHandler {
	if interval <= 0 {
		interval = 6 * 24 * time.Hour
	}
	return &MaintenanceHandler{store: store, interval: interval, logger: logger, now: time.Now}
}

// AddPurge registers a cleanup that runs with every maintenance pass.
func (h *MaintenanceHandler) AddPurge(name string, retention time.Duration, fn PurgeFunc) *MaintenanceHandler {
	h.purges = append(h.purges, purgeTask{name: name, retention: retention, fn: fn})
	return h
}

func (h *MaintenanceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, http.MethodGet, http.MethodHead)
		return
	}
	ctx := r.Context()

	last, ok, err := h.store.LastCompleted(ctx, maintenanceTask)
	if err != nil {
		h.logger.Error("read maintenance log failed", "err", err)
		writeError(w, http.StatusInternalServerError, "maintenance failed")
		return
	}
	if ok && h.now().Sub(last) < h.interval {
		writeJSON(w, http.StatusOK, maintenanceResponse{Success: true, Status: "not_needed", LastRun: formatTime(last)})
		return
	}

	detail, err := h.run(ctx)
	if err != nil {
		h.logger.Error("maintenance failed", "err", err)
		if recErr := h.store.Record(ctx, maintenanceTask, storage.MaintenanceFailed, err.Error()); recErr != nil {
			h.logger.Error("record maintenance failure failed", "err", recErr)
		}
		writeError(w, http.StatusInternalServerError, "maintenance failed")
		return
	}
	if err := h.store.Record(ctx, maintenanceTask, storage.MaintenanceCompleted, detail); err != nil {
		h.logger.Error("record maintenance failed", "err", err)
		writeError(w, http.StatusInternalServerError, "maintenance failed")
		return
	}
	h.logger.Info("maintenance completed", "detail", detail)
	writeJSON(w, http.StatusOK, maintenanceResponse{Success: true, Status: "completed", LastRun: formatTime(h.now())})
}

func (h *MaintenanceHandler) run(ctx context.Context) (string, error) {
	if err := h.store.Touch(ctx); err != nil {
		return "", err
	}
	parts := make([]string, 0, len(h.purges))
	for _, p := range h.purges {
		n, err := p.fn(ctx, h.now().Add(-p.retention))
		if err != nil {
			return "", fmt.Errorf("purge %s: %w", p.name, err)
		}
		parts = append(parts, fmt.Sprintf("%s=%d", p.name, n))
	}
	return strings.Join(parts, " "), nil
}
