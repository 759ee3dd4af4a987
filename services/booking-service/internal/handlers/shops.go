package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/storage"
)

const maxSlotMinutes = 8 * 60

type ShopHandler struct {
	shops  ShopStore
	logger *slog.Logger
}

func NewShopHandler(shops ShopStore, logger *slog.Logger) *ShopHandler {
	return &ShopHandler{shops: shops, logger: logger}
}

type openingWindowRequest struct {
	Weekday     *int   `json:"weekday"`
	Open        string `json:"open"`
	Close       string `json:"close"`
	SlotMinutes int    `json:"slot_minutes"`
}

type createShopRequest struct {
	Name        string                 `json:"name"`
	Owner       string                 `json:"owner"`
	Email       string                 `json:"email"`
	Phone       string                 `json:"phone"`
	Address     string                 `json:"address"`
	SlotMinutes int                    `json:"slot_minutes"`
	Timezone    string                 `json:"timezone"`
	Hours       []openingWindowRequest `json:"hours"`
}

// Collection serves /api/shops: GET lists shops by name, POST registers one.
func (h *ShopHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (h *ShopHandler) list(w http.ResponseWriter, r *http.Request) {
	shops, err := h.shops.List(r.Context())
	if err != nil {
		h.logger.Error("list shops failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list shops")
		return
	}
	items := make([]shopSummary, 0, len(shops))
	for _, s := range shops {
		items = append(items, toShopSummary(s))
	}
	writeJSON(w, http.StatusOK, listShopsResponse{Success: true, Shops: items})
}

// Get serves /api/shops/{id}: the shop plus its opening hours.
func (h *ShopHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	shop, ok := h.loadShop(w, r, r.PathValue("id"))
	if !ok {
		return
	}
	windows, err := h.shops.ListOpeningWindows(r.Context(), shop.ID)
	if err != nil {
		h.logger.Error("list opening windows failed", "err", err, "shop_id", shop.ID)
		writeError(w, http.StatusInternalServerError, "failed to load shop")
		return
	}
	writeJSON(w, http.StatusOK, shopResponse{Success: true, Shop: toShopDetail(shop), Hours: toWindowItems(windows)})
}

func (h *ShopHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createShopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	shop, windows, err := req.validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.shops.Create(r.Context(), shop, windows)
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "email already in use")
			return
		}
		h.logger.Error("create shop failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to register shop")
		return
	}
	h.logger.Info("shop registered", "shop_id", created.ID, "windows", len(windows))
	writeJSON(w, http.StatusCreated, shopResponse{Success: true, Shop: toShopDetail(created), Hours: toWindowItems(windows)})
}

func (req createShopRequest) validate() (model.Shop, []model.OpeningWindow, error) {
	shop := model.Shop{
		Name:        strings.TrimSpace(req.Name),
		Owner:       strings.TrimSpace(req.Owner),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:       strings.TrimSpace(req.Phone),
		Address:     strings.TrimSpace(req.Address),
		SlotMinutes: req.SlotMinutes,
		Timezone:    strings.TrimSpace(req.Timezone),
	}
	if shop.Name == "" || shop.Email == "" {
		return model.Shop{}, nil, errors.New("name and email are required")
	}
	if _, err := mail.ParseAddress(shop.Email); err != nil {
		return model.Shop{}, nil, errors.New("invalid email")
	}
	if shop.SlotMinutes == 0 {
		shop.SlotMinutes = availability.DefaultSlotMinutes
	}
	if shop.SlotMinutes < 0 || shop.SlotMinutes > maxSlotMinutes {
		return model.Shop{}, nil, errors.New("slot_minutes must be between 1 and 480")
	}
	if shop.Timezone == "" {
		shop.Timezone = model.DefaultTimezone
	}
	if _, err := time.LoadLocation(shop.Timezone); err != nil {
		return model.Shop{}, nil, errors.New("invalid timezone")
	}

	windows := make([]model.OpeningWindow, 0, len(req.Hours))
	for _, hr := range req.Hours {
		if hr.Weekday == nil || *hr.Weekday < 0 || *hr.Weekday > 6 {
			return model.Shop{}, nil, errors.New("hours.weekday must be 0 (Sunday) to 6")
		}
		open, err := availability.ParseClock(hr.Open)
		if err != nil {
			return model.Shop{}, nil, errors.New("hours.open must be HH:MM")
		}
		closeAt, err := availability.ParseClock(hr.Close)
		if err != nil {
			return model.Shop{}, nil, errors.New("hours.close must be HH:MM")
		}
		if closeAt <= open {
			return model.Shop{}, nil, errors.New("hours.close must be after hours.open")
		}
		if hr.SlotMinutes < 0 || hr.SlotMinutes > maxSlotMinutes {
			return model.Shop{}, nil, errors.New("hours.slot_minutes must be between 1 and 480")
		}
		windows = append(windows, model.OpeningWindow{
			Weekday:     time.Weekday(*hr.Weekday),
			OpenMinute:  int(open),
			CloseMinute: int(closeAt),
			SlotMinutes: hr.SlotMinutes,
		})
	}
	if err := checkOverlaps(windows); err != nil {
		return model.Shop{}, nil, err
	}
	return shop, windows, nil
}

// checkOverlaps rejects two windows on the same weekday that share any minute. Touching windows
// (one closes when the next opens) are fine.
func checkOverlaps(windows []model.OpeningWindow) error {
	sorted := slices.Clone(windows)
	slices.SortFunc(sorted, func(a, b model.OpeningWindow) int {
		if a.Weekday != b.Weekday {
			return int(a.Weekday) - int(b.Weekday)
		}
		return a.OpenMinute - b.OpenMinute
	})
	for i := 1; i < len(sorted); i++ {
		prev, next := sorted[i-1], sorted[i]
		if prev.Weekday == next.Weekday && next.OpenMinute < prev.CloseMinute {
			return errors.New("hours overlap on the same weekday")
		}
	}
	return nil
}

// loadShop writes 404 for unknown or malformed ids.
func (h *ShopHandler) loadShop(w http.ResponseWriter, r *http.Request, id string) (model.Shop, bool) {
	return loadShop(r.Context(), w, h.shops, h.logger, id)
}

func loadShop(ctx context.Context, w http.ResponseWriter, shops ShopStore, logger *slog.Logger, id string) (model.Shop, bool) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusNotFound, "shop not found")
		return model.Shop{}, false
	}
	shop, err := shops.Get(ctx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "shop not found")
			return model.Shop{}, false
		}
		logger.Error("load shop failed", "err", err, "shop_id", id)
		writeError(w, http.StatusInternalServerError, "failed to load shop")
		return model.Shop{}, false
	}
	return shop, true
}
