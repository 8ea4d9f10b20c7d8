package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fadedpez/vaultspin/internal/logging"
	"github.com/fadedpez/vaultspin/internal/types"
	"github.com/fadedpez/vaultspin/pkg/auth"
	"github.com/fadedpez/vaultspin/pkg/catalog"
	"github.com/fadedpez/vaultspin/pkg/entities"
	"github.com/fadedpez/vaultspin/pkg/services/engine"
	ledgerSvc "github.com/fadedpez/vaultspin/pkg/services/ledger"
)

// CollectionReader is the read side of ownership storage the API exposes
type CollectionReader interface {
	ListOwned(ctx context.Context, userID string, limit int) ([]*entities.OwnedCard, error)
}

// DrawService performs one authoritative draw for remote clients
type DrawService interface {
	Resolve(pack *entities.Pack, mode entities.OpenMode) (*entities.DrawResult, error)
}

// Handler exposes the pack-opening engine over HTTP
type Handler struct {
	engine     *engine.Engine
	catalog    *catalog.Catalog
	ledger     ledgerSvc.LedgerService
	collection CollectionReader
	draws      DrawService
	auth       auth.Service
	logger     *logging.Logger
}

// NewHandler creates the API handler
func NewHandler(
	eng *engine.Engine,
	cat *catalog.Catalog,
	ledger ledgerSvc.LedgerService,
	collection CollectionReader,
	draws DrawService,
	authSvc auth.Service,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default
	}
	return &Handler{
		engine:     eng,
		catalog:    cat,
		ledger:     ledger,
		collection: collection,
		draws:      draws,
		auth:       authSvc,
		logger:     logger,
	}
}

// Register binds the routes to the echo instance
func (h *Handler) Register(e *echo.Echo) {
	e.Use(RequestIDMiddleware())
	e.Use(LoggingMiddleware(h.logger))

	e.GET("/healthz", h.Healthz)
	e.GET("/v1/packs", h.ListPacks)
	e.GET("/v1/leaderboard", h.Leaderboard)
	e.POST("/v1/draw", h.Draw)

	authed := e.Group("", AuthMiddleware(h.auth))
	authed.POST("/v1/open", h.Open)
	authed.POST("/v1/open/skip", h.SkipSpin)
	authed.POST("/v1/open/close", h.CloseResult)
	authed.GET("/v1/state", h.State)
	authed.GET("/v1/points", h.Points)
	authed.GET("/v1/collection", h.Collection)
}

func (h *Handler) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// ListPacks returns the catalog in display order
func (h *Handler) ListPacks(c echo.Context) error {
	keys := h.catalog.Keys()
	packs := make([]PackResponse, 0, len(keys))
	for _, key := range keys {
		pack, err := h.catalog.GetPack(key)
		if err != nil {
			continue
		}
		packs = append(packs, PackResponse{
			Key:        pack.Key,
			Name:       pack.Name,
			Icon:       pack.Icon,
			Theme:      pack.Theme,
			PriceCents: pack.PriceCents,
			CardCount:  len(pack.Cards),
		})
	}
	return c.JSON(http.StatusOK, packs)
}

// Open runs one pack open end to end and responds with the receipt once the
// reveal has settled
func (h *Handler) Open(c echo.Context) error {
	session, ok := sessionFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
	}

	var req OpenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "malformed request body"})
	}

	mode := entities.OpenMode(req.Mode)
	if req.Mode == "" {
		mode = entities.ModePaid
	}
	if !mode.IsValid() {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "mode must be \"paid\" or \"free\""})
	}
	if req.PackKey == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "packKey is required"})
	}

	receipt, err := h.engine.OpenPack(c.Request().Context(), session.UserID, req.PackKey, mode)
	if err != nil {
		return h.mapEngineError(c, err)
	}

	return c.JSON(http.StatusOK, toReceiptResponse(receipt))
}

// SkipSpin short-circuits the current spin
func (h *Handler) SkipSpin(c echo.Context) error {
	return c.JSON(http.StatusOK, SkipResponse{Skipped: h.engine.SkipSpin()})
}

// CloseResult dismisses the result on display
func (h *Handler) CloseResult(c echo.Context) error {
	if err := h.engine.CloseResult(); err != nil {
		return h.mapEngineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// State reports the engine lifecycle state
func (h *Handler) State(c echo.Context) error {
	resp := StateResponse{State: string(h.engine.State())}
	if receipt, ok := h.engine.Result(); ok {
		r := toReceiptResponse(receipt)
		resp.Result = &r
	}
	return c.JSON(http.StatusOK, resp)
}

// Points returns the session's current-month balance for a scope
func (h *Handler) Points(c echo.Context) error {
	session, ok := sessionFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
	}

	scope := c.QueryParam("scope")
	if scope == "" {
		scope = entities.ScopeAll
	}

	balance, err := h.ledger.Balance(c.Request().Context(), session.UserID, scope)
	if err != nil {
		h.logger.LogError(err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "could not read balance"})
	}

	return c.JSON(http.StatusOK, PointsResponse{Scope: scope, Balance: balance})
}

// Leaderboard returns the top point earners for a scope this month
func (h *Handler) Leaderboard(c echo.Context) error {
	scope := c.QueryParam("scope")
	if scope == "" {
		scope = entities.ScopeAll
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
		}
		limit = parsed
	}

	rows, err := h.ledger.Leaderboard(c.Request().Context(), scope, time.Time{}, limit)
	if err != nil {
		h.logger.LogError(err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "could not read leaderboard"})
	}

	resp := LeaderboardResponse{Scope: scope, Rows: make([]LeaderboardRowResponse, 0, len(rows))}
	for _, row := range rows {
		resp.Rows = append(resp.Rows, LeaderboardRowResponse{
			Rank:   row.Rank,
			UserID: row.UserID,
			Points: row.Points,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// Collection returns the session's most recent ownership records
func (h *Handler) Collection(c echo.Context) error {
	session, ok := sessionFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
	}

	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be between 1 and 500"})
		}
		limit = parsed
	}

	records, err := h.collection.ListOwned(c.Request().Context(), session.UserID, limit)
	if err != nil {
		h.logger.LogError(err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "could not read collection"})
	}

	resp := make([]OwnedCardResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, OwnedCardResponse{
			TokenID:  rec.TokenID,
			PackKey:  rec.PackKey,
			CardID:   rec.CardID,
			CardName: rec.CardName,
			ImageRef: rec.ImageRef,
			Rarity:   string(rec.Rarity),
			Value:    rec.Value,
			OpenedAt: rec.OpenedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// Draw is the authoritative draw endpoint remote engines call when their
// draw authority is configured to this server
func (h *Handler) Draw(c echo.Context) error {
	var req DrawRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "malformed request body"})
	}

	mode := entities.OpenMode(req.Mode)
	if !mode.IsValid() {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "mode must be \"paid\" or \"free\""})
	}

	pack, err := h.catalog.GetPack(req.PackKey)
	if err != nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "pack not found", Code: string(types.ErrPackNotFound)})
	}

	draw, err := h.draws.Resolve(pack, mode)
	if err != nil {
		h.logger.LogError(err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "draw failed", Code: string(types.ErrResolutionFailed)})
	}

	return c.JSON(http.StatusOK, DrawResponse{
		CardID:  draw.Card.ID,
		PackKey: draw.PackKey,
		Rarity:  string(draw.Rarity),
		Value:   draw.Value,
		Mode:    string(draw.Mode),
	})
}

// mapEngineError translates engine error codes to HTTP statuses
func (h *Handler) mapEngineError(c echo.Context, err error) error {
	var engineErr *types.EngineError
	if !types.As(err, &engineErr) {
		h.logger.LogError(err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}

	resp := ErrorResponse{Error: engineErr.Message, Code: string(engineErr.Code)}
	switch engineErr.Code {
	case types.ErrEngineBusy, types.ErrInvalidState:
		return c.JSON(http.StatusConflict, resp)
	case types.ErrInsufficientBalance:
		return c.JSON(http.StatusPaymentRequired, resp)
	case types.ErrPackNotFound:
		return c.JSON(http.StatusNotFound, resp)
	case types.ErrCatalogMismatch, types.ErrNetworkError:
		h.logger.LogError(err)
		return c.JSON(http.StatusBadGateway, resp)
	default:
		h.logger.LogError(err)
		return c.JSON(http.StatusInternalServerError, resp)
	}
}

func toReceiptResponse(receipt *engine.Receipt) ReceiptResponse {
	return ReceiptResponse{
		Card: CardResponse{
			ID:       receipt.Draw.Card.ID,
			Name:     receipt.Draw.Card.Name,
			ImageRef: receipt.Draw.Card.ImageRef,
			Rarity:   string(receipt.Draw.Rarity),
			Value:    receipt.Draw.Value,
		},
		PackKey:  receipt.Draw.PackKey,
		Mode:     string(receipt.Draw.Mode),
		TokenID:  receipt.TokenID,
		RecordID: receipt.RecordID,
		Warnings: receipt.Warnings,
	}
}
