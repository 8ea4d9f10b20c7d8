package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/fadedpez/vaultspin/pkg/auth"
	"github.com/fadedpez/vaultspin/pkg/catalog"
	"github.com/fadedpez/vaultspin/pkg/entities"
	collectionRepo "github.com/fadedpez/vaultspin/pkg/repositories/collection"
	ledgerRepo "github.com/fadedpez/vaultspin/pkg/repositories/ledger"
	"github.com/fadedpez/vaultspin/pkg/services/engine"
	ledgerSvc "github.com/fadedpez/vaultspin/pkg/services/ledger"
	mockLedger "github.com/fadedpez/vaultspin/pkg/services/ledger/mock"
	"github.com/fadedpez/vaultspin/pkg/services/reel"
	"github.com/fadedpez/vaultspin/pkg/services/resolver"
)

// fixedRNG keeps draws deterministic: every draw lands in the hidden pool
type fixedRNG struct{ v float64 }

func (f fixedRNG) Float64() float64 { return f.v }

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	cat, err := catalog.New([]*entities.Pack{
		{
			Key:        "PLANT",
			Name:       "Plant",
			Icon:       "leaf",
			PriceCents: 599,
			Cards: []*entities.Card{
				{ID: "paras", Name: "Paras", Rarity: entities.RarityHidden, Value: 50},
				{ID: "mystherbe", Name: "Mystherbe", Rarity: entities.RarityHidden, Value: 80},
				{ID: "florizarre", Name: "Florizarre", Rarity: entities.RarityLegendary, Value: 459900},
			},
		},
	})
	require.NoError(t, err)
	return cat
}

type apiFixture struct {
	e          *echo.Echo
	engine     *engine.Engine
	ledger     ledgerSvc.LedgerService
	collection *collectionRepo.MemoryRepository
}

// newAPIFixture wires a full handler over in-memory storage. A non-nil
// ledger overrides the real service, for endpoints tested against the mock.
func newAPIFixture(t *testing.T, ledgerOverride ledgerSvc.LedgerService) *apiFixture {
	t.Helper()

	cat := testCatalog(t)
	res, err := resolver.New(resolver.DefaultOdds(), fixedRNG{v: 0.5})
	require.NoError(t, err)

	store := collectionRepo.NewMemoryRepository()
	realLedger := ledgerSvc.NewService(ledgerRepo.NewMemoryRepository())

	animator := reel.NewAnimator(reel.Config{
		Layout:        reel.Layout{StepPx: 10, ViewportPx: 100},
		SpinDuration:  10 * time.Millisecond,
		SkipDuration:  2 * time.Millisecond,
		FrameInterval: 2 * time.Millisecond,
		TickMinGap:    time.Millisecond,
	}, nil, nil, nil)

	eng, err := engine.New(engine.DefaultConfig(), engine.Deps{
		Catalog:  cat,
		Resolver: res,
		Animator: animator,
		Ledger:   realLedger,
		Store:    store,
	})
	require.NoError(t, err)

	apiLedger := ledgerOverride
	if apiLedger == nil {
		apiLedger = realLedger
	}

	authSvc := auth.NewStaticService(map[string]string{"token-alice": "alice"}, false)
	handler := NewHandler(eng, cat, apiLedger, store, res, authSvc, nil)

	e := echo.New()
	handler.Register(e)

	return &apiFixture{e: e, engine: eng, ledger: apiLedger, collection: store}
}

func (f *apiFixture) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.request(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestListPacks(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.request(http.MethodGet, "/v1/packs", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var packs []PackResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &packs))
	require.Len(t, packs, 1)
	assert.Equal(t, "PLANT", packs[0].Key)
	assert.Equal(t, int64(599), packs[0].PriceCents)
	assert.Equal(t, 3, packs[0].CardCount)
}

func TestOpenRequiresAuth(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.request(http.MethodPost, "/v1/open", `{"packKey":"PLANT","mode":"paid"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOpenPaidReturnsReceipt(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.request(http.MethodPost, "/v1/open", `{"packKey":"PLANT","mode":"paid"}`, "token-alice")
	require.Equal(t, http.StatusOK, rec.Code)

	var receipt ReceiptResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &receipt))
	assert.Equal(t, "PLANT", receipt.PackKey)
	assert.Equal(t, "paid", receipt.Mode)
	assert.Equal(t, int64(1), receipt.TokenID)
	assert.NotEmpty(t, receipt.RecordID)
	assert.NotEmpty(t, receipt.Card.ID)

	// the engine now holds the result until dismissed
	stateRec := f.request(http.MethodGet, "/v1/state", "", "token-alice")
	require.Equal(t, http.StatusOK, stateRec.Code)
	var state StateResponse
	require.NoError(t, json.Unmarshal(stateRec.Body.Bytes(), &state))
	assert.Equal(t, string(entities.StateResult), state.State)
	require.NotNil(t, state.Result)
	assert.Equal(t, receipt.Card.ID, state.Result.Card.ID)

	closeRec := f.request(http.MethodPost, "/v1/open/close", "", "token-alice")
	assert.Equal(t, http.StatusNoContent, closeRec.Code)

	stateRec = f.request(http.MethodGet, "/v1/state", "", "token-alice")
	state = StateResponse{}
	require.NoError(t, json.Unmarshal(stateRec.Body.Bytes(), &state))
	assert.Equal(t, string(entities.StateIdle), state.State)
	assert.Nil(t, state.Result)
}

func TestOpenUnknownPack(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.request(http.MethodPost, "/v1/open", `{"packKey":"METAL","mode":"paid"}`, "token-alice")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "PACK_NOT_FOUND", resp.Code)
}

func TestOpenFreeWithoutPoints(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.request(http.MethodPost, "/v1/open", `{"packKey":"PLANT","mode":"free"}`, "token-alice")
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "INSUFFICIENT_BALANCE", resp.Code)
}

func TestOpenRejectsBadMode(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.request(http.MethodPost, "/v1/open", `{"packKey":"PLANT","mode":"loan"}`, "token-alice")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCloseWithoutResult(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.request(http.MethodPost, "/v1/open/close", "", "token-alice")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSkipWithNoSpin(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.request(http.MethodPost, "/v1/open/skip", "", "token-alice")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SkipResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Skipped)
}

func TestPointsUsesSessionAndScope(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := mockLedger.NewMockLedgerService(ctrl)
	ledger.EXPECT().
		Balance(gomock.Any(), "alice", "PLANT").
		Return(int64(1234), nil)

	f := newAPIFixture(t, ledger)

	rec := f.request(http.MethodGet, "/v1/points?scope=PLANT", "", "token-alice")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PointsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "PLANT", resp.Scope)
	assert.Equal(t, int64(1234), resp.Balance)
}

func TestLeaderboardDefaultsToGlobalScope(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := mockLedger.NewMockLedgerService(ctrl)
	ledger.EXPECT().
		Leaderboard(gomock.Any(), entities.ScopeAll, gomock.Any(), 0).
		Return([]*entities.LeaderboardRow{
			{Rank: 1, UserID: "alice", Points: 500},
			{Rank: 2, UserID: "bob", Points: 250},
		}, nil)

	f := newAPIFixture(t, ledger)

	rec := f.request(http.MethodGet, "/v1/leaderboard", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LeaderboardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, entities.ScopeAll, resp.Scope)
	require.Len(t, resp.Rows, 2)
	assert.Equal(t, "alice", resp.Rows[0].UserID)
	assert.Equal(t, 1, resp.Rows[0].Rank)
}

func TestCollectionListsOwnedCards(t *testing.T) {
	f := newAPIFixture(t, nil)

	open := f.request(http.MethodPost, "/v1/open", `{"packKey":"PLANT","mode":"paid"}`, "token-alice")
	require.Equal(t, http.StatusOK, open.Code)

	rec := f.request(http.MethodGet, "/v1/collection", "", "token-alice")
	require.Equal(t, http.StatusOK, rec.Code)

	var records []OwnedCardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, int64(1), records[0].TokenID)
	assert.Equal(t, "PLANT", records[0].PackKey)
	assert.NotEmpty(t, records[0].OpenedAt)
}

func TestDrawEndpointReturnsCatalogCard(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.request(http.MethodPost, "/v1/draw", `{"packKey":"PLANT","mode":"paid"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DrawResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "PLANT", resp.PackKey)
	assert.Equal(t, "paid", resp.Mode)
	assert.Contains(t, []string{"paras", "mystherbe", "florizarre"}, resp.CardID)
}

func TestDrawEndpointValidatesMode(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.request(http.MethodPost, "/v1/draw", `{"packKey":"PLANT","mode":""}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
