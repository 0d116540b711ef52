package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	auctionapp "github.com/Schooleo/BIF-AuctionHouse-sub000/internal/application/auction"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/cache"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/config"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/lock"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/metrics"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/persistence"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/persistence/models"
	apirouter "github.com/Schooleo/BIF-AuctionHouse-sub000/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	engine   *gin.Engine
	bidding  *auctionapp.BiddingService
	settling *auctionapp.SettlementService
}

func setupAPI(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.LotModel{},
		&models.RejectedBidderModel{},
		&models.BidModel{},
		&models.ProxyModel{},
		&models.OrderModel{},
	))

	lotRepo := persistence.NewGormLotRepository(db)
	bidRepo := persistence.NewGormBidRepository(db)
	proxyRepo := persistence.NewGormProxyRepository(db)
	orderRepo := persistence.NewGormOrderRepository(db)

	locks := lock.NewKeyedMutex()
	policies := config.NewPolicyStore(config.AuctionConfig{ConflictRetries: 5})
	snapshots := cache.NewInMemorySnapshotStore()
	m := metrics.New(prometheus.NewRegistry())
	logger := zap.NewNop()

	lots := auctionapp.NewLotService(lotRepo, bidRepo, proxyRepo, snapshots, logger)
	bidding := auctionapp.NewBiddingService(lotRepo, bidRepo, proxyRepo, locks, policies,
		auctionapp.AllowAll{}, snapshots, m, logger)
	settling := auctionapp.NewSettlementService(lotRepo, bidRepo, proxyRepo, orderRepo,
		locks, policies, snapshots, m, logger)
	t.Cleanup(bidding.Stop)

	engine := gin.New()
	r := apirouter.NewRouter(engine)
	r.Register(NewLotHandler(lots)).
		Register(NewBiddingHandler(bidding, lots)).
		Register(NewSettlementHandler(settling))
	r.Setup()

	return &testEnv{engine: engine, bidding: bidding, settling: settling}
}

func (e *testEnv) do(t *testing.T, method, path string, userID uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != uuid.Nil {
		req.Header.Set("X-User-ID", userID.String())
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	return resp.Data
}

func createLotViaAPI(t *testing.T, env *testEnv, sellerID uuid.UUID) uuid.UUID {
	t.Helper()
	w := env.do(t, http.MethodPost, "/api/v1/lots", sellerID, gin.H{
		"title":          "Vintage watch",
		"starting_price": "1000",
		"increment":      "100",
		"end_time":       time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := decodeData(t, w)
	return uuid.MustParse(data["id"].(string))
}

func TestAPI_CreateAndGetLot(t *testing.T) {
	env := setupAPI(t)
	sellerID := uuid.New()

	lotID := createLotViaAPI(t, env, sellerID)

	w := env.do(t, http.MethodGet, "/api/v1/lots/"+lotID.String(), uuid.Nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "Vintage watch", data["title"])
	assert.Equal(t, "1000", data["current_price"])
	assert.Equal(t, "OPEN", data["status"])
}

func TestAPI_CreateLotRequiresIdentity(t *testing.T) {
	env := setupAPI(t)

	w := env.do(t, http.MethodPost, "/api/v1/lots", uuid.Nil, gin.H{
		"title":          "No seller",
		"starting_price": "1000",
		"increment":      "100",
		"end_time":       time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPI_BidFlow(t *testing.T) {
	env := setupAPI(t)
	sellerID := uuid.New()
	lotID := createLotViaAPI(t, env, sellerID)
	path := "/api/v1/lots/" + lotID.String()

	proxyBidder := uuid.New()
	w := env.do(t, http.MethodPut, path+"/proxy", proxyBidder, gin.H{"max_price": "2000"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodeData(t, w)
	assert.Equal(t, true, data["leading"])
	assert.Equal(t, "1000", data["current_price"])

	manualBidder := uuid.New()
	w = env.do(t, http.MethodPost, path+"/bids", manualBidder, gin.H{"amount": "1200"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data = decodeData(t, w)
	assert.Equal(t, false, data["leading"])
	assert.Equal(t, "1300", data["current_price"])

	w = env.do(t, http.MethodGet, path+"/bids", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, path+"/proxy", proxyBidder, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = decodeData(t, w)
	assert.Equal(t, "2000", data["max_price"])
	assert.Equal(t, float64(0), data["last_viewed_bid_count"])

	w = env.do(t, http.MethodGet, path, uuid.Nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	bidCount := decodeData(t, w)["bid_count"]

	w = env.do(t, http.MethodPost, path+"/proxy/ack", proxyBidder, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data = decodeData(t, w)
	assert.Equal(t, bidCount, data["last_viewed_bid_count"])
}

func TestAPI_DomainErrorMapping(t *testing.T) {
	env := setupAPI(t)
	sellerID := uuid.New()
	lotID := createLotViaAPI(t, env, sellerID)
	path := "/api/v1/lots/" + lotID.String()

	t.Run("bid below minimum is 422", func(t *testing.T) {
		w := env.do(t, http.MethodPost, path+"/bids", uuid.New(), gin.H{"amount": "500"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "BID_TOO_LOW")
	})

	t.Run("seller bidding own lot is 403", func(t *testing.T) {
		w := env.do(t, http.MethodPost, path+"/bids", sellerID, gin.H{"amount": "1000"})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "SELF_BIDDING")
	})

	t.Run("unknown lot is 404", func(t *testing.T) {
		w := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/lots/%s/bids", uuid.New()), uuid.New(), gin.H{"amount": "1000"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed lot id is 400", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/lots/not-a-uuid", uuid.Nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAPI_SettlementFlow(t *testing.T) {
	env := setupAPI(t)
	sellerID := uuid.New()
	lotID := createLotViaAPI(t, env, sellerID)
	path := "/api/v1/lots/" + lotID.String()

	buyer := uuid.New()
	w := env.do(t, http.MethodPost, path+"/bids", buyer, gin.H{"amount": "1000"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Push the clock past the deadline and end the lot.
	env.settling.SetClock(func() time.Time { return time.Now().Add(2 * time.Hour) })
	require.NoError(t, env.settling.EndLot(context.Background(), lotID))

	t.Run("confirm by wrong user is 403", func(t *testing.T) {
		w := env.do(t, http.MethodPost, path+"/confirm", uuid.New(), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("seller confirms winner", func(t *testing.T) {
		w := env.do(t, http.MethodPost, path+"/confirm", sellerID, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		data := decodeData(t, w)
		assert.Equal(t, buyer.String(), data["buyer_id"])
		assert.Equal(t, "1000", data["final_price"])
	})

	t.Run("order is readable", func(t *testing.T) {
		w := env.do(t, http.MethodGet, path+"/order", uuid.Nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := decodeData(t, w)
		assert.Equal(t, "CREATED", data["status"])
	})
}

func TestAPI_RejectLeader(t *testing.T) {
	env := setupAPI(t)
	sellerID := uuid.New()
	lotID := createLotViaAPI(t, env, sellerID)
	path := "/api/v1/lots/" + lotID.String()

	bidder := uuid.New()
	w := env.do(t, http.MethodPost, path+"/bids", bidder, gin.H{"amount": "1000"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	env.settling.SetClock(func() time.Time { return time.Now().Add(2 * time.Hour) })
	require.NoError(t, env.settling.EndLot(context.Background(), lotID))

	w = env.do(t, http.MethodPost, path+"/reject-leader", sellerID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodeData(t, w)
	assert.Equal(t, "PASSED", data["status"])
	assert.Nil(t, data["leader_id"])
}
