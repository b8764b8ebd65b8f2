package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-recovery-api/internal/config"
	"github.com/go-recovery-api/internal/domain"
	"github.com/go-recovery-api/internal/infrastructure/redisstore"
	"github.com/go-recovery-api/internal/pkg/token"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Unix(1_700_000_000, 0)

type harness struct {
	handler http.Handler
	store   *redisstore.UserStore
	codec   *token.Codec
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	codec, err := token.NewCodec("router-secret")
	require.NoError(t, err)
	store := redisstore.NewUserStore(rdb, "rt")

	cfg := &config.Config{
		AllowedOrigins: []string{"*"},
		Recovery:       config.Recovery{SecretKey: "router-secret", ResetWindow: 15 * time.Minute},
		RateLimit:      config.RateLimit{RPS: 100, Burst: 100},
	}
	h, closeFn := NewRouter(cfg, &Deps{
		RecoveryStore: store,
		Codec:         codec,
		Ready:         func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		Now:           func() time.Time { return testNow },
	})
	t.Cleanup(closeFn)
	return &harness{handler: h, store: store, codec: codec}
}

func (h *harness) issue(t *testing.T, userID string, ch domain.Channel, code string, expiresIn time.Duration) string {
	t.Helper()
	tok, err := h.codec.Seal(domain.ResetClaims{SubjectID: userID, Channel: ch})
	require.NoError(t, err)
	v := domain.VerificationRecord{Key: tok}
	if ch == domain.ChannelPhone {
		v.PhoneCode, v.PhoneExpiration = code, testNow.Add(expiresIn).Unix()
	} else {
		v.EmailCode, v.EmailExpiration = code, testNow.Add(expiresIn).Unix()
	}
	require.NoError(t, h.store.PutVerification(context.Background(), userID, v))
	return tok
}

func (h *harness) exchange(t *testing.T, key, code string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	body, err := json.Marshal(map[string]string{"key": key, "code": code})
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodPost, "/v1/password-recovery/validate-code", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, r)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return rr, out
}

func TestRouter_ExchangeFlow(t *testing.T) {
	h := newHarness(t)
	tok := h.issue(t, "u1", domain.ChannelEmail, "482913", 5*time.Minute)

	rr, out := h.exchange(t, tok, "482913")
	require.Equal(t, http.StatusOK, rr.Code)
	newKey, _ := out["key"].(string)
	require.NotEmpty(t, newKey)

	claims, err := h.codec.Open(newKey)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.SubjectID)
	assert.Equal(t, domain.ChannelEmail, claims.Channel)
	require.NotNil(t, claims.Expiration)
	assert.Equal(t, testNow.Add(15*time.Minute).Unix(), *claims.Expiration)

	v, err := h.store.GetVerification(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, newKey, v.Key)

	// The original token has been rotated away.
	rr, out = h.exchange(t, tok, "482913")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "invalid code, please retry", out["error"])
}

func TestRouter_ExpiredCode(t *testing.T) {
	h := newHarness(t)
	tok := h.issue(t, "u1", domain.ChannelPhone, "771204", -10*time.Second)

	rr, out := h.exchange(t, tok, "771204")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "code expired, please retry", out["error"])
}

func TestRouter_WrongCode(t *testing.T) {
	h := newHarness(t)
	tok := h.issue(t, "u1", domain.ChannelEmail, "482913", 5*time.Minute)

	rr, out := h.exchange(t, tok, "000000")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "invalid code, please retry", out["error"])
}

func TestRouter_MalformedToken(t *testing.T) {
	h := newHarness(t)
	rr, out := h.exchange(t, "not-a-token", "482913")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "unknown error", out["error"])
}

func TestRouter_HealthReady(t *testing.T) {
	h := newHarness(t)
	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/health-check/ready", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
