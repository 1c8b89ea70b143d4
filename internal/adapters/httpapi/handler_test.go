package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bnema/voicepool/internal/application"
	"github.com/bnema/voicepool/internal/domain"
	"github.com/bnema/voicepool/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHealthReportsPoolState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   domain.PoolStatus
		wantCode int
		wantBody string
	}{
		{
			name:     "running",
			status:   domain.PoolStatus{State: domain.PoolStateRunning, Sessions: []domain.SessionStatus{{ID: 1, Ready: true}}},
			wantCode: http.StatusOK,
			wantBody: "ok",
		},
		{
			name:     "rate limited still serves",
			status:   domain.PoolStatus{State: domain.PoolStateRateLimited, Sessions: []domain.SessionStatus{{ID: 1}}},
			wantCode: http.StatusOK,
			wantBody: "ok",
		},
		{
			name:     "terminating",
			status:   domain.PoolStatus{State: domain.PoolStateTerminating, Sessions: []domain.SessionStatus{{ID: 1}}},
			wantCode: http.StatusServiceUnavailable,
			wantBody: "unavailable",
		},
		{
			name:     "empty pool",
			status:   domain.PoolStatus{State: domain.PoolStateRunning},
			wantCode: http.StatusServiceUnavailable,
			wantBody: "unavailable",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			router := NewRouter(NewPoolHandler(stubStatus{status: tc.status}, nil), nil)
			res := serve(router, http.MethodGet, "/healthz", nil)

			require.Equal(t, tc.wantCode, res.Code)
			var payload healthResponse
			require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
			assert.Equal(t, tc.wantBody, payload.Status)
			assert.Equal(t, tc.status.State, payload.State)
		})
	}
}

func TestListSessionsAndPoolStatus(t *testing.T) {
	t.Parallel()

	status := domain.PoolStatus{
		State: domain.PoolStateRunning,
		Sessions: []domain.SessionStatus{
			{ID: 1, Name: "Main", Ready: true, Tenants: 2, Connected: []domain.TenantID{1000}},
			{ID: 2, Name: "Music", Ready: false, Public: true, Tenants: 1, Connected: []domain.TenantID{}},
		},
		CachedConfigs: 3,
		DedupTokens:   4,
	}
	router := NewRouter(NewPoolHandler(stubStatus{status: status}, nil), nil)

	res := serve(router, http.MethodGet, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusOK, res.Code)
	var sessions listSessionsResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &sessions))
	assert.Equal(t, 2, sessions.Total)
	assert.Equal(t, "Music", sessions.Items[1].Name)
	assert.Equal(t, []domain.TenantID{1000}, sessions.Items[0].Connected)

	res = serve(router, http.MethodGet, "/api/v1/pool", nil)
	require.Equal(t, http.StatusOK, res.Code)
	var pool domain.PoolStatus
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &pool))
	assert.Equal(t, 3, pool.CachedConfigs)
	assert.Equal(t, 4, pool.DedupTokens)
	assert.Equal(t, 1, pool.ReadyCount())
}

func TestConfigRoutesDisabledWithoutEditor(t *testing.T) {
	t.Parallel()

	router := NewRouter(NewPoolHandler(stubStatus{}, nil), nil)
	res := serve(router, http.MethodGet, "/api/v1/config/global/guilds/1000", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestSetAndGetConfigField(t *testing.T) {
	t.Parallel()

	store := mocks.NewMockConfigStore(t)
	scope := domain.GlobalScope(domain.ConfigKindGuilds)
	store.EXPECT().Get(mock.Anything, scope, domain.TenantID(1000)).Return(domain.ConfigDocument{"prefix": "!!"}, nil).Once()
	store.EXPECT().Put(mock.Anything, scope, domain.TenantID(1000), domain.ConfigDocument{"prefix": "?"}).Return(nil).Once()

	service := application.NewConfigService(application.NewConfigCache(store, nil))
	router := NewRouter(NewPoolHandler(stubStatus{}, service), nil)

	res := serve(router, http.MethodPut, "/api/v1/config/global/guilds/1000/prefix", []byte(`{"value":"?"}`))
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	res = serve(router, http.MethodGet, "/api/v1/config/global/guilds/1000", nil)
	require.Equal(t, http.StatusOK, res.Code)
	var payload configResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	assert.Equal(t, "?", payload.Document.String("prefix"))
	assert.Equal(t, domain.TenantID(1000), payload.Tenant)
}

func TestConfigRoutesRejectBadInput(t *testing.T) {
	t.Parallel()

	service := application.NewConfigService(application.NewConfigCache(mocks.NewMockConfigStore(t), nil))
	router := NewRouter(NewPoolHandler(stubStatus{}, service), nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   []byte
	}{
		{name: "unknown kind", method: http.MethodGet, path: "/api/v1/config/global/queues/1000"},
		{name: "bad tenant", method: http.MethodGet, path: "/api/v1/config/global/guilds/abc"},
		{name: "zero tenant", method: http.MethodGet, path: "/api/v1/config/global/guilds/0"},
		{name: "bad body", method: http.MethodPut, path: "/api/v1/config/global/guilds/1000/prefix", body: []byte("{")},
	}

	for _, tc := range tests {
		res := serve(router, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusBadRequest, res.Code, tc.name)
	}
}

func TestConfigStoreFailureIsInternalError(t *testing.T) {
	t.Parallel()

	store := mocks.NewMockConfigStore(t)
	store.EXPECT().Get(mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("disk on fire")).Once()

	service := application.NewConfigService(application.NewConfigCache(store, nil))
	router := NewRouter(NewPoolHandler(stubStatus{}, service), nil)

	res := serve(router, http.MethodGet, "/api/v1/config/global/users/1000", nil)
	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.NotContains(t, res.Body.String(), "disk on fire")
}

func TestServerStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := NewServer("", NewRouter(NewPoolHandler(stubStatus{status: domain.PoolStatus{State: domain.PoolStateRunning, Sessions: []domain.SessionStatus{{ID: 1}}}}, nil), nil), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, listener) }()

	require.Eventually(t, func() bool {
		res, err := http.Get("http://" + listener.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		_ = res.Body.Close()
		return res.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServerWithoutAddressIsDisabled(t *testing.T) {
	t.Parallel()

	require.NoError(t, NewServer("", nil, nil).Run(context.Background()))
}

func serve(handler http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

type stubStatus struct {
	status domain.PoolStatus
}

func (s stubStatus) Status() domain.PoolStatus {
	return s.status
}
