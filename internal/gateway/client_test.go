package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stocklens/stocklens/config"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.GatewayConfig{
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
	}, Session{Token: "tok"}, zap.NewNop())
}

func TestGetStockDistinguishesNullFromZero(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		switch {
		case strings.Contains(string(body), `"i_prod_id":"1"`):
			io.WriteString(w, `{"d": "[{\"stock_volume\": null}]"}`)
		default:
			io.WriteString(w, `{"d": "[{\"stock_volume\": 0}]"}`)
		}
	}))

	vol, err := client.GetStock(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, vol)

	vol, err = client.GetStock(context.Background(), 2)
	require.NoError(t, err)
	require.NotNil(t, vol)
	assert.Equal(t, 0.0, *vol)
}

func TestGetStockEmptyPayloadIsNil(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"d": "[]"}`)
	}))

	vol, err := client.GetStock(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, vol)
}
