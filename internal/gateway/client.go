package gateway

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stocklens/stocklens/config"
	"github.com/stocklens/stocklens/internal/model"
	"go.uber.org/zap"
)

const (
	inventoryEndpoint = "/ajax/ajax.aspx/fnc_selectInventaire"
	historyEndpoint   = "/ajax/ajax.aspx/fnc_selectHistoArticles"
	stockEndpoint     = "/ajax/ajax.aspx/fnc_selectStockProduit"

	// The remote system scopes every call to a fixed service account.
	serviceUserID = "15"
	allSites      = "-1"
)

// Client talks to the remote inventory gateway using an authenticated
// session. All calls are per-item and may fail transiently; callers decide
// whether a failure means "no data" or a fatal condition.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

func NewClient(cfg config.GatewayConfig, sess Session, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "application/json, text/javascript, */*; q=0.01").
		SetHeader("Content-Type", "application/json; charset=utf-8").
		SetHeader("X-Requested-With", "XMLHttpRequest").
		SetHeader("wb-token", sess.Token).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(4 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp != nil && (resp.StatusCode() == http.StatusTooManyRequests ||
				resp.StatusCode() >= http.StatusInternalServerError)
		})

	for name, value := range sess.Cookies {
		httpClient.SetCookie(&http.Cookie{Name: name, Value: value})
	}

	return &Client{
		http:   httpClient,
		logger: logger.Named("gateway"),
	}
}

// ListInventory fetches the full inventory of one client. An empty slice is
// a valid answer (unknown client, nothing stored).
func (c *Client) ListInventory(ctx context.Context, clientID int) ([]model.InventoryItem, error) {
	body, err := c.post(ctx, inventoryEndpoint, map[string]string{
		"i_usr_id":           serviceUserID,
		"i_cli_id":           strconv.Itoa(clientID),
		"s_prod_designation": "",
		"s_code_barre":       "",
		"s_prod_ref_interne": "",
		"i_cli_multi_site":   "1",
		"i_usr_admin_site":   "1",
		"i_sit_id":           allSites,
	})
	if err != nil {
		return nil, err
	}

	rows, err := decodePayload[inventoryRow]("inventory", body)
	if err != nil {
		return nil, err
	}

	items := make([]model.InventoryItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.item())
	}
	return items, nil
}

// GetHistory fetches the movement history of one product for one client.
// Rows whose event date cannot be parsed are dropped; their ordering key
// would be meaningless. Seq preserves the gateway's row order.
func (c *Client) GetHistory(ctx context.Context, clientID, productID int) ([]model.HistoryEvent, error) {
	body, err := c.post(ctx, historyEndpoint, map[string]string{
		"i_usr_id":      serviceUserID,
		"i_prod_id":     strconv.Itoa(productID),
		"i_prod_sit_id": allSites,
		"i_cli_id":      strconv.Itoa(clientID),
	})
	if err != nil {
		return nil, err
	}

	rows, err := decodePayload[HistoryRow]("history", body)
	if err != nil {
		return nil, err
	}
	events := make([]model.HistoryEvent, 0, len(rows))
	for i, row := range rows {
		e, ok := row.Event()
		if !ok {
			c.logger.Debug("dropping history row with unparsable date",
				zap.Int("prod_id", productID),
				zap.String("date", row.EventDate))
			continue
		}
		e.ProductID = productID
		e.Seq = i
		events = append(events, e)
	}
	return events, nil
}

// GetStock fetches the current stock volume of one product. nil means the
// gateway has no figure for it.
func (c *Client) GetStock(ctx context.Context, productID int) (*float64, error) {
	body, err := c.post(ctx, stockEndpoint, map[string]string{
		"i_usr_id":      serviceUserID,
		"i_prod_id":     strconv.Itoa(productID),
		"i_prod_sit_id": allSites,
	})
	if err != nil {
		return nil, err
	}

	rows, err := decodePayload[stockRow]("stock", body)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	if !rows[0].StockVolume.valid {
		return nil, nil
	}
	volume := rows[0].StockVolume.value
	return &volume, nil
}

// FetchImage downloads a product photo by its gateway-relative reference.
func (c *Client) FetchImage(ctx context.Context, photoRef string) ([]byte, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/" + photoRef)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, &APIError{
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
		}
	}
	return resp.Body(), nil
}

func (c *Client) post(ctx context.Context, path string, payload map[string]string) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		Post(path)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		c.logger.Debug("gateway call failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode()))
		return nil, &APIError{
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
			Body:       string(resp.Body()),
		}
	}
	return resp.Body(), nil
}
