package moralis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"token-holders/internal/holders/config"
	"token-holders/pkg/httpclient"

	"go.uber.org/zap"
)

const pageSize = 100

type MoralisClient struct {
	baseURL    string
	gatewayURL string
	apiKey     string
	attempts   int
	backoff    time.Duration
	httpClient *httpclient.HTTPClient
	logger     *zap.Logger
}

func NewMoralisClient(cfg config.MoralisConfig, logger *zap.Logger) *MoralisClient {
	// 创建HTTP客户端配置，重试由本层控制
	httpCfg := httpclient.HTTPClientConfig{
		Timeout:    time.Duration(cfg.Timeout) * time.Second,
		RateLimit:  cfg.RateLimit,
		MaxRetries: 0,
		XApiKey:    cfg.APIKey,
	}

	return &MoralisClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		gatewayURL: strings.TrimRight(cfg.GatewayURL, "/"),
		apiKey:     cfg.APIKey,
		attempts:   3,
		backoff:    200 * time.Millisecond,
		httpClient: httpclient.NewHTTPClient(httpCfg, logger),
		logger:     logger,
	}
}

func (m *MoralisClient) Close() error {
	return m.httpClient.Close()
}

// GetSolanaTokenMetadata 查询 SPL token 的基础信息
func (m *MoralisClient) GetSolanaTokenMetadata(ctx context.Context, tokenAddr string) (*SolanaTokenMetadata, error) {
	var meta SolanaTokenMetadata
	u := fmt.Sprintf("%s/token/mainnet/%s/metadata", m.gatewayURL, url.PathEscape(tokenAddr))
	if err := m.get(ctx, u, nil, &meta); err != nil {
		return nil, fmt.Errorf("fetch solana token metadata failed, token: %s, error: %w", tokenAddr, err)
	}
	return &meta, nil
}

// GetEvmTokenMetadata 查询 ERC20 token 的基础信息
func (m *MoralisClient) GetEvmTokenMetadata(ctx context.Context, network string, tokenAddr string) (*Erc20Metadata, error) {
	var metas []Erc20Metadata
	u := fmt.Sprintf("%s/api/v2.2/erc20/metadata", m.baseURL)
	query := map[string]string{
		"chain":        strings.ToLower(network),
		"addresses[0]": tokenAddr,
	}
	if err := m.get(ctx, u, query, &metas); err != nil {
		return nil, fmt.Errorf("fetch evm token metadata failed, token: %s, error: %w", tokenAddr, err)
	}
	if len(metas) == 0 {
		return nil, fmt.Errorf("fetch evm token metadata failed, token: %s, error: %w", tokenAddr, ErrNotFound)
	}
	return &metas[0], nil
}

// GetEvmTokenHolders 按余额降序分页拉取 ERC20 持有人，最多 maxCount 条
func (m *MoralisClient) GetEvmTokenHolders(ctx context.Context, network string, tokenAddr string, maxCount int) ([]TokenHold, error) {
	resp := []TokenHold{}
	u := fmt.Sprintf("%s/api/v2.2/erc20/%s/owners", m.baseURL, url.PathEscape(tokenAddr))
	cursor := ""
	for {
		var tokenHolders TokenHoldersResp
		query := map[string]string{
			"chain": strings.ToLower(network),
			"limit": strconv.Itoa(pageSize),
			"order": "DESC",
		}
		if cursor != "" {
			query["cursor"] = cursor
		}
		if err := m.get(ctx, u, query, &tokenHolders); err != nil {
			return nil, fmt.Errorf("fetch evm token holders failed, url: %s, error: %w", u, err)
		}
		cursor = tokenHolders.Cursor
		resp = append(resp, tokenHolders.Result...)
		if maxCount > 0 && len(resp) >= maxCount {
			return resp[:maxCount], nil
		}
		if cursor == "" || len(tokenHolders.Result) < pageSize {
			break
		}
	}

	return resp, nil
}

// GetSolanaTopHolders 按余额降序分页拉取 SPL token 持有人，最多 maxCount 条
func (m *MoralisClient) GetSolanaTopHolders(ctx context.Context, tokenAddr string, maxCount int) ([]SolanaTokenHolder, error) {
	resp := []SolanaTokenHolder{}
	u := fmt.Sprintf("%s/token/mainnet/%s/top-holders", m.gatewayURL, url.PathEscape(tokenAddr))
	cursor := ""
	for {
		var tokenHolders SolanaHoldersResp
		query := map[string]string{"limit": strconv.Itoa(pageSize)}
		if cursor != "" {
			query["cursor"] = cursor
		}
		if err := m.get(ctx, u, query, &tokenHolders); err != nil {
			return nil, fmt.Errorf("fetch solana token holders failed, url: %s, error: %w", u, err)
		}
		cursor = tokenHolders.Cursor
		resp = append(resp, tokenHolders.Result...)
		if maxCount > 0 && len(resp) >= maxCount {
			return resp[:maxCount], nil
		}
		if cursor == "" || len(tokenHolders.Result) < pageSize {
			break
		}
	}

	return resp, nil
}

// get 对限流和服务端错误做有限次重试，其余 4xx 直接返回
func (m *MoralisClient) get(ctx context.Context, u string, query map[string]string, out interface{}) error {
	var err error
	for attempt := 0; attempt < m.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(m.backoff * time.Duration(attempt)):
			}
		}
		err = m.httpClient.Get(ctx, u, query, nil, out)
		if err == nil || !retryable(err) {
			return err
		}
		m.logger.Debug("moralis request retry", zap.String("url", u), zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return err
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code == http.StatusTooManyRequests || httpErr.Code >= 500
	}
	return true
}
