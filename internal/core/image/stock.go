package image

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"ulam-ai/internal/infrastructure/config"

	"github.com/go-resty/resty/v2"
)

// stockPhoto 圖庫關鍵字備援，依重新導向後的最終網址取圖
type stockPhoto struct {
	cfg    *config.StockPhotoConfig
	client *resty.Client
}

func newStockPhoto(cfg *config.StockPhotoConfig) *stockPhoto {
	return &stockPhoto{
		cfg:    cfg,
		client: resty.New().SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)),
	}
}

// lookup 回傳圖庫最終網址，非設定的主機一律拒絕
func (s *stockPhoto) lookup(ctx context.Context, keywords string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/%s/?%s",
		strings.TrimRight(s.cfg.BaseURL, "/"), s.cfg.Size, url.QueryEscape(keywords))

	resp, err := s.client.R().
		SetContext(ctx).
		Head(endpoint)
	if err != nil {
		return "", fmt.Errorf("stock photo request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("stock photo returned status %d", resp.StatusCode())
	}
	if resp.RawResponse == nil || resp.RawResponse.Request == nil {
		return "", fmt.Errorf("stock photo returned no final url")
	}

	final := resp.RawResponse.Request.URL
	if !hostMatches(final.Hostname(), s.cfg.Host) {
		return "", fmt.Errorf("stock photo redirected to foreign host %s", final.Hostname())
	}
	return final.String(), nil
}

func hostMatches(host, want string) bool {
	host, want = strings.ToLower(host), strings.ToLower(want)
	return want != "" && (host == want || strings.HasSuffix(host, "."+want))
}
