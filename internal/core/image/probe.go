package image

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	_ "image/gif"  // 支援 GIF
	_ "image/jpeg" // 支援 JPEG
	_ "image/png"  // 支援 PNG

	"github.com/go-resty/resty/v2"
	_ "golang.org/x/image/webp" // 支援 WebP
)

// Prober 驗證圖片網址確實可載入
type Prober struct {
	client   *resty.Client
	timeout  time.Duration
	maxBytes int64
}

// NewProber 創建圖片驗證器
func NewProber(timeout time.Duration, maxBytes int64) *Prober {
	return &Prober{
		client:   resty.New().SetHeader("Accept", "image/*"),
		timeout:  timeout,
		maxBytes: maxBytes,
	}
}

// Verify 下載圖片開頭並解析標頭，逾時或無法解碼都視為失敗
func (p *Prober) Verify(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return fmt.Errorf("failed to download image: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("failed to download image: status code %d", resp.StatusCode())
	}

	var r io.Reader = body
	if p.maxBytes > 0 {
		r = io.LimitReader(body, p.maxBytes)
	}

	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("empty image: %s", format)
	}
	return nil
}
