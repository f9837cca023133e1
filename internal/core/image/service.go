// Package image 依菜名找出可顯示的料理照片
package image

import (
	"context"
	"fmt"
	"strings"

	"ulam-ai/internal/infrastructure/config"
	"ulam-ai/internal/pkg/common"
	"ulam-ai/internal/pkg/metrics"

	"go.uber.org/zap"
)

// 解析結果的來源
const (
	StrategySearch = "search"
	StrategyStock  = "stock"
	StrategyNone   = "none"
)

// Service 圖片解析服務
// 依序嘗試結構化搜尋、圖庫備援，都失敗時回傳空字串
type Service struct {
	cuisine string
	search  *searcher
	stock   *stockPhoto
	probe   *Prober

	searchEnabled bool
	stockEnabled  bool
}

// NewService 創建圖片解析服務
func NewService(searchCfg *config.ImageSearchConfig, stockCfg *config.StockPhotoConfig, cuisine string) *Service {
	return &Service{
		cuisine:       cuisine,
		search:        newSearcher(searchCfg),
		stock:         newStockPhoto(stockCfg),
		probe:         NewProber(searchCfg.VerifyTimeout, searchCfg.VerifyMaxBytes),
		searchEnabled: searchCfg.Configured(),
		stockEnabled:  stockCfg.Enabled,
	}
}

// Resolve 回傳菜色圖片網址，找不到時回傳空字串；不會回傳錯誤
func (s *Service) Resolve(ctx context.Context, dishName string) (url string) {
	defer func() {
		if r := recover(); r != nil {
			common.LogError("圖片解析發生 panic", zap.String("dish", dishName), zap.Any("panic", r))
			url = ""
		}
	}()

	name := strings.TrimSpace(dishName)
	if name == "" {
		return ""
	}

	if s.searchEnabled {
		for _, query := range s.search.queries(name, s.cuisine) {
			if ctx.Err() != nil {
				break
			}
			candidates, err := s.search.search(ctx, query)
			if err != nil {
				common.LogWarn("Image search query failed", zap.String("query", query), zap.Error(err))
				continue
			}
			if found := s.firstVerified(ctx, candidates); found != "" {
				s.record(StrategySearch, name)
				return found
			}
		}
	}

	if s.stockEnabled && ctx.Err() == nil {
		keywords := fmt.Sprintf("%s %s food", name, strings.ToLower(s.cuisine))
		found, err := s.stock.lookup(ctx, keywords)
		if err == nil {
			s.record(StrategyStock, name)
			return found
		}
		common.LogWarn("Stock photo fallback failed", zap.String("dish", name), zap.Error(err))
	}

	s.record(StrategyNone, name)
	return ""
}

// firstVerified 依排序逐一驗證，回傳第一個可載入的網址
func (s *Service) firstVerified(ctx context.Context, candidates []string) string {
	for _, candidate := range candidates {
		if err := s.probe.Verify(ctx, candidate); err != nil {
			common.LogDebug("候選圖片無法載入", zap.String("url", candidate), zap.Error(err))
			continue
		}
		return candidate
	}
	return ""
}

func (s *Service) record(strategy, name string) {
	metrics.ImageResolutions.WithLabelValues(strategy).Inc()
	common.LogDebug("圖片解析完成", zap.String("dish", name), zap.String("strategy", strategy))
}
