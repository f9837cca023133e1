package image

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"ulam-ai/internal/infrastructure/config"
	"ulam-ai/internal/pkg/common"

	"github.com/go-resty/resty/v2"
)

// searchResponse Custom Search JSON API 回應中用到的欄位
type searchResponse struct {
	Items []struct {
		Link        string `json:"link"`
		DisplayLink string `json:"displayLink"`
		Mime        string `json:"mime"`
	} `json:"items"`
}

// searcher 結構化圖片搜尋
type searcher struct {
	cfg    *config.ImageSearchConfig
	client *resty.Client
}

func newSearcher(cfg *config.ImageSearchConfig) *searcher {
	return &searcher{
		cfg:    cfg,
		client: resty.New(),
	}
}

// queries 依序產生搜尋關鍵字
func (s *searcher) queries(name, cuisine string) []string {
	c := strings.ToLower(cuisine)
	all := []string{
		fmt.Sprintf("\"%s\" %s food recipe authentic", name, c),
		fmt.Sprintf("%s %s food dish", name, s.cfg.Country),
		fmt.Sprintf("%s %s recipe", c, name),
		fmt.Sprintf("%s %s", name, s.cfg.LocalTerm),
	}
	if s.cfg.MaxQueries > 0 && s.cfg.MaxQueries < len(all) {
		return all[:s.cfg.MaxQueries]
	}
	return all
}

// search 執行一次搜尋，回傳排序後的候選網址
func (s *searcher) search(ctx context.Context, query string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	var result searchResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"key":        s.cfg.APIKey,
			"cx":         s.cfg.EngineID,
			"q":          query,
			"searchType": "image",
			"num":        strconv.Itoa(s.cfg.ResultsPerQuery),
			"imgSize":    "large",
			"imgType":    "photo",
			"safe":       "active",
		}).
		SetResult(&result).
		Get(s.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("image search request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("image search returned status %d", resp.StatusCode())
	}

	links := make([]string, 0, len(result.Items))
	for _, item := range result.Items {
		if common.IsHTTPURL(item.Link) {
			links = append(links, item.Link)
		}
	}
	return rankByDomain(links, s.cfg.AllowedDomains), nil
}

// rankByDomain 偏好網域的結果排前面，其餘維持原順序
func rankByDomain(links []string, preferred []string) []string {
	ranked := make([]string, 0, len(links))
	var rest []string
	for _, link := range links {
		if matchesDomain(link, preferred) {
			ranked = append(ranked, link)
		} else {
			rest = append(rest, link)
		}
	}
	return append(ranked, rest...)
}

func matchesDomain(link string, preferred []string) bool {
	lower := strings.ToLower(link)
	for _, d := range preferred {
		if d != "" && strings.Contains(lower, strings.ToLower(d)) {
			return true
		}
	}
	return false
}
