package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"ulam-ai/internal/core/ai/provider"
	"ulam-ai/internal/infrastructure/config"
	"ulam-ai/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// 編譯期檢查介面實作
var _ provider.Provider = (*Client)(nil)

// Client OpenRouter API 客戶端
type Client struct {
	config *config.OpenRouterConfig
	client *resty.Client
}

// chatRequest chat/completions 請求結構
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

// chatResponse OpenRouter 響應結構
type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage provider.Usage `json:"usage"`
}

// NewClient 創建新的 OpenRouter 客戶端
func NewClient(cfg *config.OpenRouterConfig) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("HTTP-Referer", "https://ulam.ai").
		SetHeader("X-Title", "Ulam AI")

	return &Client{
		config: cfg,
		client: client,
	}
}

// GetModel 獲取模型名稱
func (c *Client) GetModel() string {
	return c.config.Model
}

// Generate 生成回應
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	model := c.config.Model
	if req.ImageData != "" && c.config.VisionModel != "" {
		model = c.config.VisionModel
	}

	body := chatRequest{
		Model:       model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if body.MaxTokens == 0 {
		body.MaxTokens = c.config.MaxTokens
	}

	for i, msg := range req.Messages {
		parts := []contentPart{{Type: "text", Text: msg.Content}}
		// 圖片附加在最後一則訊息
		if req.ImageData != "" && i == len(req.Messages)-1 {
			url := req.ImageData
			if !strings.HasPrefix(url, "data:image/") {
				url = fmt.Sprintf("data:image/jpeg;base64,%s", url)
			}
			parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: url}})
		}
		body.Messages = append(body.Messages, chatMessage{Role: msg.Role, Content: parts})
	}

	common.LogDebug("Sending request to OpenRouter",
		zap.String("model", model),
		zap.Int("messages", len(body.Messages)),
		zap.Bool("has_image", req.ImageData != ""),
	)

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("failed to send request to OpenRouter: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		common.LogError("AI service returned error status",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("model", model),
			zap.String("response", truncate(resp.String(), 512)),
		)
		return nil, fmt.Errorf("OpenRouter API returned status %d", resp.StatusCode())
	}

	var result chatResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse OpenRouter response: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("no choices in OpenRouter response")
	}

	content := result.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("empty content in OpenRouter response")
	}

	return &provider.Response{
		Content: content,
		Model:   result.Model,
		Usage:   result.Usage,
	}, nil
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}

// truncate 截斷過長的日誌內容
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
