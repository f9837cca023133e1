package image

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	_ "image/gif" // 支援 GIF
	_ "image/png" // 支援 PNG

	_ "golang.org/x/image/webp" // 支援 WebP
)

var (
	ErrEmptyImage       = errors.New("image data is empty")
	ErrInvalidImageData = errors.New("invalid image data format")
	ErrImageTooLarge    = errors.New("image size exceeds maximum limit")
	ErrUnsupportedImage = errors.New("unsupported image format")
)

// Processor 掃描食材照片的前處理器
type Processor struct {
	maxSize int64
}

// NewProcessor 創建圖片處理器
func NewProcessor(maxSize int64) *Processor {
	return &Processor{
		maxSize: maxSize,
	}
}

// Decode 解析 data URI 或純 base64，回傳原始位元組
func (p *Processor) Decode(imageData string) ([]byte, error) {
	imageData = strings.TrimSpace(imageData)
	if imageData == "" {
		return nil, ErrEmptyImage
	}

	payload := imageData
	if strings.HasPrefix(imageData, "data:") {
		if !strings.HasPrefix(imageData, "data:image/") {
			return nil, ErrInvalidImageData
		}
		parts := strings.SplitN(imageData, ",", 2)
		if len(parts) != 2 || !strings.HasSuffix(parts[0], ";base64") {
			return nil, ErrInvalidImageData
		}
		payload = parts[1]
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImageData, err)
	}
	if p.maxSize > 0 && int64(len(decoded)) > p.maxSize {
		return nil, fmt.Errorf("%w of %d bytes", ErrImageTooLarge, p.maxSize)
	}
	return decoded, nil
}

// FormatImageData 驗證圖片並統一轉為 JPEG data URI
func (p *Processor) FormatImageData(imageData string) (string, error) {
	decoded, err := p.Decode(imageData)
	if err != nil {
		return "", err
	}

	img, format, err := image.Decode(bytes.NewReader(decoded))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if !IsSupportedFormat(format) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, format)
	}

	if format == "jpeg" {
		return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(decoded), nil
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return "", fmt.Errorf("failed to encode image as JPEG: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// IsSupportedFormat 檢查圖片格式是否支援
func IsSupportedFormat(format string) bool {
	switch format {
	case "jpeg", "jpg", "png", "gif", "webp":
		return true
	}
	return false
}
