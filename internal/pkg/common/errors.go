package common

import (
	"errors"
	"net/http"
	"time"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code         string `json:"code"`                      // 錯誤代碼
	Message      string `json:"message"`                   // 錯誤信息
	Details      string `json:"details,omitempty"`         // 詳細信息（僅在開發模式顯示）
	Redirect     string `json:"redirect,omitempty"`        // 前端應導向的畫面
	DismissAfter int64  `json:"dismiss_after_ms,omitempty"` // 提示自動消失時間
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 取得原始錯誤
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is 以錯誤代碼比對，讓 errors.Is(err, ErrOracleUnavailable) 成立
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Wrap 以同樣的代碼包裝新的原始錯誤
func (e *CustomError) Wrap(err error) *CustomError {
	return &CustomError{
		Code:    e.Code,
		Message: e.Message,
		Status:  e.Status,
		Err:     err,
	}
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// AsCustomError 取出錯誤鏈中的 CustomError，找不到時轉為內部錯誤
func AsCustomError(err error) *CustomError {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce
	}
	return ErrInternalError.Wrap(err)
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeUnauthorized    = "UNAUTHORIZED"      // 401
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError = "INTERNAL_ERROR" // 500

	// 業務錯誤
	ErrCodeOracleUnavailable      = "ORACLE_UNAVAILABLE"
	ErrCodeDetailGenerationFailed = "DETAIL_GENERATION_FAILED"
	ErrCodeSaveRejectedNoIdentity = "SAVE_REJECTED_NO_IDENTITY"
	ErrCodeStorageFailure         = "STORAGE_FAILURE"
	ErrCodeStoreFailure           = "STORE_FAILURE"
)

// BannerDuration 使用者可見錯誤提示的自動消失時間
const BannerDuration = 3 * time.Second

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "無效的請求", http.StatusBadRequest, nil)
	ErrUnauthorized    = NewError(ErrCodeUnauthorized, "未授權的訪問", http.StatusUnauthorized, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "資源不存在", http.StatusNotFound, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "請求過於頻繁", http.StatusTooManyRequests, nil)

	// 服務器錯誤
	ErrInternalError = NewError(ErrCodeInternalError, "服務器內部錯誤", http.StatusInternalServerError, nil)

	// 業務錯誤
	ErrOracleUnavailable      = NewError(ErrCodeOracleUnavailable, "Our AI Chef is having trouble connecting. Please try again.", http.StatusServiceUnavailable, nil)
	ErrDetailGenerationFailed = NewError(ErrCodeDetailGenerationFailed, "Recipe could not be loaded.", http.StatusBadGateway, nil)
	ErrSaveRejectedNoIdentity = NewError(ErrCodeSaveRejectedNoIdentity, "Please create an account to save recipes!", http.StatusUnauthorized, nil)
	ErrStorageFailure         = NewError(ErrCodeStorageFailure, "本機儲存失敗", http.StatusInternalServerError, nil)
	ErrStoreFailure           = NewError(ErrCodeStoreFailure, "Could not reach the recipe store. Please try again.", http.StatusServiceUnavailable, nil)
	ErrEmptyPantry            = NewError(ErrCodeInvalidRequest, "Add at least one ingredient first.", http.StatusBadRequest, nil)
	ErrNoRecipeSelected       = NewError(ErrCodeInvalidRequest, "沒有可儲存的食譜", http.StatusBadRequest, nil)
)

// RedirectLogin 需要登入時前端導向的畫面
const RedirectLogin = "login"

// NewErrorResponse 由錯誤產生 HTTP 狀態碼與錯誤響應
// debug 為 true 時附上原始錯誤
func NewErrorResponse(err error, debug bool) (int, ErrorResponse) {
	ce := AsCustomError(err)
	status := ce.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}

	resp := ErrorResponse{
		Code:    ce.Code,
		Message: ce.Message,
	}
	if debug && ce.Err != nil {
		resp.Details = ce.Err.Error()
	}

	switch ce.Code {
	case ErrCodeSaveRejectedNoIdentity:
		resp.Redirect = RedirectLogin
		resp.DismissAfter = BannerDuration.Milliseconds()
	case ErrCodeOracleUnavailable, ErrCodeDetailGenerationFailed, ErrCodeStoreFailure:
		resp.DismissAfter = BannerDuration.Milliseconds()
	}
	return status, resp
}
