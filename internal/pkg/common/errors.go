package common

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string `json:"code"`              // 錯誤代碼
	Message string `json:"message"`           // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
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
		return e.Err.Error()
	}
	return e.Message
}

func (e *CustomError) Unwrap() error { return e.Err }

// Response 轉為 API 響應，debug 時附帶原始錯誤
func (e *CustomError) Response(debug bool) ErrorResponse {
	resp := ErrorResponse{Code: e.Code, Message: e.Message}
	if debug && e.Err != nil {
		resp.Details = e.Err.Error()
	}
	return resp
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

// ValidationError 表示輸入驗證錯誤
type ValidationError struct {
	message string
}

func (e *ValidationError) Error() string {
	return e.message
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(format string, args ...any) error {
	return &ValidationError{message: fmt.Sprintf(format, args...)}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// 解析流程的錯誤種類，可用 errors.Is 判斷
var (
	ErrConfiguration     = errors.New("llm is not configured")
	ErrTransport         = errors.New("model endpoint unreachable")
	ErrMalformedResponse = errors.New("malformed model response")
	ErrExtraction        = errors.New("no JSON object in model output")
	ErrJSONParse         = errors.New("invalid JSON in model output")
	ErrSchemaValidation  = errors.New("recipe does not match schema")
)

// ConfigurationError 缺少 API key 等設定
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string        { return e.Message }
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// TransportError 網路失敗或非 2xx 狀態碼，StatusCode 為 0 代表請求未送達
type TransportError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *TransportError) Unwrap() error        { return e.Err }
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// MalformedResponseError 回應不是 JSON 或沒有可用的 message content
type MalformedResponseError struct {
	Message string
	Preview string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: %s…", e.Message, e.Preview)
}

func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformedResponse }

// ExtractionError 模型輸出找不到 JSON 物件
type ExtractionError struct {
	Preview string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("model did not return JSON. Got: %s…", e.Preview)
}

func (e *ExtractionError) Is(target error) bool { return target == ErrExtraction }

// JSONParseError 擷取出的片段無法解析為 JSON
type JSONParseError struct {
	Err error
}

func (e *JSONParseError) Error() string {
	return fmt.Sprintf("failed to parse JSON from model: %v", e.Err)
}

func (e *JSONParseError) Unwrap() error        { return e.Err }
func (e *JSONParseError) Is(target error) bool { return target == ErrJSONParse }

// SchemaValidationError 第一個結構不符的位置
type SchemaValidationError struct {
	Path    string
	Message string
	Err     error
}

func (e *SchemaValidationError) Error() string {
	path := e.Path
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("recipe does not match schema at %s: %s", path, e.Message)
}

func (e *SchemaValidationError) Unwrap() error        { return e.Err }
func (e *SchemaValidationError) Is(target error) bool { return target == ErrSchemaValidation }

// 預定義錯誤代碼
const (
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeTooManyRequests  = "TOO_MANY_REQUESTS"
	ErrCodeRequestTimeout   = "REQUEST_TIMEOUT"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeLLMNotConfigured = "LLM_NOT_CONFIGURED"
	ErrCodeModelUnavailable = "MODEL_UNAVAILABLE"
	ErrCodeModelBadResponse = "MODEL_BAD_RESPONSE"
	ErrCodeNoJSONInOutput   = "NO_JSON_IN_OUTPUT"
	ErrCodeInvalidJSON      = "INVALID_JSON_OUTPUT"
	ErrCodeSchemaMismatch   = "SCHEMA_MISMATCH"
)

// 預定義錯誤
var (
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "無效的請求", http.StatusBadRequest, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "資源不存在", http.StatusNotFound, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "請求過於頻繁", http.StatusTooManyRequests, nil)
	ErrInternalError   = NewError(ErrCodeInternalError, "服務器內部錯誤", http.StatusInternalServerError, nil)
	ErrCacheFull       = NewError("CACHE_FULL", "緩存已滿", http.StatusServiceUnavailable, nil)
)

// ToCustomError 將解析流程錯誤對應到 API 錯誤代碼與狀態碼
func ToCustomError(err error) *CustomError {
	var ce *CustomError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ce):
		return ce
	case errors.Is(err, ErrConfiguration):
		return NewError(ErrCodeLLMNotConfigured, "LLM 尚未設定，請檢查設定", http.StatusServiceUnavailable, err)
	case errors.Is(err, ErrTransport):
		return NewError(ErrCodeModelUnavailable, "模型服務無法使用", http.StatusBadGateway, err)
	case errors.Is(err, ErrMalformedResponse):
		return NewError(ErrCodeModelBadResponse, "模型回應格式錯誤", http.StatusBadGateway, err)
	case errors.Is(err, ErrExtraction):
		return NewError(ErrCodeNoJSONInOutput, "無法從輸入擷取食譜，請換一張照片或文字", http.StatusUnprocessableEntity, err)
	case errors.Is(err, ErrJSONParse):
		return NewError(ErrCodeInvalidJSON, "模型輸出的 JSON 無效", http.StatusUnprocessableEntity, err)
	case errors.Is(err, ErrSchemaValidation):
		return NewError(ErrCodeSchemaMismatch, "食譜結構不符", http.StatusUnprocessableEntity, err)
	case IsValidationError(err):
		return NewError(ErrCodeInvalidRequest, err.Error(), http.StatusBadRequest, err)
	default:
		return NewError(ErrCodeInternalError, "服務器內部錯誤", http.StatusInternalServerError, err)
	}
}
