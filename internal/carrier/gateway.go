package carrier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

var (
	ErrConfigInvalid   = errors.New("carrier config invalid")
	ErrRequestFailed   = errors.New("carrier request failed")
	ErrResponseInvalid = errors.New("carrier response invalid")
)

// Config 承运商网关配置
type Config struct {
	Endpoint string        `json:"endpoint"` // 承运商API地址
	Token    string        `json:"token"`    // Bearer 令牌
	Timeout  time.Duration `json:"-"`        // 请求超时（默认 15s）
}

// CreateInput 包裹登记请求（承运商侧字段均为字符串）
type CreateInput struct {
	ToName      string `json:"to_name"`
	ToPhone     string `json:"to_phone"`
	AlterPhone  string `json:"alter_phone"`
	Description string `json:"description"`
	PackageType string `json:"package_type"`
	VillageID   string `json:"village_id"`
	Street      string `json:"street"`
	TotalCost   string `json:"total_cost"`
	Note        string `json:"note"`
	Barcode     string `json:"barcode"`
	QRCode2     string `json:"qr_code2"`
}

// CreateResult 承运商确认结果
type CreateResult struct {
	ExternalID   string                 // 承运商侧包裹ID
	DeliveryCost string                 // 运费
	QRCode       string                 // 二维码
	Raw          map[string]interface{} // 原始响应
}

// RejectedError 承运商拒单（载荷校验失败，不可重试）
type RejectedError struct {
	Code   int
	State  string
	Fields []string // "field: message" 格式
}

// Error 实现 error 接口
func (e *RejectedError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("carrier rejected request (code=%d state=%s)", e.Code, e.State)
	}
	return fmt.Sprintf("carrier rejected request (code=%d state=%s): %s", e.Code, e.State, strings.Join(e.Fields, "; "))
}

// TransportError 传输层失败（5xx/超时/非JSON响应，可重试）
type TransportError struct {
	StatusCode int
	Message    string
	Cause      error
}

// Error 实现 error 接口
func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("carrier transport error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("carrier transport error: %s", e.Message)
}

// Unwrap 返回底层错误
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// Retryable 判断该传输错误是否值得重试
func (e *TransportError) Retryable() bool {
	if e.StatusCode == 0 {
		// 网络失败或超时
		return true
	}
	return e.StatusCode >= 500
}

// ValidateConfig 校验配置
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return fmt.Errorf("%w: endpoint is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return fmt.Errorf("%w: token is required", ErrConfigInvalid)
	}
	return nil
}

func (c *Config) normalize() {
	c.Endpoint = strings.TrimSpace(c.Endpoint)
	c.Token = strings.TrimSpace(c.Token)
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
}

// transportMessage 将 HTTP 状态码转换为面向用户的提示
func transportMessage(statusCode int) string {
	switch statusCode {
	case http.StatusServiceUnavailable:
		return "shipping service temporarily unavailable"
	case http.StatusBadGateway:
		return "shipping service gateway error"
	case http.StatusGatewayTimeout:
		return "shipping service timeout"
	default:
		if statusCode >= 500 {
			return "shipping service server error"
		}
		return fmt.Sprintf("shipping service returned unexpected status %d", statusCode)
	}
}

// CreatePackage 向承运商推送一次包裹登记请求
// 响应归一化为三态：成功 / 拒单（RejectedError）/ 传输失败（TransportError）
func CreatePackage(ctx context.Context, cfg *Config, input CreateInput) (*CreateResult, error) {
	if cfg == nil {
		return nil, ErrConfigInvalid
	}
	cfg.normalize()
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal payload: %v", ErrRequestFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Endpoint, strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.Token)

	client := &http.Client{Timeout: cfg.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &TransportError{Message: "shipping service unreachable", Cause: err}
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Message: "read response failed", Cause: err}
	}

	var envelope struct {
		Code   int                    `json:"code"`
		State  string                 `json:"state"`
		Data   map[string]interface{} `json:"data"`
		Errors map[string]interface{} `json:"errors"`
	}
	if err := json.Unmarshal(respBytes, &envelope); err != nil {
		// 非JSON响应（如 HTML 错误页）按 HTTP 状态归类为传输失败
		return nil, &TransportError{StatusCode: resp.StatusCode, Message: transportMessage(resp.StatusCode)}
	}

	if envelope.Code == 200 && envelope.State == "success" {
		result := &CreateResult{
			ExternalID:   stringField(envelope.Data, "package_id"),
			DeliveryCost: stringField(envelope.Data, "delivery_cost"),
			QRCode:       stringField(envelope.Data, "qr_code"),
		}
		if result.ExternalID == "" {
			// 成功信封但缺少承运商包裹ID，无法落库对账
			return nil, fmt.Errorf("%w: success response missing package_id", ErrResponseInvalid)
		}
		_ = json.Unmarshal(respBytes, &result.Raw)
		return result, nil
	}

	// JSON 但不含应用层信封（如网关自身的错误JSON），按传输失败处理
	if envelope.Code == 0 && envelope.State == "" && (resp.StatusCode < 200 || resp.StatusCode >= 300) {
		return nil, &TransportError{StatusCode: resp.StatusCode, Message: transportMessage(resp.StatusCode)}
	}

	// JSON 响应且带应用层错误码：承运商拒单
	fields := flattenErrors(envelope.Errors)
	if len(fields) == 0 {
		fields = flattenErrors(envelope.Data)
	}
	return nil, &RejectedError{
		Code:   envelope.Code,
		State:  envelope.State,
		Fields: fields,
	}
}

// stringField 从动态 map 中读取字符串字段（兼容数字类型）
func stringField(data map[string]interface{}, key string) string {
	if data == nil {
		return ""
	}
	switch v := data[key].(type) {
	case string:
		return v
	case float64:
		// JSON 数字统一为 float64，整数值不带小数输出
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// flattenErrors 将嵌套的校验错误展开为 "field: message" 列表
func flattenErrors(raw map[string]interface{}) []string {
	if len(raw) == 0 {
		return nil
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var fields []string
	for _, k := range keys {
		switch v := raw[k].(type) {
		case []interface{}:
			for _, item := range v {
				fields = append(fields, fmt.Sprintf("%s: %v", k, item))
			}
		case string:
			fields = append(fields, fmt.Sprintf("%s: %s", k, v))
		case map[string]interface{}:
			for _, nested := range flattenErrors(v) {
				fields = append(fields, fmt.Sprintf("%s.%s", k, nested))
			}
		default:
			fields = append(fields, fmt.Sprintf("%s: %v", k, v))
		}
	}
	return fields
}
