package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/xiebiao/library/internal/domain/notification"
)

// DefaultTelegramAPI Bot API地址
const DefaultTelegramAPI = "https://api.telegram.org"

// TelegramSender 通过Bot API的sendMessage推送到管理员群
type TelegramSender struct {
	client     *http.Client
	apiURL     string
	token      string
	chatID     string
	maxRetries uint64
}

// TelegramOption 可选配置
type TelegramOption func(*TelegramSender)

// WithHTTPClient 替换HTTP客户端
func WithHTTPClient(c *http.Client) TelegramOption {
	return func(s *TelegramSender) { s.client = c }
}

// WithAPIURL 替换Bot API地址（测试时指向httptest）
func WithAPIURL(u string) TelegramOption {
	return func(s *TelegramSender) {
		if u != "" {
			s.apiURL = strings.TrimRight(u, "/")
		}
	}
}

// WithMaxRetries 失败重试次数
func WithMaxRetries(n uint64) TelegramOption {
	return func(s *TelegramSender) { s.maxRetries = n }
}

func NewTelegramSender(token, chatID string, opts ...TelegramOption) *TelegramSender {
	s := &TelegramSender{
		client:     &http.Client{Timeout: 10 * time.Second},
		apiURL:     DefaultTelegramAPI,
		token:      token,
		chatID:     chatID,
		maxRetries: 3,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (s *TelegramSender) Send(ctx context.Context, msg notification.Message) error {
	body, err := json.Marshal(sendMessageRequest{ChatID: s.chatID, Text: msg.Text, ParseMode: "HTML"})
	if err != nil {
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.maxRetries),
		ctx,
	)
	return backoff.Retry(func() error { return s.post(ctx, body) }, policy)
}

func (s *TelegramSender) post(ctx context.Context, body []byte) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiURL, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram请求失败: %w", err)
	}
	defer resp.Body.Close()

	var out apiResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(data, &out)

	switch {
	case resp.StatusCode == http.StatusOK && out.OK:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("telegram返回%d: %s", resp.StatusCode, out.Description)
	default:
		// 4xx（token错误、chat不存在等）重试无意义
		return backoff.Permanent(fmt.Errorf("telegram返回%d: %s", resp.StatusCode, out.Description))
	}
}
