// internal/telegram/client.go
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	stderrors "intake-bot/internal/common/errors"
	"intake-bot/internal/common/logger"
	"intake-bot/internal/common/metrics"
)

const (
	// defaultTimeout applies to every method except getUpdates.
	defaultTimeout = 20 * time.Second
	// longPollMargin is added on top of the caller-supplied getUpdates wait.
	longPollMargin = 5 * time.Second
	// defaultMaxRetries is the number of extra attempts after the first.
	defaultMaxRetries = 2
	// retryBackoffStep grows linearly: 0.5s, 1s, ...
	retryBackoffStep = 500 * time.Millisecond
)

// Client talks to the Telegram Bot API. All failures are converted into
// a Result; the methods never return Go errors.
type Client struct {
	http       *http.Client
	baseURL    string
	token      string
	maxRetries int
	logger     logger.Logger
}

func NewClient(baseURL, token string, log logger.Logger) *Client {
	return &Client{
		// Per-call deadlines come from the request context, not the
		// client, because getUpdates needs a longer budget.
		http:       &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		maxRetries: defaultMaxRetries,
		logger:     log.WithFields(map[string]interface{}{"component": "telegram"}),
	}
}

// Call posts one Bot API method. getUpdates is never retried here (the
// polling loop owns its own backoff); every other method is retried on
// timeout and connection failures only.
func (c *Client) Call(ctx context.Context, method string, params map[string]interface{}) Result {
	timeout := defaultTimeout
	retries := c.maxRetries
	if method == "getUpdates" {
		retries = 0
		wait := 30 * time.Second
		if params != nil {
			if secs, ok := params["timeout"].(int); ok && secs > 0 {
				wait = time.Duration(secs) * time.Second
			}
		}
		timeout = wait + longPollMargin
	}

	var last Result
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			metrics.APIRetries.WithLabelValues(method).Inc()
			select {
			case <-time.After(retryBackoffStep * time.Duration(attempt)):
			case <-ctx.Done():
				return Result{OK: false, Description: fmt.Sprintf("canceled: %v", ctx.Err())}
			}
		}

		res, retryable := c.post(ctx, method, params, timeout)
		if res.OK || !retryable {
			if !res.OK {
				metrics.APICalls.WithLabelValues(method, "error").Inc()
			} else {
				metrics.APICalls.WithLabelValues(method, "ok").Inc()
			}
			return res
		}
		last = res
		if attempt < retries {
			c.logger.Warn("api call failed, retrying", map[string]interface{}{
				"method":  method,
				"attempt": attempt + 1,
				"reason":  res.Description,
			})
		}
	}

	metrics.APICalls.WithLabelValues(method, "error").Inc()
	c.logger.Error("api call failed, attempts exhausted", map[string]interface{}{
		"method": method,
		"reason": last.Description,
	})
	return last
}

// post performs a single attempt. The second return value reports
// whether the failure is worth retrying (timeout / connection only).
func (c *Client) post(ctx context.Context, method string, params map[string]interface{}, timeout time.Duration) (Result, bool) {
	body, err := json.Marshal(params)
	if err != nil {
		return Result{OK: false, Description: fmt.Sprintf("encode params: %v", err)}, false
	}
	if params == nil {
		body = []byte("{}")
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{OK: false, Description: fmt.Sprintf("build request: %v", err)}, false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// The parent context ending is a shutdown, not a transport flake.
		if ctx.Err() != nil {
			return Result{OK: false, Description: fmt.Sprintf("canceled: %v", ctx.Err())}, false
		}
		callErr := classifyTransportError(method, attemptCtx, err)
		return Result{
			OK:          false,
			Description: fmt.Sprintf("%s: %s", callErr.Message, callErr.Details),
		}, callErr.Retryable
	}

	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	var out Result
	if err := json.Unmarshal(raw, &out); err != nil {
		// Non-JSON body: fold the HTTP status into the result. Not
		// retryable, the remote answered.
		return Result{
			OK:          false,
			Description: fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))),
			ErrorCode:   resp.StatusCode,
		}, false
	}
	// An application-level rejection carries the remote description and
	// error_code; it is returned as-is without retry.
	return out, false
}

// classifyTransportError folds a failed round trip into the standard
// error taxonomy. Timeouts and broken connections are both retryable.
func classifyTransportError(method string, attemptCtx context.Context, err error) *stderrors.StandardError {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return stderrors.NewTelegramTimeoutError(method, err)
	}
	if attemptCtx.Err() == context.DeadlineExceeded {
		return stderrors.NewTelegramTimeoutError(method, err)
	}
	return stderrors.NewTelegramConnectionError(method, err)
}

// ==========================
// Typed helpers
// ==========================

// GetUpdates long-polls for new updates at or after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]Update, Result) {
	params := map[string]interface{}{"timeout": timeoutSec}
	if offset > 0 {
		params["offset"] = offset
	}
	res := c.Call(ctx, "getUpdates", params)
	if !res.OK {
		return nil, res
	}
	var updates []Update
	if err := json.Unmarshal(res.Result, &updates); err != nil {
		return nil, Result{OK: false, Description: fmt.Sprintf("decode updates: %v", err)}
	}
	return updates, res
}

// SendMessage sends an HTML-formatted text message.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, replyMarkup interface{}) Result {
	params := map[string]interface{}{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if replyMarkup != nil {
		params["reply_markup"] = replyMarkup
	}
	res := c.Call(ctx, "sendMessage", params)
	if !res.OK {
		c.logger.Error("sendMessage failed", map[string]interface{}{
			"chat_id": chatID,
			"reason":  res.Description,
		})
	}
	return res
}

// SendPhoto forwards a photo by file reference with a caption.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, fileID, caption string, replyMarkup interface{}) Result {
	params := map[string]interface{}{
		"chat_id":    chatID,
		"photo":      fileID,
		"caption":    caption,
		"parse_mode": "HTML",
	}
	if replyMarkup != nil {
		params["reply_markup"] = replyMarkup
	}
	return c.Call(ctx, "sendPhoto", params)
}

// SendDocument forwards a document by file reference with a caption.
func (c *Client) SendDocument(ctx context.Context, chatID int64, fileID, caption string, replyMarkup interface{}) Result {
	params := map[string]interface{}{
		"chat_id":    chatID,
		"document":   fileID,
		"caption":    caption,
		"parse_mode": "HTML",
	}
	if replyMarkup != nil {
		params["reply_markup"] = replyMarkup
	}
	return c.Call(ctx, "sendDocument", params)
}

// DeleteMessage removes a previously sent message.
func (c *Client) DeleteMessage(ctx context.Context, chatID, messageID int64) Result {
	return c.Call(ctx, "deleteMessage", map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
	})
}

// AnswerCallbackQuery clears the loading state on an inline button press.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID string) Result {
	return c.Call(ctx, "answerCallbackQuery", map[string]interface{}{
		"callback_query_id": callbackID,
	})
}

// DeleteWebhook detaches any passive subscription so polling can own
// the update feed.
func (c *Client) DeleteWebhook(ctx context.Context, dropPending bool) Result {
	return c.Call(ctx, "deleteWebhook", map[string]interface{}{
		"drop_pending_updates": dropPending,
	})
}

// SetMyCommands registers the command menu shown by clients.
func (c *Client) SetMyCommands(ctx context.Context, commands []BotCommand) Result {
	return c.Call(ctx, "setMyCommands", map[string]interface{}{
		"commands": commands,
	})
}
