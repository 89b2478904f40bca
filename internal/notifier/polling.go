package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	pollTimeout = 30 * time.Second
	maxBackoff  = time.Minute
)

// CommandHandler answers one bot command such as "/run". An empty reply sends nothing.
type CommandHandler func(command string) string

type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

type updatesResponse struct {
	OK          bool             `json:"ok"`
	Description string           `json:"description"`
	Result      []telegramUpdate `json:"result"`
}

// commandName reduces "/run@StockExtractorBot now" to "/run". Plain text yields "".
func commandName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	name, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(name)
}

// StartPolling long-polls getUpdates and answers commands from the configured
// chat until ctx is cancelled. Messages from other chats are ignored.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	client := &http.Client{Timeout: pollTimeout + 5*time.Second}
	if t.Client != nil && t.Client.Transport != nil {
		client.Transport = t.Client.Transport
	}

	offset, failures := 0, 0
	for ctx.Err() == nil {
		updates, err := t.getUpdates(ctx, client, offset)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			failures++
			wait := t.backoff(failures)
			log.Printf("[WARN] telegram polling failed (attempt %d), retrying in %s: %v", failures, wait, err)
			sleepCtx(ctx, wait)
			continue
		}
		failures = 0
		offset = t.dispatch(ctx, updates, offset, handler)
	}
	log.Println("[INFO] Telegram polling stopped")
}

func (t *TelegramNotifier) getUpdates(ctx context.Context, client *http.Client, offset int) ([]telegramUpdate, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("timeout", strconv.Itoa(int(pollTimeout.Seconds())))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.methodURL("getUpdates")+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read updates: %w", err)
	}
	var res updatesResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode updates (status %d): %w", resp.StatusCode, err)
	}
	if !res.OK {
		return nil, fmt.Errorf("getUpdates: status %d: %s", resp.StatusCode, res.Description)
	}
	return res.Result, nil
}

// dispatch runs handler for every command addressed from the configured chat
// and returns the offset that acknowledges the batch.
func (t *TelegramNotifier) dispatch(ctx context.Context, updates []telegramUpdate, offset int, handler CommandHandler) int {
	for _, u := range updates {
		if u.UpdateID >= offset {
			offset = u.UpdateID + 1
		}
		if u.Message == nil {
			continue
		}
		if chat := strconv.FormatInt(u.Message.Chat.ID, 10); chat != t.ChatID {
			log.Printf("[WARN] ignoring message from unknown chat %s", chat)
			continue
		}
		cmd := commandName(u.Message.Text)
		if cmd == "" {
			continue
		}
		log.Printf("[INFO] received command: %s", cmd)
		reply := handler(cmd)
		if reply == "" {
			continue
		}
		if err := t.Send(ctx, reply); err != nil {
			log.Printf("[ERROR] reply to %s: %v", cmd, err)
		}
	}
	return offset
}

func (t *TelegramNotifier) backoff(failures int) time.Duration {
	base := t.RetryBase
	if base <= 0 {
		base = time.Second
	}
	wait := base << min(failures-1, 6)
	return min(wait, maxBackoff)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
