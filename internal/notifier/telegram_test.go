package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

func newTestNotifier(srv *httptest.Server) *TelegramNotifier {
	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	n.RetryBase = time.Millisecond
	return n
}

func TestSend(t *testing.T) {
	var got sentMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv).Send(context.Background(), "<b>hi</b>"))
	assert.Equal(t, sentMessage{ChatID: "42", Text: "<b>hi</b>", ParseMode: "HTML"}, got)
}

func TestSend_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"ok":false,"description":"chat not found"}`)
	}))
	defer srv.Close()

	err := newTestNotifier(srv).Send(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "chat not found")
}

func TestSendWithRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv).SendWithRetry(context.Background(), "x", 3))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSendWithRetry_Exhausted(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestNotifier(srv).SendWithRetry(context.Background(), "x", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 3 retries exhausted")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestEnabled(t *testing.T) {
	assert.True(t, NewTelegramNotifier("t", "c", "").Enabled())
	assert.False(t, NewTelegramNotifier("", "c", "").Enabled())
	assert.False(t, NewTelegramNotifier("t", "", "").Enabled())

	var nilNotifier *TelegramNotifier
	assert.False(t, nilNotifier.Enabled())
}

func TestStartPolling_RepliesToCommands(t *testing.T) {
	var (
		mu      sync.Mutex
		replies []string
		polls   int32
	)
	replied := make(chan struct{}, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/botTOKEN/getUpdates", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&polls, 1) == 1 {
			assert.Equal(t, "0", r.URL.Query().Get("offset"))
			fmt.Fprint(w, `{"ok":true,"result":[
				{"update_id":6,"message":{"text":"/run","chat":{"id":999}}},
				{"update_id":7,"message":{"text":" /config@StockExtractorBot ","chat":{"id":42}}},
				{"update_id":8}
			]}`)
			return
		}
		assert.Equal(t, "9", r.URL.Query().Get("offset"))
		fmt.Fprint(w, `{"ok":true,"result":[]}`)
	})
	mux.HandleFunc("/botTOKEN/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		var m sentMessage
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&m))
		mu.Lock()
		replies = append(replies, m.Text)
		mu.Unlock()
		fmt.Fprint(w, `{"ok":true}`)
		select {
		case replied <- struct{}{}:
		default:
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		newTestNotifier(srv).StartPolling(ctx, func(cmd string) string {
			return "got " + cmd
		})
		close(done)
	}()

	select {
	case <-replied:
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"got /config"}, replies)
}

func TestDispatch(t *testing.T) {
	var (
		mu   sync.Mutex
		sent []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var m sentMessage
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&m))
		mu.Lock()
		sent = append(sent, m.Text)
		mu.Unlock()
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()
	n := newTestNotifier(srv)

	var updates []telegramUpdate
	require.NoError(t, json.Unmarshal([]byte(`[
		{"update_id":10,"message":{"text":"/RUN now","chat":{"id":42}}},
		{"update_id":11,"message":{"text":"hello","chat":{"id":42}}},
		{"update_id":12,"message":{"text":"/status","chat":{"id":7}}},
		{"update_id":13,"message":{"text":"/latest","chat":{"id":42}}}
	]`), &updates))

	var handled []string
	next := n.dispatch(context.Background(), updates, 10, func(cmd string) string {
		handled = append(handled, cmd)
		if cmd == "/run" {
			return ""
		}
		return "reply " + cmd
	})

	assert.Equal(t, 14, next)
	assert.Equal(t, []string{"/run", "/latest"}, handled)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"reply /latest"}, sent)
}

func TestCommandName(t *testing.T) {
	assert.Equal(t, "/run", commandName("/run"))
	assert.Equal(t, "/status", commandName("  /Status@StockExtractorBot extra"))
	assert.Equal(t, "", commandName("run"))
	assert.Equal(t, "", commandName("   "))
}

func TestBackoff(t *testing.T) {
	n := &TelegramNotifier{RetryBase: time.Second}
	assert.Equal(t, time.Second, n.backoff(1))
	assert.Equal(t, 4*time.Second, n.backoff(3))
	assert.Equal(t, maxBackoff, n.backoff(20))
}
