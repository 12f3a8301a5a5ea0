package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"serotonyl.ru/points-bot/internal/chat"
)

func TestRateLimiter_SlidingWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Close()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow(1) || !rl.Allow(1) {
		t.Fatal("первые два запроса должны пройти")
	}
	if rl.Allow(1) {
		t.Error("третий запрос в окне должен быть отклонён")
	}
	// Другой пользователь не затронут
	if !rl.Allow(2) {
		t.Error("пользователь 2 не должен ограничиваться")
	}

	now = now.Add(61 * time.Second)
	if !rl.Allow(1) {
		t.Error("после окна запрос должен пройти")
	}
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	defer rl.Close()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.Allow(1)
	rl.Allow(2)

	now = now.Add(2 * time.Minute)
	rl.sweep()
	if n := rl.Tracked(); n != 0 {
		t.Errorf("после очистки осталось %d пользователей", n)
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(0, time.Minute)
	defer rl.Close()
	for i := 0; i < 100; i++ {
		if !rl.Allow(1) {
			t.Fatal("лимит 0 не должен ограничивать")
		}
	}
}

func TestRecoverFromPanic(t *testing.T) {
	recovered := func() (ok bool) {
		defer func() { ok = recover() == nil }()
		func() {
			defer RecoverFromPanic(1)
			panic("boom")
		}()
		return true
	}()
	if !recovered {
		t.Error("паника не была перехвачена")
	}
}

func TestEventKind(t *testing.T) {
	cases := map[string]chat.Event{
		"command": {IsCommand: true},
		"sticker": {IsSticker: true},
		"message": {Text: "hi"},
	}
	for want, ev := range cases {
		if got := EventKind(ev); got != want {
			t.Errorf("EventKind = %q, ожидалось %q", got, want)
		}
	}
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), AccessLog())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	// Без заголовка — генерируется
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if id := w.Header().Get(RequestIDHeader); id == "" || id != w.Body.String() {
		t.Errorf("request id = %q, body = %q", id, w.Body.String())
	}

	// С заголовком — сохраняется
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if id := w.Header().Get(RequestIDHeader); id != "abc-123" {
		t.Errorf("request id = %q", id)
	}
}
