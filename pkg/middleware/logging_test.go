package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// TestRequestID はRequestIDミドルウェアを検証する。
func TestRequestID(t *testing.T) {
	t.Parallel()

	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": GetRequestID(c)})
	})

	t.Run("IDが無い場合は生成してレスポンスヘッダーに設定すること", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		got := w.Header().Get(HeaderRequestID)
		if got == "" {
			t.Fatal("X-Request-Idが設定されていない")
		}
		if !strings.Contains(w.Body.String(), got) {
			t.Errorf("コンテキストのIDとヘッダーが一致しない: %s", w.Body.String())
		}
	})

	t.Run("クライアント指定のIDを引き継ぐこと", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(HeaderRequestID, "req-abc")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if got := w.Header().Get(HeaderRequestID); got != "req-abc" {
			t.Errorf("X-Request-Id = %q, want %q", got, "req-abc")
		}
	})
}

// TestRequestLogger はRequestLoggerミドルウェアを検証する。
func TestRequestLogger(t *testing.T) {
	t.Parallel()

	newRouter := func(buf *bytes.Buffer) *gin.Engine {
		router := gin.New()
		router.Use(RequestID())
		router.Use(RequestLogger(zerolog.New(buf)))
		router.POST("/login", func(c *gin.Context) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "no"})
		})
		router.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
		return router
	}

	t.Run("ステータスに応じたレベルで出力しボディは出力しないこと", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		router := newRouter(&buf)

		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"password":"s3cret"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(httptest.NewRecorder(), req)

		if strings.Contains(buf.String(), "s3cret") {
			t.Fatalf("パスワードがログに出力された: %s", buf.String())
		}

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("ログのパースに失敗: %v (%s)", err, buf.String())
		}
		if entry["level"] != "warn" {
			t.Errorf("level = %v, want warn", entry["level"])
		}
		if entry["path"] != "/login" {
			t.Errorf("path = %v, want /login", entry["path"])
		}
		if entry["status"] != float64(http.StatusUnauthorized) {
			t.Errorf("status = %v, want %d", entry["status"], http.StatusUnauthorized)
		}
		if entry["request_id"] == "" || entry["request_id"] == nil {
			t.Error("request_idが出力されていない")
		}
	})

	t.Run("ヘルスチェックは出力しないこと", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		router := newRouter(&buf)
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

		if buf.Len() != 0 {
			t.Errorf("ヘルスチェックのログが出力された: %s", buf.String())
		}
	})
}
