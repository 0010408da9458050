package handle_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filecodebox/pkg/configs"
	"github.com/yeisme/filecodebox/pkg/internal/handle"
	"github.com/yeisme/filecodebox/pkg/internal/storage"
	"github.com/yeisme/filecodebox/pkg/internal/storage/kv"
	"github.com/yeisme/filecodebox/pkg/middleware"
)

// newShareRouter 组装带内存 KV 的最小路由，覆盖上传、取件与清理.
func newShareRouter(t *testing.T) *gin.Engine {
	t.Helper()

	if err := configs.InitConfig(t.TempDir()); err != nil {
		t.Fatalf("init config: %v", err)
	}

	gin.SetMode(gin.TestMode)

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, nil)
	if err != nil {
		t.Fatalf("create memory kv: %v", err)
	}

	t.Cleanup(func() { _ = store.Close() })

	mgr := storage.NewManager(&kv.Client{KVStore: store}, nil, nil)

	r := gin.New()
	r.Use(middleware.StorageMiddleware(mgr))
	r.POST("/share", handle.CreateShare)
	r.GET("/s/:code", handle.GetShare)
	r.GET("/info/:code", handle.GetShareInfo)
	r.GET("/cleanup", handle.RunCleanup)

	return r
}

// postText 以 multipart 表单上传文本分享.
func postText(t *testing.T, r *gin.Engine, text, style string, value string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("text", text)

	if style != "" {
		_ = mw.WriteField("expired_style", style)
	}

	if value != "" {
		_ = mw.WriteField("expired_value", value)
	}

	_ = mw.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/share", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	return w
}

type shareEnvelope struct {
	Code int `json:"code"`
	Data struct {
		Code      string     `json:"code"`
		ExpiredAt *time.Time `json:"expired_at"`
	} `json:"data"`
	Detail string `json:"detail"`
}

func TestShareTextScenario(t *testing.T) {
	r := newShareRouter(t)

	// 上传 hello，一分钟有效
	w := postText(t, r, "hello", "minute", "1")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var env shareEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if env.Code != 0 {
		t.Fatalf("expected envelope code 0, got %d", env.Code)
	}

	if len(env.Data.Code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", env.Data.Code)
	}

	if env.Data.ExpiredAt == nil {
		t.Fatal("expected finite expiry")
	}

	if d := time.Until(*env.Data.ExpiredAt); d < 50*time.Second || d > 70*time.Second {
		t.Fatalf("expected expiry ~60s ahead, got %v", d)
	}

	// 取件
	w2 := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/s/"+env.Data.Code, nil)
	r.ServeHTTP(w2, req)

	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200 on retrieval, got %d", w2.Code)
	}

	var got struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(w2.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode retrieval: %v", err)
	}

	if got.Type != "text" || got.Text != "hello" {
		t.Fatalf("unexpected retrieval body: %s", w2.Body.String())
	}
}

func TestShareInfoOmitsContent(t *testing.T) {
	r := newShareRouter(t)

	w := postText(t, r, "secret", "day", "1")

	var env shareEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	w2 := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/info/"+env.Data.Code, nil)
	r.ServeHTTP(w2, req)

	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w2.Code)
	}

	if bytes.Contains(w2.Body.Bytes(), []byte("secret")) {
		t.Fatalf("info response leaks content: %s", w2.Body.String())
	}

	var info struct {
		Type string `json:"type"`
		Size int64  `json:"size"`
	}
	if err := json.Unmarshal(w2.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode info: %v", err)
	}

	if info.Type != "text" || info.Size != int64(len("secret")) {
		t.Fatalf("unexpected info: %s", w2.Body.String())
	}
}

func TestShareRejectsEmptyForm(t *testing.T) {
	r := newShareRouter(t)

	w := postText(t, r, "", "", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty form, got %d", w.Code)
	}

	var env shareEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if env.Code != http.StatusBadRequest || env.Detail == "" {
		t.Fatalf("expected error envelope, got %s", w.Body.String())
	}
}

func TestShareRejectsBadExpiredStyle(t *testing.T) {
	r := newShareRouter(t)

	w := postText(t, r, "hi", "fortnight", "1")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad expired_style, got %d", w.Code)
	}
}

func TestRetrieveRejectsMalformedCode(t *testing.T) {
	r := newShareRouter(t)

	for _, code := range []string{"abc123", "12345", "1234567", "12345x"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/s/"+code, nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("code %q: expected 400, got %d", code, w.Code)
		}
	}
}

func TestRetrieveUnknownCodeIs404(t *testing.T) {
	r := newShareRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/s/123456", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestCleanupEndpointReturnsResult(t *testing.T) {
	r := newShareRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/cleanup", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var result struct {
		Checked int `json:"checked"`
		Deleted int `json:"deleted"`
		Errors  int `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}

	if result.Checked != 0 || result.Deleted != 0 || result.Errors != 0 {
		t.Fatalf("expected all-zero sweep on empty store, got %s", w.Body.String())
	}
}
