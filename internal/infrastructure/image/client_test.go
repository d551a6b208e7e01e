package image

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storygpt-api/internal/config"
)

func newTestClient(baseURL string) *Client {
	return NewClient(&config.ImageConfig{
		BaseURL:   baseURL,
		APIKey:    "test-key",
		Model:     "gpt-image-1",
		Timeout:   5 * time.Second,
		RetryMax:  1,
		RetryWait: 10 * time.Millisecond,
	})
}

func imageJSON(b64 string) []byte {
	out, _ := json.Marshal(map[string]any{
		"data": []map[string]string{{"b64_json": b64}},
	})
	return out
}

func TestClient_Generate(t *testing.T) {
	t.Run("返回响应中的 base64 数据", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/images/generations", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "a fox", body["prompt"])
			assert.Equal(t, "1024x1024", body["size"])

			w.Write(imageJSON("Zm9v"))
		}))
		defer srv.Close()

		got, err := newTestClient(srv.URL).Generate(context.Background(), GenerateParams{
			Prompt: "a fox", Size: "1024x1024", Quality: "low",
		})
		require.NoError(t, err)
		assert.Equal(t, "Zm9v", got)
	})

	t.Run("限流后按固定间隔重试", func(t *testing.T) {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Write(imageJSON("b2s="))
		}))
		defer srv.Close()

		got, err := newTestClient(srv.URL).Generate(context.Background(), GenerateParams{Prompt: "p"})
		require.NoError(t, err)
		assert.Equal(t, "b2s=", got)
		assert.Equal(t, 2, calls)
	})

	t.Run("重试耗尽后返回错误", func(t *testing.T) {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).Generate(context.Background(), GenerateParams{Prompt: "p"})
		require.Error(t, err)
		assert.Equal(t, 2, calls, "RetryMax 为 1 时总共调用两次")
	})

	t.Run("非限流错误不重试", func(t *testing.T) {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).Generate(context.Background(), GenerateParams{Prompt: "p"})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}

func TestClient_Edit(t *testing.T) {
	t.Run("multipart 提交全部参考图", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/images/edits", r.URL.Path)
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "composed prompt", r.FormValue("prompt"))
			assert.Equal(t, "gpt-image-1", r.FormValue("model"))
			assert.Len(t, r.MultipartForm.File["image[]"], 2)

			w.Write(imageJSON("ZWRpdA=="))
		}))
		defer srv.Close()

		got, err := newTestClient(srv.URL).Edit(context.Background(), EditParams{
			Prompt:  "composed prompt",
			Images:  [][]byte{{1, 2, 3}, {4, 5, 6}},
			Size:    "1024x1024",
			Quality: "low",
		})
		require.NoError(t, err)
		assert.Equal(t, "ZWRpdA==", got)
	})
}

func TestClient_Mock(t *testing.T) {
	t.Run("Mock 模式不发起请求直接返回占位图", func(t *testing.T) {
		c := NewClient(&config.ImageConfig{Mock: true})
		got, err := c.Generate(context.Background(), GenerateParams{Prompt: "p"})
		require.NoError(t, err)
		assert.NotEmpty(t, got)

		edited, err := c.Edit(context.Background(), EditParams{Prompt: "p", Images: [][]byte{{1}}})
		require.NoError(t, err)
		assert.Equal(t, got, edited)
	})
}
