// Package image 封装图像生成服务的 HTTP 客户端
package image

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"storygpt-api/internal/config"
	"storygpt-api/pkg/errors"
	"storygpt-api/pkg/logger"
	"storygpt-api/pkg/metrics"
	"storygpt-api/pkg/tracer"
)

// mockPixel 1x1 PNG,Mock 模式下返回
const mockPixel = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR4nGNgYAAAAAMAASsJTYQAAAAASUVORK5CYII="

// GenerateParams 文生图参数
type GenerateParams struct {
	Prompt  string
	Size    string
	Quality string
}

// EditParams 图像编辑参数,参考图在一次调用中全部提交
type EditParams struct {
	Prompt  string
	Images  [][]byte
	Size    string
	Quality string
}

// Client 图像生成服务客户端
type Client struct {
	cfg        *config.ImageConfig
	httpClient *http.Client
}

// NewClient 创建图像客户端
func NewClient(cfg *config.ImageConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Generate 调用文生图接口,返回 base64 编码的图像
func (c *Client) Generate(ctx context.Context, p GenerateParams) (string, error) {
	ctx, span := tracer.Start(ctx, "image.generate")
	defer span.End()
	span.SetAttributes(attribute.String("image.size", p.Size))

	if c.cfg.Mock {
		return mockPixel, nil
	}

	start := time.Now()
	body := map[string]any{
		"model":  c.cfg.Model,
		"prompt": p.Prompt,
		"n":      1,
	}
	if p.Size != "" {
		body["size"] = p.Size
	}
	if p.Quality != "" {
		body["quality"] = p.Quality
	}

	var resp imageResponse
	err := c.withRetry(ctx, func() error {
		return c.postJSON(ctx, "/images/generations", body, &resp)
	})
	c.observe("generate", start, err)
	if err != nil {
		return "", err
	}
	return resp.firstB64()
}

// Edit 调用图像编辑接口,multipart 提交参考图与合成提示词
func (c *Client) Edit(ctx context.Context, p EditParams) (string, error) {
	ctx, span := tracer.Start(ctx, "image.edit")
	defer span.End()
	span.SetAttributes(attribute.Int("image.reference_count", len(p.Images)))

	if c.cfg.Mock {
		return mockPixel, nil
	}

	start := time.Now()
	var resp imageResponse
	err := c.withRetry(ctx, func() error {
		return c.postMultipart(ctx, "/images/edits", p, &resp)
	})
	c.observe("edit", start, err)
	if err != nil {
		return "", err
	}
	return resp.firstB64()
}

func (c *Client) observe(mode string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.ImageGenerationTotal.WithLabelValues(mode, status).Inc()
	metrics.ImageGenerationDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}

// withRetry 限流错误按固定间隔重试,其他错误立即返回
func (c *Client) withRetry(ctx context.Context, call func() error) error {
	wait := c.cfg.RetryWait
	if wait <= 0 {
		wait = 60 * time.Second
	}
	var err error
	for attempt := 0; ; attempt++ {
		err = call()
		if err == nil || !isRateLimited(err) || attempt >= c.cfg.RetryMax {
			return err
		}
		logger.Warn(ctx, "image api rate limited, retrying",
			"attempt", attempt+1,
			"wait", wait.String(),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

type imageResponse struct {
	Data []struct {
		B64 string `json:"b64_json"`
		URL string `json:"url"`
	} `json:"data"`
}

func (r *imageResponse) firstB64() (string, error) {
	for _, d := range r.Data {
		if d.B64 != "" {
			return d.B64, nil
		}
	}
	return "", errors.New(errors.CodeImageProviderError, "no image data in response")
}

// statusError 保留上游状态码,用于识别限流
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("image api http %d: %s", e.status, e.body)
}

func isRateLimited(err error) bool {
	appErr, ok := err.(*errors.AppError)
	if !ok {
		return false
	}
	se, ok := appErr.Err.(*statusError)
	return ok && se.status == http.StatusTooManyRequests
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, errors.CodeImageProviderError, "failed to encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return errors.Wrap(err, errors.CodeImageProviderError, "failed to build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) postMultipart(ctx context.Context, path string, p EditParams, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("model", c.cfg.Model)
	_ = w.WriteField("prompt", p.Prompt)
	if p.Size != "" {
		_ = w.WriteField("size", p.Size)
	}
	if p.Quality != "" {
		_ = w.WriteField("quality", p.Quality)
	}
	for i, img := range p.Images {
		part, err := w.CreateFormFile("image[]", fmt.Sprintf("reference_%d.png", i))
		if err != nil {
			return errors.Wrap(err, errors.CodeImageProviderError, "failed to build multipart body")
		}
		if _, err := part.Write(img); err != nil {
			return errors.Wrap(err, errors.CodeImageProviderError, "failed to write reference image")
		}
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, errors.CodeImageProviderError, "failed to finalize multipart body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, &buf)
	if err != nil {
		return errors.Wrap(err, errors.CodeImageProviderError, "failed to build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.CodeImageProviderError, "image api request failed")
	}
	defer res.Body.Close()

	bodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrap(err, errors.CodeImageProviderError, "failed to read response")
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return errors.Wrap(
			&statusError{status: res.StatusCode, body: string(bodyBytes)},
			errors.CodeImageProviderError,
			"image api returned error status",
		)
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return errors.Wrap(err, errors.CodeImageProviderError, "failed to decode response")
	}
	return nil
}
