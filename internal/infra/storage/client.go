package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ホスト型ストレージの約束。アップロードはpresigned URL方式で、
// サーバー本体はファイル本文を扱わない。
type Service interface {
	PresignUpload(ctx context.Context, bucket, key, mimeType string, expiresIn time.Duration) (string, error)
	PresignDownload(ctx context.Context, bucket, key string, expiresIn time.Duration) (string, error)
	//存在すればサイズ（バイト）を返す
	Stat(ctx context.Context, bucket, key string) (int64, bool, error)
}

type httpClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPClient(baseURL, apiKey string) Service {
	return &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type presignResponse struct {
	SignedURL string `json:"signed_url"`
}

func (c *httpClient) PresignUpload(ctx context.Context, bucket, key, mimeType string, expiresIn time.Duration) (string, error) {
	q := url.Values{}
	q.Set("content_type", mimeType)
	q.Set("expires_in", strconv.Itoa(int(expiresIn.Seconds())))
	return c.presign(ctx, "upload", bucket, key, q)
}

func (c *httpClient) PresignDownload(ctx context.Context, bucket, key string, expiresIn time.Duration) (string, error) {
	q := url.Values{}
	q.Set("expires_in", strconv.Itoa(int(expiresIn.Seconds())))
	return c.presign(ctx, "download", bucket, key, q)
}

func (c *httpClient) presign(ctx context.Context, op, bucket, key string, q url.Values) (string, error) {
	u := fmt.Sprintf("%s/object/sign/%s/%s/%s?%s", c.baseURL, op, bucket, key, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("storage presign failed: %s", resp.Status)
	}

	var out presignResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.SignedURL == "" {
		return "", fmt.Errorf("storage presign: empty url")
	}
	return out.SignedURL, nil
}

func (c *httpClient) Stat(ctx context.Context, bucket, key string) (int64, bool, error) {
	u := fmt.Sprintf("%s/object/info/%s/%s", c.baseURL, bucket, key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, false, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return 0, false, nil
	}
	if resp.StatusCode >= 300 {
		return 0, false, fmt.Errorf("storage stat failed: %s", resp.Status)
	}

	var out struct {
		Size int64 `json:"size"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, false, err
	}
	return out.Size, true, nil
}
