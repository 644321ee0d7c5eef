package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
)

type apiClient struct {
	http *resty.Client
}

func newAPIClient(baseURL, apiKey string) *apiClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(60*time.Second).
		SetHeader("X-API-Key", apiKey)
	return &apiClient{http: c}
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *apiClient) post(ctx context.Context, path string, body any) (*apiEnvelope, []byte, error) {
	var env apiEnvelope
	req := c.http.R().
		SetContext(ctx).
		SetResult(&env).
		SetError(&env)
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Post(path)
	if err != nil {
		return nil, nil, err
	}
	if resp.IsError() {
		return nil, nil, fmt.Errorf("server returned %d: %s", resp.StatusCode(), env.Message)
	}
	return &env, resp.Body(), nil
}

// bulkCreate calls POST /locks/create/{total} and returns the raw response
// body.
func (c *apiClient) bulkCreate(ctx context.Context, total int) ([]byte, error) {
	_, body, err := c.post(ctx, fmt.Sprintf("/locks/create/%d", total), nil)
	return body, err
}

type uploadTarget struct {
	StorageAssetID string `json:"storageAssetId"`
	UploadURL      string `json:"uploadUrl"`
}

// uploadMedia asks the server for a presigned URL, PUTs the file there and
// registers the resulting media object on the lock.
func (c *apiClient) uploadMedia(ctx context.Context, lockID int64, fileName string, content []byte, isImage, isMain bool) ([]byte, error) {
	env, _, err := c.post(ctx, "/media-objects/upload-url", map[string]any{"lockId": lockID})
	if err != nil {
		return nil, err
	}
	var target uploadTarget
	if err := json.Unmarshal(env.Data, &target); err != nil {
		return nil, fmt.Errorf("decode upload target: %w", err)
	}

	if err := c.putPresigned(ctx, target.UploadURL, content); err != nil {
		return nil, err
	}

	publicURL, err := stripQuery(target.UploadURL)
	if err != nil {
		return nil, err
	}
	_, body, err := c.post(ctx, "/media-objects", map[string]any{
		"lockId":         lockID,
		"storageAssetId": target.StorageAssetID,
		"url":            publicURL,
		"fileName":       filepath.Base(fileName),
		"isImage":        isImage,
		"isMainPicture":  isMain,
	})
	return body, err
}

func (c *apiClient) putPresigned(ctx context.Context, target string, content []byte) error {
	// presigned requests must not carry the API key
	resp, err := resty.New().
		SetTimeout(5*time.Minute).
		R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(content).
		Put(target)
	if err != nil {
		return err
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("upload failed: %s; body: %s", resp.Status(), resp.String())
	}
	return nil
}

func stripQuery(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid upload url: %w", err)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
