// Package dialogs uploads and deletes images in the skill's Yandex Dialogs
// image storage. The returned image id is what BigImage cards refer to.
package dialogs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/ermil/internal/common"
	"github.com/dmitrijs2005/ermil/internal/server/providers"
	"github.com/go-chi/chi/v5/middleware"
)

const providerName = "dialogs"

type Client struct {
	baseURL string
	skillID string
	token   string
	http    *http.Client
	caller  providers.Caller
}

func NewClient(baseURL, skillID, token string, httpClient *http.Client, caller providers.Caller) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		skillID: skillID,
		token:   token,
		http:    httpClient,
		caller:  caller,
	}
}

type uploadResponse struct {
	Image struct {
		ID string `json:"id"`
	} `json:"image"`
}

type deleteResponse struct {
	Result string `json:"result"`
}

func (c *Client) imagesURL() string {
	return c.baseURL + "/skills/" + url.PathEscape(c.skillID) + "/images"
}

// Upload stores a PNG and returns its image id. Every accepted POST creates
// a new image, so an attempt that timed out is not repeated.
func (c *Client) Upload(ctx context.Context, image []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "map.png")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(image); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}
	payload := body.Bytes()

	var id string
	err = c.caller.Submit(ctx, providerName, "upload", func(ctx context.Context) error {
		req, err := c.newRequest(ctx, http.MethodPost, c.imagesURL(), bytes.NewReader(payload))
		if err != nil {
			return providers.ClientError(providerName, "upload", 0, err)
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())

		var out uploadResponse
		status, err := c.do(req, "upload", &out)
		if err != nil {
			return err
		}
		if out.Image.ID == "" {
			return providers.ClientError(providerName, "upload", status, fmt.Errorf("empty image id"))
		}

		id = out.Image.ID
		return nil
	})
	if err != nil {
		return "", err
	}

	return id, nil
}

// Delete removes an image. A missing image is reported as a 404 provider
// error, see providers.IsNotFound.
func (c *Client) Delete(ctx context.Context, id string) error {
	target := c.imagesURL() + "/" + url.PathEscape(id)

	return c.caller.Do(ctx, providerName, "delete", func(ctx context.Context) error {
		req, err := c.newRequest(ctx, http.MethodDelete, target, nil)
		if err != nil {
			return providers.ClientError(providerName, "delete", 0, err)
		}

		var out deleteResponse
		status, err := c.do(req, "delete", &out)
		if err != nil {
			return err
		}
		if out.Result != "ok" {
			return providers.ClientError(providerName, "delete", status, fmt.Errorf("unexpected result %q", out.Result))
		}
		return nil
	})
}

func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "OAuth "+c.token)
	if id := middleware.GetReqID(ctx); id != "" {
		req.Header.Set(common.RequestIDHeader, id)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, op string, out any) (int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, providers.TransportError(providerName, op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, providers.TransportError(providerName, op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, providers.StatusError(providerName, op, resp.StatusCode, string(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return resp.StatusCode, providers.ClientError(providerName, op, resp.StatusCode,
			fmt.Errorf("decode response: %w", err))
	}

	return resp.StatusCode, nil
}
