// Package staticmap renders a satellite map image centred on a point with
// the Yandex Static Maps API.
package staticmap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/ermil/internal/common"
	"github.com/dmitrijs2005/ermil/internal/server/providers"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	providerName = "staticmap"

	layers = "sat,skl"
	pin    = "pm2dgl"

	maxImageSize = 8 << 20
)

type Client struct {
	baseURL string
	http    *http.Client
	caller  providers.Caller
}

func NewClient(baseURL string, httpClient *http.Client, caller providers.Caller) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, http: httpClient, caller: caller}
}

// Render fetches the map image for the given latitude and longitude. The
// API takes longitude first, so the pair is swapped here.
func (c *Client) Render(ctx context.Context, lat, lon string) ([]byte, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("bad static maps url: %w", err)
	}

	point := lon + "," + lat
	q := u.Query()
	q.Set("l", layers)
	q.Set("ll", point)
	q.Set("pt", point+","+pin)
	u.RawQuery = q.Encode()

	var image []byte
	err = c.caller.Do(ctx, providerName, "render", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return providers.ClientError(providerName, "render", 0, err)
		}
		if id := middleware.GetReqID(ctx); id != "" {
			req.Header.Set(common.RequestIDHeader, id)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return providers.TransportError(providerName, "render", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
		if err != nil {
			return providers.TransportError(providerName, "render", err)
		}

		if resp.StatusCode != http.StatusOK {
			return providers.StatusError(providerName, "render", resp.StatusCode, string(body))
		}
		if len(body) == 0 {
			return providers.ClientError(providerName, "render", resp.StatusCode, fmt.Errorf("empty image"))
		}

		image = body
		return nil
	})
	if err != nil {
		return nil, err
	}

	return image, nil
}
