package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"housingprice/internal"
	"housingprice/internal/config"
	"housingprice/internal/util"
)

const maxPages = 200

// Client talks to the government search API and downloads bulletin pages.
type Client struct {
	cfg     config.Config
	http    *resty.Client
	limiter *RateLimiter
}

type searchResponse struct {
	ResultDocs []struct {
		Data struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			DocDate any    `json:"docDate"`
		} `json:"data"`
	} `json:"resultDocs"`
}

func NewClient(cfg config.Config) *Client {
	attempts := cfg.HTTPAttempts
	if attempts < 1 {
		attempts = 1
	}

	c := &Client{
		cfg:     cfg,
		limiter: NewRateLimiter(cfg.HTTPRateLimitRPS),
	}
	c.http = resty.New().
		SetTimeout(cfg.HTTPTimeout()).
		SetHeader("User-Agent", cfg.UserAgent).
		SetRetryCount(attempts-1).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || (resp != nil && isRetryableStatus(resp.StatusCode()))
		}).
		OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return c.limiter.WaitTurn(req.Context())
		})
	return c
}

// Search pages through the search API until a short or empty page and returns
// every document that has both a title and a URL.
func (c *Client) Search(ctx context.Context) ([]internal.Bulletin, error) {
	if err := c.cfg.Require("SEARCH_API_URL", c.cfg.SearchAPIURL); err != nil {
		return nil, err
	}
	pageSize := c.cfg.SearchPageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	out := []internal.Bulletin{}
	for page := 1; page <= maxPages; page++ {
		resp, err := c.http.R().
			SetContext(ctx).
			SetFormData(map[string]string{
				"qt":       c.cfg.SearchQuery,
				"siteCode": c.cfg.SearchSiteCode,
				"page":     strconv.Itoa(page),
				"pageSize": strconv.Itoa(pageSize),
			}).
			Post(c.cfg.SearchAPIURL)
		if err != nil {
			return nil, fmt.Errorf("search page %d: %w", page, err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("search api error: page=%d status=%d", page, resp.StatusCode())
		}

		var payload searchResponse
		if err := json.Unmarshal(resp.Body(), &payload); err != nil {
			return nil, fmt.Errorf("decode search page %d: %w", page, err)
		}

		for _, doc := range payload.ResultDocs {
			title := util.CleanText(doc.Data.Title)
			url := strings.TrimSpace(doc.Data.URL)
			if title == "" || url == "" {
				continue
			}
			out = append(out, internal.Bulletin{Title: title, URL: url, DocDate: docDateString(doc.Data.DocDate)})
		}
		slog.Debug("search page fetched", "page", page, "docs", len(payload.ResultDocs))

		if len(payload.ResultDocs) < pageSize {
			return out, nil
		}
	}
	return out, nil
}

// FetchHTML downloads a bulletin page.
func (c *Client) FetchHTML(ctx context.Context, url string) ([]byte, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("empty bulletin url")
	}
	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status=%d", url, resp.StatusCode())
	}
	return resp.Body(), nil
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// docDate arrives either as a string or as epoch milliseconds.
func docDateString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return time.UnixMilli(int64(t)).UTC().Format("2006-01-02")
	default:
		return ""
	}
}
