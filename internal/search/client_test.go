package search

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"housingprice/internal/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, payload any) *http.Response {
	blob, _ := json.Marshal(payload)
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(string(blob))),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func testClient(rt roundTripFunc) *Client {
	cfg := config.Config{
		SearchAPIURL:     "https://search.example.test/query/s",
		SearchSiteCode:   "site",
		SearchQuery:      "70个大中城市商品住宅销售价格变动",
		SearchPageSize:   2,
		HTTPTimeoutMs:    1000,
		HTTPAttempts:     3,
		HTTPRateLimitRPS: 0,
		UserAgent:        "test",
	}
	client := NewClient(cfg)
	client.http.SetTransport(rt)
	client.http.SetRetryWaitTime(time.Millisecond)
	client.http.SetRetryMaxWaitTime(2 * time.Millisecond)
	return client
}

func doc(title, url string, docDate any) map[string]any {
	return map[string]any{"data": map[string]any{"title": title, "url": url, "docDate": docDate}}
}

func TestSearchPaginatesWithRetry(t *testing.T) {
	calls := 0
	pages := []string{}
	client := testClient(func(r *http.Request) (*http.Response, error) {
		calls++
		if r.Method != http.MethodPost || r.URL.Path != "/query/s" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if calls == 1 {
			return jsonResponse(http.StatusServiceUnavailable, map[string]any{"error": "busy"}), nil
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		page := r.PostForm.Get("page")
		pages = append(pages, page)
		switch page {
		case "1":
			return jsonResponse(http.StatusOK, map[string]any{"resultDocs": []any{
				doc("<em>2024年2月</em>份70个大中城市商品住宅销售价格变动情况", "https://example.test/2.html", "2024-03-15"),
				doc("", "https://example.test/no-title.html", nil),
			}}), nil
		default:
			return jsonResponse(http.StatusOK, map[string]any{"resultDocs": []any{
				doc("2024年1月份70个大中城市商品住宅销售价格变动情况", "https://example.test/1.html", float64(1708041600000)),
			}}), nil
		}
	})

	bulletins, err := client.Search(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(bulletins) != 2 {
		t.Fatalf("len=%d", len(bulletins))
	}
	if strings.Join(pages, ",") != "1,2" {
		t.Fatalf("pages=%v", pages)
	}
	if bulletins[0].Title != "2024年2月份70个大中城市商品住宅销售价格变动情况" {
		t.Fatalf("title=%q", bulletins[0].Title)
	}
	if bulletins[1].DocDate != "2024-02-16" {
		t.Fatalf("docDate=%q", bulletins[1].DocDate)
	}
}

func TestSearchStopsOnEmptyPage(t *testing.T) {
	calls := 0
	client := testClient(func(r *http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			return jsonResponse(http.StatusOK, map[string]any{"resultDocs": []any{
				doc("a", "https://example.test/a.html", ""),
				doc("b", "https://example.test/b.html", ""),
			}}), nil
		}
		return jsonResponse(http.StatusOK, map[string]any{"resultDocs": []any{}}), nil
	})

	bulletins, err := client.Search(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(bulletins) != 2 || calls != 2 {
		t.Fatalf("len=%d calls=%d", len(bulletins), calls)
	}
}

func TestFetchHTMLExhaustsRetries(t *testing.T) {
	attempts := 0
	client := testClient(func(r *http.Request) (*http.Response, error) {
		attempts++
		return nil, errors.New("connection reset")
	})

	if _, err := client.FetchHTML(context.Background(), "https://example.test/1.html"); err == nil {
		t.Fatal("expected error")
	}
	if attempts != 3 {
		t.Fatalf("attempts=%d", attempts)
	}
}

func TestFetchHTML(t *testing.T) {
	client := testClient(func(r *http.Request) (*http.Response, error) {
		if r.Header.Get("User-Agent") != "test" {
			t.Fatalf("user agent=%q", r.Header.Get("User-Agent"))
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader("<html><table></table></html>")),
			Header:     make(http.Header),
		}, nil
	})

	body, err := client.FetchHTML(context.Background(), "https://example.test/1.html")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "<table>") {
		t.Fatalf("body=%q", body)
	}
}
