package analytics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"
)

const (
	DefaultDimension = "ga:pagePath"
	LabelDimension   = "ga:eventLabel"

	eventsMetric = "ga:totalEvents"
)

var (
	// ErrTransport marks a non-success HTTP exchange with the analytics API.
	ErrTransport = errors.New("could not retrieve analytics events")
	// ErrMalformedResponse marks a body that cannot be decoded.
	ErrMalformedResponse = errors.New("malformed analytics response")
)

// Query selects the events to count. An empty Action matches every action
// of the category.
type Query struct {
	IDs       string
	Category  string
	Action    string
	StartDate string
	EndDate   string
	Dimension string

	// UnescapeKeys URL-decodes keys, for dimensions that carry escaped URLs.
	UnescapeKeys bool
}

func (q Query) filters() string {
	f := "ga:eventCategory==" + q.Category
	if q.Action != "" {
		f += ";ga:eventAction==" + q.Action
	}
	return f
}

func (q Query) dimension() string {
	if q.Dimension == "" {
		return DefaultDimension
	}
	return q.Dimension
}

type Row struct {
	Key   string
	Count string
}

// Page is one slice of a query result together with the reported total.
type Page struct {
	TotalResults int
	Rows         []Row
}

type Client interface {
	FetchEvents(ctx context.Context, q Query, startIndex, maxResults int) (Page, error)
}

type gaClient struct {
	baseURL     string
	accessToken string
	http        *http.Client
}

type gaResponse struct {
	TotalResults int        `json:"totalResults"`
	Rows         [][]string `json:"rows"`
}

// NewGAClient returns a client for the Core Reporting API v3. The access
// token is sent as a bearer token; obtaining it is left to the caller.
func NewGAClient(baseURL, accessToken string, client *http.Client) Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &gaClient{
		baseURL:     baseURL,
		accessToken: accessToken,
		http:        client,
	}
}

func (c *gaClient) FetchEvents(ctx context.Context, q Query, startIndex, maxResults int) (Page, error) {
	u, err := url.Parse(c.baseURL + "/data/ga")
	if err != nil {
		return Page{}, err
	}
	params := url.Values{}
	params.Set("ids", q.IDs)
	params.Set("start-date", q.StartDate)
	params.Set("end-date", q.EndDate)
	params.Set("metrics", eventsMetric)
	params.Set("dimensions", q.dimension())
	params.Set("filters", q.filters())
	params.Set("sort", "-"+eventsMetric)
	params.Set("start-index", strconv.Itoa(startIndex))
	params.Set("max-results", strconv.Itoa(maxResults))
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Page{}, err
	}
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Page{}, fmt.Errorf("%w: status %d: %s", ErrTransport, resp.StatusCode, string(body))
	}

	var out gaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Page{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	page := Page{TotalResults: out.TotalResults, Rows: make([]Row, 0, len(out.Rows))}
	for _, r := range out.Rows {
		if len(r) < 2 {
			return Page{}, fmt.Errorf("%w: row with %d cells", ErrMalformedResponse, len(r))
		}
		page.Rows = append(page.Rows, Row{Key: r[0], Count: r[1]})
	}
	return page, nil
}
