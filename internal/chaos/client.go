package chaos

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

var (
	// ErrTransport marks a non-success HTTP exchange with CHAOS.
	ErrTransport = errors.New("could not retrieve from CHAOS")
	// ErrServiceReported marks an Error node inside a successful response.
	ErrServiceReported = errors.New("CHAOS reported an error")
	// ErrMalformedResponse marks a body that is not a CHAOS envelope.
	ErrMalformedResponse = errors.New("malformed CHAOS response")
)

// ServiceError carries the message CHAOS put in its Error node.
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return "chaos: " + e.Message
}

func (e *ServiceError) Is(target error) bool {
	return target == ErrServiceReported
}

// PageRequest is one /Object/Get call. Session is optional.
type PageRequest struct {
	Query     string
	Sort      string
	Session   string
	PageIndex int
	PageSize  int
}

type Client interface {
	CreateSession(ctx context.Context) (string, error)
	Login(ctx context.Context, session, email, password string) error
	FetchPage(ctx context.Context, req PageRequest) ([]Object, error)
}

type httpClient struct {
	baseURL         string
	accessPointGUID string
	http            *http.Client
}

// NewClient returns a CHAOS portal client. accessPointGUID scopes anonymous
// requests and is ignored once a session is in use.
func NewClient(baseURL, accessPointGUID string, client *http.Client) Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpClient{
		baseURL:         baseURL,
		accessPointGUID: accessPointGUID,
		http:            client,
	}
}

func (c *httpClient) CreateSession(ctx context.Context) (string, error) {
	q := url.Values{}
	q.Set("protocolVersion", "4")

	var env envelope[sessionResult]
	if err := c.get(ctx, "/Session/Create", q, &env); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	results, err := unwrap(env)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	if len(results) == 0 || results[0].SessionGUID == "" {
		return "", fmt.Errorf("create session: %w: no SessionGUID", ErrMalformedResponse)
	}
	return results[0].SessionGUID, nil
}

func (c *httpClient) Login(ctx context.Context, session, email, password string) error {
	q := url.Values{}
	q.Set("email", email)
	q.Set("password", password)
	q.Set("sessionGUID", session)

	var env envelope[struct{}]
	if err := c.get(ctx, "/EmailPassword/Login", q, &env); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if _, err := unwrap(env); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return nil
}

func (c *httpClient) FetchPage(ctx context.Context, req PageRequest) ([]Object, error) {
	q := url.Values{}
	q.Set("query", req.Query)
	q.Set("sort", req.Sort)
	q.Set("pageIndex", strconv.Itoa(req.PageIndex))
	q.Set("pageSize", strconv.Itoa(req.PageSize))
	q.Set("includeMetadata", "true")
	q.Set("includeFiles", "true")
	q.Set("includeObjectRelations", "true")
	q.Set("includeAccessPoints", "true")
	if req.Session != "" {
		q.Set("sessionGUID", req.Session)
	} else if c.accessPointGUID != "" {
		q.Set("accessPointGUID", c.accessPointGUID)
	}

	var env envelope[Object]
	if err := c.get(ctx, "/Object/Get", q, &env); err != nil {
		return nil, fmt.Errorf("get objects page %d: %w", req.PageIndex, err)
	}
	objects, err := unwrap(env)
	if err != nil {
		return nil, fmt.Errorf("get objects page %d: %w", req.PageIndex, err)
	}
	return objects, nil
}

func (c *httpClient) get(ctx context.Context, path string, q url.Values, out any) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return err
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrTransport, resp.StatusCode)
	}

	if err := xml.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// unwrap strips the ModuleResults/ModuleResult layers and surfaces Error nodes.
func unwrap[T any](env envelope[T]) ([]T, error) {
	if len(env.ModuleResults) == 0 {
		return nil, fmt.Errorf("%w: no ModuleResult", ErrMalformedResponse)
	}
	mr := env.ModuleResults[0]
	if msg, ok := mr.Error.reported(); ok {
		return nil, &ServiceError{Message: msg}
	}
	return mr.Results, nil
}
