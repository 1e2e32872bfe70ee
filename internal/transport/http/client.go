package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"article-quiz-client/internal/domain"
)

const defaultBaseURL = "http://localhost:8000/api"

var ErrServiceUnavailable = errors.New("quiz service unavailable")

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Detail) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Detail
}

// TokenSource supplies the bearer credential for outgoing requests. An empty
// token means the request is sent without an Authorization header.
type TokenSource interface {
	Token() string
}

// Client talks to the quiz backend. API routes live under {base}/api, auth
// routes under the root.
type Client struct {
	apiBase    string
	authBase   string
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
}

type generateRequest struct {
	URL        string            `json:"url"`
	Difficulty domain.Difficulty `json:"difficulty"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
	Error  string          `json:"error"`
}

// NormalizeBaseURL returns the API base (always ending in /api) and the auth root.
func NormalizeBaseURL(raw string) (apiBase, authBase string) {
	base := strings.TrimRight(strings.TrimSpace(raw), "/")
	if base == "" {
		base = defaultBaseURL
	}
	if !strings.HasSuffix(base, "/api") {
		base += "/api"
	}
	return base, strings.TrimSuffix(base, "/api")
}

func NewClient(baseURL string, httpClient *http.Client, tokens TokenSource, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	apiBase, authBase := NormalizeBaseURL(baseURL)
	return &Client{
		apiBase:    apiBase,
		authBase:   authBase,
		httpClient: httpClient,
		tokens:     tokens,
		logger:     logger,
	}
}

// BaseURL is the normalized API base.
func (c *Client) BaseURL() string {
	return c.apiBase
}

func (c *Client) GenerateQuiz(ctx context.Context, sourceURL string, difficulty domain.Difficulty) (domain.Quiz, error) {
	var quiz domain.Quiz
	body := generateRequest{URL: sourceURL, Difficulty: difficulty}
	if err := c.doJSON(ctx, http.MethodPost, c.apiBase+"/generate-quiz", body, &quiz, nil); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// SubmitAttempt records an attempt. The session id is sent as an idempotency key.
func (c *Client) SubmitAttempt(ctx context.Context, sessionID string, attempt domain.AttemptSubmission) error {
	headers := http.Header{}
	if sessionID != "" {
		headers.Set("Idempotency-Key", sessionID)
	}
	return c.doJSON(ctx, http.MethodPost, c.apiBase+"/attempts", attempt, nil, headers)
}

func (c *Client) ListQuizzes(ctx context.Context) ([]domain.HistoryEntry, error) {
	var entries []domain.HistoryEntry
	if err := c.doJSON(ctx, http.MethodGet, c.apiBase+"/quizzes", nil, &entries, nil); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	return entries, nil
}

func (c *Client) LoadQuiz(ctx context.Context, quizID domain.QuizID) (domain.Quiz, error) {
	if strings.TrimSpace(string(quizID)) == "" {
		return domain.Quiz{}, errors.New("quiz id is required")
	}
	var quiz domain.Quiz
	err := c.doJSON(ctx, http.MethodGet, c.apiBase+"/quizzes/"+url.PathEscape(string(quizID)), nil, &quiz, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return domain.Quiz{}, fmt.Errorf("%w: %s", domain.ErrQuizNotFound, quizID)
	}
	if err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// Login exchanges credentials for an access token using the OAuth2 password form.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authBase+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var payload tokenResponse
	if err := c.do(request, &payload); err != nil {
		return "", err
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return "", errors.New("login response did not include an access token")
	}
	return payload.AccessToken, nil
}

func (c *Client) Register(ctx context.Context, email, password string) error {
	return c.doJSON(ctx, http.MethodPost, c.authBase+"/auth/register", registerRequest{Email: email, Password: password}, nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, fullURL string, requestBody any, responseBody any, headers http.Header) error {
	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return err
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set("Accept", "application/json")
	for key, values := range headers {
		for _, value := range values {
			request.Header.Add(key, value)
		}
	}
	if strings.HasPrefix(fullURL, c.apiBase+"/") {
		c.authorize(request)
	}
	return c.do(request, responseBody)
}

// authorize attaches the bearer credential to API routes; auth routes stay public.
func (c *Client) authorize(request *http.Request) {
	if c.tokens == nil {
		return
	}
	if token := c.tokens.Token(); token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) do(request *http.Request, responseBody any) error {
	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{StatusCode: response.StatusCode, Detail: readDetail(response.Body)}
		if apiErr.Detail == "" {
			apiErr.Detail = response.Status
		}
		c.logger.Debug("backend request failed",
			"method", request.Method,
			"path", request.URL.Path,
			"status", response.StatusCode,
			"detail", apiErr.Detail)
		return apiErr
	}

	if responseBody == nil {
		_, _ = io.Copy(io.Discard, response.Body)
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(responseBody); err != nil {
		return fmt.Errorf("decode %s response: %w", request.URL.Path, err)
	}
	return nil
}

// readDetail extracts a message from {"detail": "..."}, {"detail": [{"msg": "..."}]} or {"error": "..."}.
func readDetail(body io.Reader) string {
	var payload errorResponse
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return ""
	}
	if len(payload.Detail) > 0 {
		var text string
		if err := json.Unmarshal(payload.Detail, &text); err == nil {
			return strings.TrimSpace(text)
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(payload.Detail, &items); err == nil {
			messages := make([]string, 0, len(items))
			for _, item := range items {
				if item.Msg != "" {
					messages = append(messages, item.Msg)
				}
			}
			return strings.Join(messages, "; ")
		}
	}
	return strings.TrimSpace(payload.Error)
}
