package github

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	gogithub "github.com/google/go-github/v71/github"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	maxBodyBytes = 1024 * 1024 * 16
	graphQLURL   = "https://api.github.com/graphql"
)

var _ zerolog.LogObjectMarshaler = &ResponseError{}

type ResponseError struct {
	Message            string
	ActualStatusCode   int
	ExpectedStatusCode int
	Body               string
	NextError          error
}

func (e *ResponseError) Error() string {
	var sb strings.Builder
	if e.Message != "" {
		sb.WriteString(e.Message)
	}

	if e.NextError != nil {
		if sb.Len() > 0 {
			sb.WriteString(": ")
		}
		sb.WriteString(e.NextError.Error())
	}

	return sb.String()
}

func (e *ResponseError) Unwrap() error {
	return e.NextError
}

func (e *ResponseError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("message", e.Message)
	if e.ActualStatusCode != e.ExpectedStatusCode {
		ev.Int("actual_status_code", e.ActualStatusCode)
		ev.Int("expected_status_code", e.ExpectedStatusCode)
	}
	ev.Err(e.NextError)
}

type GraphQLErrors struct {
	Errors []string
}

func (g GraphQLErrors) Error() string {
	return strings.Join(g.Errors, "\n")
}

// CIMode selects how ci signals are fetched for a status snapshot.
type CIMode string

const (
	// ChecksCIMode enumerates the check runs and legacy status contexts
	// of the head commit.
	ChecksCIMode CIMode = "checks"
	// RollupCIMode only fetches the precomputed status check rollup.
	RollupCIMode CIMode = "rollup"
)

func ParseCIMode(s string) (CIMode, error) {
	switch CIMode(strings.ToLower(strings.TrimSpace(s))) {
	case ChecksCIMode, "":
		return ChecksCIMode, nil
	case RollupCIMode:
		return RollupCIMode, nil
	}
	return "", errors.Errorf("unknown ci mode `%s'", s)
}

// Client talks to the github REST and GraphQL apis on behalf of one token.
type Client struct {
	HTTPClient *http.Client
	Token      string
	CIMode     CIMode

	rest *gogithub.Client
}

func NewClient(httpClient *http.Client, token string, ciMode CIMode) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if ciMode == "" {
		ciMode = ChecksCIMode
	}
	return &Client{
		HTTPClient: httpClient,
		Token:      token,
		CIMode:     ciMode,
		rest:       gogithub.NewClient(httpClient).WithAuthToken(token),
	}
}

func (c *Client) doGraphQLRequest(ctx context.Context, query string, variables any) ([]byte, error) {
	var body bytes.Buffer
	err := json.NewEncoder(&body).Encode(struct {
		Query     string `json:"query"`
		Variables any    `json:"variables"`
	}{
		Query:     query,
		Variables: variables,
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to create body")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, graphQLURL, &body)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create request")
	}

	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "unable to execute request")
	}
	defer resp.Body.Close()

	buf, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "unable to copy body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.WithStack(&ResponseError{
			Message:            "request failed",
			ActualStatusCode:   resp.StatusCode,
			ExpectedStatusCode: http.StatusOK,
			Body:               string(buf),
		})
	}
	var response struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(buf, &response); err != nil {
		return nil, errors.WithStack(&ResponseError{
			Message:            "unable to decode body",
			ActualStatusCode:   resp.StatusCode,
			ExpectedStatusCode: http.StatusOK,
			Body:               string(buf),
			NextError:          err,
		})
	}

	if size := len(response.Errors); size > 0 {
		errorStrings := make([]string, size)
		for i := 0; i < size; i++ {
			errorStrings[i] = response.Errors[i].Message
		}
		return nil, GraphQLErrors{Errors: errorStrings}
	}

	return response.Data, nil
}

func decodeData(buf []byte, v any) error {
	if err := json.Unmarshal(buf, v); err != nil {
		return errors.WithStack(&ResponseError{
			Message:            "unable to decode body",
			ExpectedStatusCode: http.StatusOK,
			Body:               string(buf),
			NextError:          err,
		})
	}
	return nil
}
