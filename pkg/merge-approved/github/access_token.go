package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"

	"github.com/Eun/merge-approved/pkg/merge-approved/common"
)

var apiURL = "https://api.github.com"

type AccessToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type accessTokenPermissions struct {
	PullRequests string `json:"pull_requests"`
	Contents     string `json:"contents"`
	Checks       string `json:"checks"`
	Statuses     string `json:"statuses"`
}

// GetAccessToken creates an installation access token for the github app,
// scoped to the repository.
func GetAccessToken(
	ctx context.Context,
	client *http.Client,
	appID int64,
	privateKey []byte,
	repository *common.Repository,
	installationID int64,
) (*AccessToken, error) {
	var body bytes.Buffer
	err := json.NewEncoder(&body).Encode(struct {
		Repositories []string               `json:"repositories"`
		Permissions  accessTokenPermissions `json:"permissions"`
	}{
		Repositories: []string{repository.Name},
		Permissions: accessTokenPermissions{
			PullRequests: "write",
			Contents:     "write",
			Checks:       "read",
			Statuses:     "read",
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to create body")
	}

	r, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		fmt.Sprintf("%s/app/installations/%d/access_tokens", apiURL, installationID),
		&body,
	)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create request")
	}

	signed, err := signAppJWT(appID, privateKey, time.Now())
	if err != nil {
		return nil, err
	}

	r.Header.Set("Authorization", "Bearer "+signed)
	r.Header.Add("Accept", "application/vnd.github+json")
	r.Header.Add("X-GitHub-Api-Version", "2022-11-28")

	resp, err := client.Do(r)
	if err != nil {
		return nil, errors.Wrap(err, "unable to execute request")
	}
	defer resp.Body.Close()

	buf, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "unable to copy body")
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, errors.WithStack(&ResponseError{
			Message:            "error when getting access token",
			ActualStatusCode:   resp.StatusCode,
			ExpectedStatusCode: http.StatusCreated,
			Body:               string(buf),
		})
	}

	var token AccessToken
	if err := json.Unmarshal(buf, &token); err != nil {
		return nil, errors.WithStack(&ResponseError{
			Message:            "unable to decode body",
			ActualStatusCode:   resp.StatusCode,
			ExpectedStatusCode: http.StatusCreated,
			Body:               string(buf),
			NextError:          err,
		})
	}

	return &token, nil
}

// signAppJWT builds the short lived jwt that authenticates as the app.
// The issue time is backdated to tolerate clock drift.
func signAppJWT(appID int64, privateKey []byte, now time.Time) (string, error) {
	const maxIssueTime = time.Minute * 2
	iss := now.Add(-30 * time.Second).Truncate(time.Second)
	claims := &jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(iss),
		ExpiresAt: jwt.NewNumericDate(iss.Add(maxIssueTime)),
		Issuer:    strconv.FormatInt(appID, 10),
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM(privateKey)
	if err != nil {
		return "", errors.Wrap(err, "could not parse private key")
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", errors.Wrap(err, "could not sign jwt")
	}
	return signed, nil
}
