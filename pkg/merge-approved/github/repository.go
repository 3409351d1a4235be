package github

import (
	"context"
	"fmt"
	"io"
	"net/http"

	gengraphql "github.com/Eun/go-gen-graphql"
	"github.com/pkg/errors"

	"github.com/Eun/merge-approved/pkg/merge-approved/common"
)

const ConfigPath = ".github/merge-approved.yml"

var rawContentURL = "https://raw.githubusercontent.com"

// GetLatestBaseCommitSha returns the head sha of the default branch.
func (c *Client) GetLatestBaseCommitSha(ctx context.Context, repo *common.Repository) (string, error) {
	var response struct {
		Data struct {
			Repository struct {
				DefaultBranchRef struct {
					Target struct {
						Oid string `json:"oid"`
					} `json:"target"`
				} `json:"defaultBranchRef"`
			} `json:"repository" graphql:"repository(owner: $owner, name: $name)"`
		} `graphql:"query GetLatestBaseCommitSha($owner: String!, $name: String!)"`
	}

	query, err := gengraphql.Generate(&response, nil)
	if err != nil {
		return "", errors.Wrap(err, "unable to build query")
	}

	buf, err := c.doGraphQLRequest(ctx, query, map[string]any{
		"owner": repo.OwnerName,
		"name":  repo.Name,
	})
	if err != nil {
		return "", errors.Wrap(err, "unable to get latest commit sha for default branch")
	}
	if err := decodeData(buf, &response.Data); err != nil {
		return "", err
	}
	return response.Data.Repository.DefaultBranchRef.Target.Oid, nil
}

// GetConfig downloads the config file at the given sha.
// It returns nil without an error when the repository has no config file.
func (c *Client) GetConfig(ctx context.Context, repository *common.Repository, sha string) ([]byte, error) {
	r, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		fmt.Sprintf("%s/%s/%s/%s", rawContentURL, repository.FullName, sha, ConfigPath),
		http.NoBody,
	)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create request")
	}

	r.Header.Add("Accept", "application/vnd.github.raw")
	r.Header.Add("X-GitHub-Api-Version", "2022-11-28")
	r.Header.Add("Authorization", "Bearer "+c.Token)

	resp, err := c.HTTPClient.Do(r)
	if err != nil {
		return nil, errors.Wrap(err, "unable to execute request")
	}
	defer resp.Body.Close()

	buf, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "unable to copy body")
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.WithStack(&ResponseError{
			Message:            "error when getting config",
			ActualStatusCode:   resp.StatusCode,
			ExpectedStatusCode: http.StatusOK,
			Body:               string(buf),
		})
	}
	return buf, nil
}
