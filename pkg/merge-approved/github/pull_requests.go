package github

import (
	"context"
	"strings"

	gogithub "github.com/google/go-github/v71/github"
	"github.com/pkg/errors"

	"github.com/Eun/merge-approved/pkg/merge-approved/common"
)

const pageSize = 100

// ListOpenPullRequests returns the open pull requests of the repository in
// the order github lists them.
func (c *Client) ListOpenPullRequests(
	ctx context.Context,
	repository *common.Repository,
	filter common.PullRequestFilter,
) ([]common.PullRequest, error) {
	opts := &gogithub.PullRequestListOptions{
		State:       "open",
		ListOptions: gogithub.ListOptions{PerPage: pageSize},
	}

	var pullRequests []common.PullRequest
	for {
		page, resp, err := c.rest.PullRequests.List(ctx, repository.OwnerName, repository.Name, opts)
		if err != nil {
			return nil, errors.Wrap(err, "unable to list pull requests")
		}

		for _, pr := range page {
			author := pr.GetUser().GetLogin()
			if filter.Author != "" && !strings.EqualFold(author, filter.Author) {
				continue
			}
			pullRequests = append(pullRequests, common.PullRequest{
				OwnerName: repository.OwnerName,
				RepoName:  repository.Name,
				Number:    int64(pr.GetNumber()),
				NodeID:    pr.GetNodeID(),
				Title:     pr.GetTitle(),
				Author:    author,
				URL:       pr.GetHTMLURL(),
			})
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return pullRequests, nil
}

// SubmitApproval approves the pull request at the given commit.
func (c *Client) SubmitApproval(ctx context.Context, pr *common.PullRequest, commitID string) error {
	_, _, err := c.rest.PullRequests.CreateReview(ctx, pr.OwnerName, pr.RepoName, int(pr.Number), &gogithub.PullRequestReviewRequest{
		CommitID: gogithub.Ptr(commitID),
		Event:    gogithub.Ptr("APPROVE"),
	})
	if err != nil {
		return errors.Wrap(err, "unable to approve pull request")
	}
	return nil
}

// MergePullRequest merges the pull request. A response that reports the pull
// request as not merged is returned as an error.
func (c *Client) MergePullRequest(ctx context.Context, pr *common.PullRequest, opts common.MergeOptions) error {
	result, _, err := c.rest.PullRequests.Merge(ctx, pr.OwnerName, pr.RepoName, int(pr.Number), "", &gogithub.PullRequestOptions{
		CommitTitle: opts.CommitTitle,
		MergeMethod: string(opts.Method),
	})
	if err != nil {
		return errors.Wrap(err, "unable to merge pull request")
	}
	if !result.GetMerged() {
		return errors.Errorf("pull request was not merged: %s", result.GetMessage())
	}
	return nil
}
