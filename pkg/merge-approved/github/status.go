package github

import (
	"context"

	gengraphql "github.com/Eun/go-gen-graphql"
	"github.com/pkg/errors"

	"github.com/Eun/merge-approved/pkg/merge-approved/common"
)

// statusQuery is the combined status query. C is the shape of the head
// commit, which depends on the ci mode.
type statusQuery[C any] struct {
	Data struct {
		Repository struct {
			PullRequest struct {
				Mergeable                string `json:"mergeable"`
				ReviewDecision           string `json:"reviewDecision"`
				ViewerCanUpdate          bool   `json:"viewerCanUpdate"`
				ViewerDidAuthor          bool   `json:"viewerDidAuthor"`
				LatestOpinionatedReviews struct {
					Nodes []struct {
						ViewerDidAuthor bool `json:"viewerDidAuthor"`
					} `json:"nodes"`
				} `json:"latestOpinionatedReviews" graphql:"latestOpinionatedReviews(first: 10, writersOnly: true)"`
				Commits struct {
					Nodes []struct {
						Commit C `json:"commit"`
					} `json:"nodes"`
				} `json:"commits" graphql:"commits(last: 1)"`
			} `json:"pullRequest" graphql:"pullRequest(number: $number)"`
		} `json:"repository" graphql:"repository(owner: $owner, name: $name)"`
	} `graphql:"query GetStatusSnapshot($owner: String!, $name: String!, $number: Int!)"`
}

type rollupCommit struct {
	Oid               string `json:"oid"`
	StatusCheckRollup *struct {
		State string `json:"state"`
	} `json:"statusCheckRollup"`
}

type detailedCommit struct {
	Oid         string `json:"oid"`
	CheckSuites struct {
		Nodes []struct {
			CheckRuns struct {
				Nodes []struct {
					Name       string `json:"name"`
					Conclusion string `json:"conclusion"`
					Permalink  string `json:"permalink"`
				} `json:"nodes"`
			} `json:"checkRuns" graphql:"checkRuns(last: 100)"`
		} `json:"nodes"`
	} `json:"checkSuites" graphql:"checkSuites(last: 100)"`
	Status *struct {
		Contexts []struct {
			Context     string `json:"context"`
			State       string `json:"state"`
			TargetURL   string `json:"targetUrl"`
			Description string `json:"description"`
		} `json:"contexts"`
	} `json:"status"`
}

func queryStatus[C any](ctx context.Context, c *Client, pr *common.PullRequest) (*statusQuery[C], error) {
	var response statusQuery[C]
	query, err := gengraphql.Generate(&response, nil)
	if err != nil {
		return nil, errors.Wrap(err, "unable to build query")
	}

	buf, err := c.doGraphQLRequest(ctx, query, map[string]any{
		"owner":  pr.OwnerName,
		"name":   pr.RepoName,
		"number": pr.Number,
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to get pull request status")
	}
	if err := decodeData(buf, &response.Data); err != nil {
		return nil, err
	}
	return &response, nil
}

// GetStatusSnapshot fetches mergeability, review state, viewer permissions
// and the ci signals of the head commit in a single query.
func (c *Client) GetStatusSnapshot(ctx context.Context, pr *common.PullRequest) (*common.StatusSnapshot, error) {
	if c.CIMode == RollupCIMode {
		response, err := queryStatus[rollupCommit](ctx, c, pr)
		if err != nil {
			return nil, err
		}
		snapshot := newSnapshot(response)
		state := common.StatusState("")
		if nodes := response.Data.Repository.PullRequest.Commits.Nodes; len(nodes) != 0 {
			snapshot.LatestCommitID = nodes[0].Commit.Oid
			if rollup := nodes[0].Commit.StatusCheckRollup; rollup != nil {
				state = common.StatusState(rollup.State)
			}
		}
		snapshot.CombinedState = &state
		return snapshot, nil
	}

	response, err := queryStatus[detailedCommit](ctx, c, pr)
	if err != nil {
		return nil, err
	}
	snapshot := newSnapshot(response)
	if nodes := response.Data.Repository.PullRequest.Commits.Nodes; len(nodes) != 0 {
		commit := &nodes[0].Commit
		snapshot.LatestCommitID = commit.Oid
		for _, suite := range commit.CheckSuites.Nodes {
			for _, run := range suite.CheckRuns.Nodes {
				snapshot.CheckRuns = append(snapshot.CheckRuns, common.CheckRun{
					Name:       run.Name,
					Conclusion: common.CheckConclusion(run.Conclusion),
					Permalink:  run.Permalink,
				})
			}
		}
		if commit.Status != nil {
			for _, sc := range commit.Status.Contexts {
				snapshot.StatusContexts = append(snapshot.StatusContexts, common.StatusContext{
					Context:     sc.Context,
					State:       common.StatusState(sc.State),
					TargetURL:   sc.TargetURL,
					Description: sc.Description,
				})
			}
		}
	}
	return snapshot, nil
}

func newSnapshot[C any](response *statusQuery[C]) *common.StatusSnapshot {
	pr := &response.Data.Repository.PullRequest
	snapshot := &common.StatusSnapshot{
		Mergeable:       common.MergeableState(pr.Mergeable),
		ReviewDecision:  common.ReviewDecision(pr.ReviewDecision),
		ViewerCanUpdate: pr.ViewerCanUpdate,
		ViewerDidAuthor: pr.ViewerDidAuthor,
	}
	for _, node := range pr.LatestOpinionatedReviews.Nodes {
		if node.ViewerDidAuthor {
			snapshot.ViewerDidApprove = true
			break
		}
	}
	return snapshot
}

// GetReviewDecision only fetches the review decision of the pull request.
func (c *Client) GetReviewDecision(ctx context.Context, pr *common.PullRequest) (common.ReviewDecision, error) {
	var response struct {
		Data struct {
			Repository struct {
				PullRequest struct {
					ReviewDecision string `json:"reviewDecision"`
				} `json:"pullRequest" graphql:"pullRequest(number: $number)"`
			} `json:"repository" graphql:"repository(owner: $owner, name: $name)"`
		} `graphql:"query GetReviewDecision($owner: String!, $name: String!, $number: Int!)"`
	}

	query, err := gengraphql.Generate(&response, nil)
	if err != nil {
		return "", errors.Wrap(err, "unable to build query")
	}

	buf, err := c.doGraphQLRequest(ctx, query, map[string]any{
		"owner":  pr.OwnerName,
		"name":   pr.RepoName,
		"number": pr.Number,
	})
	if err != nil {
		return "", errors.Wrap(err, "unable to get review decision")
	}
	if err := decodeData(buf, &response.Data); err != nil {
		return "", err
	}
	return common.ReviewDecision(response.Data.Repository.PullRequest.ReviewDecision), nil
}
