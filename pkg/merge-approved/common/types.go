package common

const (
	DelayUntilHeader = "DelayUntil"
)

type Repository struct {
	FullName  string `json:"full_name"`
	Name      string `json:"name"`
	NodeID    string `json:"node_id"`
	OwnerName string `json:"owner_name"`
	Private   bool   `json:"private"`
}

// PullRequest identifies one open pull request of a repository.
// It is fetched fresh on every pass and never modified afterwards.
type PullRequest struct {
	OwnerName string `json:"owner_name"`
	RepoName  string `json:"repo_name"`
	Number    int64  `json:"number"`
	NodeID    string `json:"node_id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	URL       string `json:"url"`
}

type Message interface {
	GetRepository() *Repository
}

type BaseMessage struct {
	InstallationID int64      `json:"installation_id"`
	Repository     Repository `json:"repository"`
}

func (m *BaseMessage) GetRepository() *Repository {
	return &m.Repository
}

// QueueRepositoryMessage requests one evaluation pass over all open pull
// requests of the repository.
type QueueRepositoryMessage struct {
	BaseMessage
	Event string `json:"event"`
}

// PullRequestFilter restricts which open pull requests are considered.
// An empty Author means all pull requests.
type PullRequestFilter struct {
	Author string
}

type MergeMethod string

const (
	MergeCommitMethod MergeMethod = "merge"
	SquashMergeMethod MergeMethod = "squash"
	RebaseMergeMethod MergeMethod = "rebase"
)

type MergeOptions struct {
	CommitTitle string
	Method      MergeMethod
}
