package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"

	"github.com/Eun/merge-approved/pkg/merge-approved/common"
)

const maxBodyBytes = 1024 * 1024 * 16

var _ http.Handler = &Handler{}

type GetLoggerForContext func(ctx context.Context) *zerolog.Logger

type Publisher interface {
	Publish(logger *zerolog.Logger, subject, dedupeKey string, msg any) error
}

// Handler receives github webhooks. Every event that can change whether a
// pull request is eligible for merging queues one pass over the open pull
// requests of its repository.
type Handler struct {
	GetLoggerForContext         GetLoggerForContext
	AllowedRepositories         common.RegexSlice
	AllowOnlyPublicRepositories bool

	Publisher         Publisher
	RepositorySubject string
}

var pullRequestActions = []string{"opened", "reopened", "synchronize", "ready_for_review"}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.RequestURI != "/" && r.RequestURI != "" {
		h.respond(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "https://github.com/Eun/merge-approved", http.StatusTemporaryRedirect)
		return
	}

	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.GetLoggerForContext(r.Context()).Error().Err(err).Msg("unable to read body")
		h.respond(w, http.StatusBadRequest, "bad request")
		return
	}

	githubEvent := r.Header.Get("X-GitHub-Event")
	githubID := r.Header.Get("X-GitHub-Delivery")

	if githubID == "" {
		githubID = uuid.NewString()
	}

	logger := h.GetLoggerForContext(r.Context()).With().Str("event", githubEvent).Logger()
	if logger.GetLevel() == zerolog.TraceLevel {
		logger.Trace().Str("body", string(body)).Msg("got event")
	} else {
		logger.Debug().Msg("got event")
	}

	baseRequest := h.unmarshalAndValidateRequest(&logger, body, w)
	if baseRequest == nil {
		return
	}

	var handle bool
	switch githubEvent {
	case "check_run", "check_suite":
		handle, err = isCompleted(&logger, baseRequest)
	case "status":
		handle, err = isFinalStatus(&logger, body)
	case "pull_request":
		handle, err = isOpenPullRequestWithAction(&logger, body, pullRequestActions...)
	case "pull_request_review":
		handle, err = isOpenPullRequestWithAction(&logger, body, "submitted")
	default:
		logger.Debug().Msg("event is not handled")
	}
	if err != nil {
		logger.Error().Err(err).Msg("unable to decode request")
		h.respond(w, http.StatusBadRequest, "bad request")
		return
	}
	if !handle {
		h.respond(w, http.StatusOK, "ok")
		return
	}

	if err := h.queueRepositoryMessage(&logger, githubEvent, githubID, baseRequest); err != nil {
		logger.Error().Err(err).Msg("unable to queue repository message")
		h.respond(w, http.StatusInternalServerError, "error")
		return
	}
	h.respond(w, http.StatusOK, "ok")
}

func (h *Handler) unmarshalAndValidateRequest(rootLogger *zerolog.Logger, body []byte, w http.ResponseWriter) *BaseRequest {
	var req BaseRequest
	if err := json.Unmarshal(body, &req); err != nil {
		rootLogger.Error().Err(err).Msg("unable to decode request")
		h.respond(w, http.StatusBadRequest, "bad request")
		return nil
	}

	if !req.IsValid(rootLogger) {
		h.respond(w, http.StatusOK, "ok")
		return nil
	}

	if h.AllowOnlyPublicRepositories && req.Repository.Private {
		rootLogger.Warn().Str("repo", req.Repository.FullName).Msg("repository is not allowed (it is private)")
		h.respond(w, http.StatusOK, "ok")
		return nil
	}

	if h.AllowedRepositories.ContainsOneOf(req.Repository.FullName) == "" {
		rootLogger.Warn().Str("repo", req.Repository.FullName).Msg("repository is not allowed")
		h.respond(w, http.StatusOK, "ok")
		return nil
	}
	return &req
}

func isCompleted(logger *zerolog.Logger, req *BaseRequest) (bool, error) {
	if req.Action != "completed" {
		logger.Debug().Msg("action is not completed")
		return false, nil
	}
	return true, nil
}

func isFinalStatus(logger *zerolog.Logger, body []byte) (bool, error) {
	var req struct {
		State string `json:"state"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return false, err
	}
	if req.State == "" || req.State == "pending" {
		logger.Debug().Str("state", req.State).Msg("status is not final")
		return false, nil
	}
	return true, nil
}

func isOpenPullRequestWithAction(logger *zerolog.Logger, body []byte, actions ...string) (bool, error) {
	var req struct {
		Action      string `json:"action"`
		PullRequest struct {
			Number int64  `json:"number"`
			State  string `json:"state"`
		} `json:"pull_request"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return false, err
	}

	if req.PullRequest.Number == 0 {
		logger.Debug().Msg("no pull_request.number present in request")
		return false, nil
	}
	if req.PullRequest.State != "open" {
		logger.Debug().Msg("pull_request.state is not `open'")
		return false, nil
	}
	if !slices.Contains(actions, req.Action) {
		logger.Debug().Msgf("action is not one of %s", strings.Join(actions, ", "))
		return false, nil
	}
	return true, nil
}

func (h *Handler) queueRepositoryMessage(
	logger *zerolog.Logger,
	githubEvent string,
	eventID string,
	req *BaseRequest,
) error {
	return h.Publisher.Publish(
		logger,
		h.RepositorySubject+"."+eventID,
		fmt.Sprintf("repository.%d.%s", req.Installation.ID, req.Repository.NodeID),
		&common.QueueRepositoryMessage{
			BaseMessage: common.BaseMessage{
				InstallationID: req.Installation.ID,
				Repository:     req.repository(),
			},
			Event: githubEvent,
		})
}

func (h *Handler) respond(w http.ResponseWriter, statusCode int, status string) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = fmt.Fprintf(w, `{"status": %q}`, status)
}
