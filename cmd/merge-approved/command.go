package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Eun/merge-approved/cmd"
	"github.com/Eun/merge-approved/pkg/merge-approved/common"
	"github.com/Eun/merge-approved/pkg/merge-approved/engine"
	"github.com/Eun/merge-approved/pkg/merge-approved/github"
	"github.com/Eun/merge-approved/pkg/merge-approved/reporter"
)

type Command struct {
	Repository       string
	Author           string
	CIMode           string
	SlackWebhookURL  string
	SlackReportSkips bool
	EnvFile          string
	Debug            bool
	Trace            bool

	Token      string
	HTTPClient *http.Client
	Out        io.Writer
	Err        io.Writer
}

func newRootCommand(c *Command) *cobra.Command {
	command := &cobra.Command{
		Use:   "merge-approved [owner/repo]",
		Short: "Merge open pull requests that are approved and green",
		Long: `merge-approved runs one pass over the open pull requests of a repository.

A pull request is squash merged when the token can update it, all checks
succeeded, it is mergeable and it is approved. If the approval is the only
thing missing the pull request is approved with the token first, unless the
token authored or already approved it.

The token is read from GITHUB_TOKEN.

Example:
  merge-approved octo/hello
  merge-approved --repo octo/hello --author renovate[bot] --ci-mode rollup`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		PreRunE: func(cobraCmd *cobra.Command, args []string) error {
			var files []string
			if c.EnvFile != "" {
				files = append(files, c.EnvFile)
			}
			if err := cmd.LoadEnv(files...); err != nil {
				return err
			}
			if len(args) == 1 {
				c.Repository = args[0]
			}
			if c.Token == "" {
				c.Token = os.Getenv("GITHUB_TOKEN")
			}
			if c.SlackWebhookURL == "" {
				c.SlackWebhookURL = os.Getenv("SLACK_WEBHOOK_URL")
			}
			return nil
		},
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return c.Run(cobraCmd.Context())
		},
	}

	command.Flags().StringVar(&c.Repository, "repo", "", "repository to process (owner/repo or url)")
	command.Flags().StringVar(&c.Author, "author", "", "only process pull requests opened by this login")
	command.Flags().StringVar(&c.CIMode, "ci-mode", string(github.ChecksCIMode), "how checks are evaluated: checks or rollup")
	command.Flags().StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "post merges and failures to this slack webhook")
	command.Flags().BoolVar(&c.SlackReportSkips, "slack-report-skips", false, "also post skipped pull requests to slack")
	command.Flags().StringVar(&c.EnvFile, "env-file", "", "load environment variables from this file (default .env)")
	command.Flags().BoolVar(&c.Debug, "debug", false, "enable debug logging")
	command.Flags().BoolVar(&c.Trace, "trace", false, "enable trace logging, dumps status snapshots")

	return command
}

func (c *Command) logger() zerolog.Logger {
	level := zerolog.InfoLevel
	if c.Debug {
		level = zerolog.DebugLevel
	}
	if c.Trace {
		level = zerolog.TraceLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: c.Err}).With().Timestamp().Logger().Level(level)
}

// Run processes the repository once and prints a summary. It fails when the
// pull requests could not be listed or when any pull request failed.
func (c *Command) Run(ctx context.Context) error {
	logger := c.logger()

	repository, err := parseRepository(c.Repository)
	if err != nil {
		return err
	}
	if c.Token == "" {
		return errors.New("GITHUB_TOKEN is not set")
	}
	ciMode, err := github.ParseCIMode(c.CIMode)
	if err != nil {
		return err
	}

	reporters := engine.Reporters{&engine.LogReporter{Logger: &logger}}
	if c.SlackWebhookURL != "" {
		reporters = append(reporters, &reporter.SlackReporter{
			WebhookURL:  c.SlackWebhookURL,
			HTTPClient:  c.HTTPClient,
			Repository:  repository.FullName,
			ReportSkips: c.SlackReportSkips,
		})
	}

	orchestrator := engine.Orchestrator{
		Client:   github.NewClient(c.HTTPClient, c.Token, ciMode),
		Reporter: reporters,
		Logger:   &logger,
	}
	summary, err := orchestrator.Run(ctx, repository, common.PullRequestFilter{Author: c.Author})
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(c.Out, renderSummary(summary))
	return summary.Err()
}

// parseRepository accepts owner/repo and github urls.
func parseRepository(s string) (*common.Repository, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("no repository given")
	}
	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to parse repository url `%s'", s)
		}
		s = u.Path
	}
	s = strings.TrimSuffix(strings.Trim(s, "/"), ".git")

	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, errors.Errorf("repository must be in the form owner/repo, got `%s'", s)
	}
	return &common.Repository{
		FullName:  parts[0] + "/" + parts[1],
		OwnerName: parts[0],
		Name:      parts[1],
	}, nil
}
