package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jerzydziewierz/second-opinion/internal/advisor"
	"github.com/jerzydziewierz/second-opinion/internal/daemon"
)

// NewConsultCmd runs one request through the pipeline and prints the answer.
func NewConsultCmd(opts *Options) *cobra.Command {
	var (
		model     string
		files     []string
		diffFiles []string
		baseRef   string
		repoPath  string
		plain     bool
	)

	cmd := &cobra.Command{
		Use:   "consult \"<prompt>\"",
		Short: "Ask the configured model once and print the response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // best-effort

			adv, _, err := daemon.NewAdvisor(cfg, nil, logger, nil)
			if err != nil {
				return err
			}

			payload := advisor.Args{Prompt: args[0], Files: files, Model: strings.TrimSpace(model)}
			if len(diffFiles) > 0 || cmd.Flags().Changed("base-ref") || cmd.Flags().Changed("repo") {
				payload.GitDiff = &advisor.GitDiffArgs{RepoPath: repoPath, Files: diffFiles, BaseRef: baseRef}
			}
			raw, err := json.Marshal(payload)
			if err != nil {
				return err
			}
			parsed, err := advisor.ParseArgs(raw, adv.Enabled())
			if err != nil {
				return err
			}

			tool := advisor.ToolConsult
			if plain {
				tool = advisor.ToolGetAdvice
			}
			res, err := adv.Run(cmd.Context(), tool, parsed)
			if err != nil {
				return fmt.Errorf("LLM query failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Text())
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Model alias or name (default: configured default)")
	cmd.Flags().StringSliceVar(&files, "file", nil, "Context file (repeatable or comma-separated)")
	cmd.Flags().StringSliceVar(&diffFiles, "diff-file", nil, "File to include in the git diff (repeatable or comma-separated)")
	cmd.Flags().StringVar(&baseRef, "base-ref", "HEAD", "Git reference to diff against")
	cmd.Flags().StringVar(&repoPath, "repo", "", "Git repository path (default: current directory)")
	cmd.Flags().BoolVar(&plain, "plain", false, "Omit the timing line")
	return cmd
}
