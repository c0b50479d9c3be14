package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jerzydziewierz/second-opinion/internal/prompt"
)

// NewInitPromptCmd writes the default system prompt so it can be customized.
func NewInitPromptCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "init-prompt",
		Short: "Create an editable copy of the default system prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			path := cfg.SystemPromptPath

			if err := prompt.Init(path); err != nil {
				if errors.Is(err, prompt.ErrPromptExists) {
					return fmt.Errorf("%w\nRemove it first if you want to reinitialize", err)
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created system prompt at: %s\n", path)
			fmt.Fprintln(out, "You can now edit this file to customize the system prompt.")
			return nil
		},
	}
}
