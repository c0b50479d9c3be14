package cli

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/jerzydziewierz/second-opinion/internal/llm"
	llmcli "github.com/jerzydziewierz/second-opinion/internal/llm/cli"
	"github.com/jerzydziewierz/second-opinion/internal/llm/configbuilder"
)

// NewDoctorCmd returns a health-check command validating config and environment.
func NewDoctorCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Validate configuration and list enabled models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			models, err := configbuilder.Build(cfg, nil, nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config OK: %s\n", cfg.Path)
			if cfg.Healed {
				fmt.Fprintln(out, "Config file was missing or malformed and has been reset to defaults.")
			}
			prompt := "built-in default"
			if _, err := os.Stat(cfg.SystemPromptPath); err == nil {
				prompt = cfg.SystemPromptPath
			}
			fmt.Fprintf(out, "System prompt: %s\n", prompt)
			fmt.Fprintln(out, "Enabled models:")
			for _, id := range models.Enabled {
				route, err := models.Resolver.Resolve(id)
				if err != nil {
					fmt.Fprintf(out, "  %-10s error: %v\n", id, err)
					continue
				}
				fmt.Fprintf(out, "  %-10s %-32s provider=%s mode=%s%s\n", id, route.Model, route.Provider, route.Mode, binaryStatus(route))
			}
			for _, id := range models.Ignored {
				fmt.Fprintf(out, "  %-10s ignored: no provider matches\n", id)
			}
			return nil
		},
	}
}

// binaryStatus notes when a CLI-mode backend's executable is missing from PATH.
func binaryStatus(route llm.Route) string {
	if route.Mode != llm.ModeCLI {
		return ""
	}
	spec, err := llmcli.SpecFor(route.Provider, llmcli.SpecOptions{})
	if err != nil {
		return ""
	}
	if _, err := exec.LookPath(spec.Binary); err != nil {
		return fmt.Sprintf(" (%s not found in PATH)", spec.Binary)
	}
	return ""
}
