package cmd

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/uyouii/lossopt/session"
	"github.com/uyouii/lossopt/tui"
	"github.com/uyouii/lossopt/utils"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Adjust the parameters interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		// stderr shares the terminal with the UI
		if err := utils.RedirectOutput(cfg.Log.File); err != nil {
			return err
		}

		ctx := context.Background()
		reducer := session.NewReducer(newEngine(cfg), session.LimitsFromConfig(cfg))
		initial := session.State{Inputs: session.InputsFromConfig(cfg)}

		m := tui.New(ctx, reducer, initial, tui.Config{
			Debounce: cfg.TUI.Debounce.Duration,
			DataPath: cfg.Distribution.DataPath,
			Column:   cfg.Distribution.Column,
		})
		_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
