package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/lingoz/internal/app"
)

// runApp opens the store, builds dependencies, and launches the TUI.
// startLesson, when set, opens that lesson directly.
func runApp(cmd *cobra.Command, startLesson string) error {
	e, err := openEnv(cmd, envOptions{speech: true, tutor: true})
	if err != nil {
		return err
	}
	defer e.Close()

	opts := app.Options{
		Lessons:     e.lessons,
		Adapter:     e.adapter,
		Events:      e.events,
		Speech:      e.speech,
		Accent:      e.speechCfg.Accent,
		Rate:        e.speechCfg.Rate,
		Strict:      e.strict,
		StartLesson: startLesson,
	}
	// A nil *tutor.Service must stay a nil interface.
	if e.tutor != nil {
		opts.Tutor = e.tutor
	}

	return app.Run(opts)
}

var playCmd = &cobra.Command{
	Use:   "play [lesson-id]",
	Short: "Open a lesson, or the lesson menu when no id is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := ""
		if len(args) == 1 {
			start = args[0]
		}
		return runApp(cmd, start)
	},
}
