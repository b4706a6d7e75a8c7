package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/lingoz/internal/speech"
)

var sayCmd = &cobra.Command{
	Use:   "say <text>...",
	Short: "Read text aloud with the configured speech engine",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := speech.ConfigFromEnv()
		if a, _ := cmd.Flags().GetString("accent"); a != "" {
			cfg.Accent = speech.NormalizeTag(a)
		}
		if r, _ := cmd.Flags().GetFloat64("rate"); r > 0 {
			cfg.Rate = speech.ClampRate(r)
		}
		if e, _ := cmd.Flags().GetString("engine"); e != "" {
			cfg.Engine = strings.ToLower(e)
		}
		if cfg.Engine == speech.EngineOff {
			return fmt.Errorf("speech is turned off (LINGOZ_TTS_ENGINE=off)")
		}

		synth, err := speech.NewSynthesizer(cfg)
		if err != nil {
			return fmt.Errorf("speech engine: %w", err)
		}
		sink, err := speech.DetectSink()
		if err != nil {
			return fmt.Errorf("audio player: %w", err)
		}

		req := speech.Normalize(speech.Request{
			Text:        strings.Join(args, " "),
			LanguageTag: cfg.Accent,
			Rate:        cfg.Rate,
		})

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
		defer cancel()

		audio, err := synth.Synthesize(ctx, req)
		if err != nil {
			return err
		}
		if v, _ := cmd.Flags().GetBool("verbose"); v {
			fmt.Printf("%s · %s · ×%.2g · %d bytes\n", synth.Name(), req.LanguageTag, req.Rate, len(audio))
		}
		return sink.Play(ctx, audio)
	},
}

func init() {
	sayCmd.Flags().Float64("rate", 0, "Speech rate (0.7 to 1.25)")
	sayCmd.Flags().String("engine", "", "Speech engine: auto, google, espeak, translate")
	sayCmd.Flags().BoolP("verbose", "v", false, "Print the engine and voice used")
}
