package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/lingoz/internal/store"
	"github.com/abhisek/lingoz/internal/tutor"
)

// reviewKey stores the last generated review so the next one can build
// on it.
const reviewKey = "review:latest"

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show practice totals per lesson",
	RunE: func(cmd *cobra.Command, args []string) error {
		review, _ := cmd.Flags().GetBool("review")

		e, err := openEnv(cmd, envOptions{tutor: review})
		if err != nil {
			return err
		}
		defer e.Close()

		if e.events == nil {
			fmt.Println("Practice history is unavailable: the database could not be opened.")
			return nil
		}

		ctx := cmd.Context()
		stats, err := e.events.LessonStats(ctx)
		if err != nil {
			return fmt.Errorf("query stats: %w", err)
		}
		if len(stats) == 0 {
			fmt.Println("No practice recorded yet.")
			return nil
		}

		fmt.Printf("%-32s  %7s  %7s  %8s  %6s  %s\n",
			"Lesson", "Answers", "Correct", "Accuracy", "Points", "Last seen")
		fmt.Println(strings.Repeat("─", 84))

		var answers, correct, points int
		for _, st := range stats {
			title := st.LessonID
			if l, ok := e.lessons.Get(st.LessonID); ok {
				title = l.Title
			}
			last := "-"
			if !st.LastSeen.IsZero() {
				last = st.LastSeen.Local().Format("2006-01-02 15:04")
			}
			fmt.Printf("%-32s  %7d  %7d  %7.0f%%  %6d  %s\n",
				truncate(title, 32), st.Answers, st.Correct, st.Accuracy()*100, st.Points, last)
			answers += st.Answers
			correct += st.Correct
			points += st.Points
		}

		fmt.Println(strings.Repeat("─", 84))
		total := store.LessonStat{Answers: answers, Correct: correct}
		fmt.Printf("%-32s  %7d  %7d  %7.0f%%  %6d\n", "TOTAL", answers, correct, total.Accuracy()*100, points)

		if !review {
			return nil
		}
		if e.provider == nil {
			return fmt.Errorf("--review needs an LLM provider; set an API key (see lingoz --help)")
		}
		return printReview(ctx, e, stats)
	},
}

// printReview asks the tutor to review recent mistakes and saves the
// result for next time.
func printReview(ctx context.Context, e *env, stats []store.LessonStat) error {
	input := tutor.ReviewInput{Accuracy: make(map[string]float64, len(stats))}
	for _, st := range stats {
		if st.Answers > 0 {
			input.Accuracy[st.LessonID] = st.Accuracy()
		}
	}

	recent, err := e.events.QueryAnswers(ctx, store.QueryOpts{Limit: 500})
	if err != nil {
		return fmt.Errorf("query answers: %w", err)
	}
	sessions := make(map[string]bool)
	levels := make(map[string]int)
	for _, a := range recent {
		sessions[a.SessionID] = true
		l, ok := e.lessons.Get(a.LessonID)
		if ok && l.Level != "" {
			levels[l.Level]++
		}
		if a.Correct || len(input.Mistakes) >= tutor.MaxMistakes {
			continue
		}
		m := tutor.Mistake{Lesson: a.LessonID, Response: a.Response, Expected: a.Expected}
		if ok {
			m.Lesson = l.Title
			if b, found := l.Block(a.BlockID); found {
				if it, found := b.Item(a.ItemID); found {
					m.Prompt = it.Prompt
				}
			}
		}
		input.Mistakes = append(input.Mistakes, m)
	}
	input.Sessions = len(sessions)
	for lvl, n := range levels {
		if n > levels[input.Level] {
			input.Level = lvl
		}
	}

	if raw, err := e.adapter.Load(ctx, reviewKey); err == nil && len(raw) > 0 {
		var prev tutor.Review
		if json.Unmarshal(raw, &prev) == nil {
			input.Previous = &prev
		}
	}

	fmt.Println()
	fmt.Println("Asking the tutor for a review...")
	rev, err := tutor.NewReviewer(e.provider, tutor.DefaultReviewerConfig()).Review(ctx, input)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(rev.Summary)
	if len(rev.Strengths) > 0 {
		fmt.Println("\nStrengths:")
		for _, s := range rev.Strengths {
			fmt.Println("  ✓", s)
		}
	}
	if len(rev.Focus) > 0 {
		fmt.Println("\nFocus next:")
		for _, f := range rev.Focus {
			fmt.Println("  →", f)
		}
	}

	if raw, err := json.Marshal(rev); err == nil {
		_ = e.adapter.Save(ctx, reviewKey, raw)
	}
	return nil
}

func init() {
	statsCmd.Flags().Bool("review", false, "Ask the LLM tutor to review recent mistakes")
}
