package tutor

import (
	"fmt"
	"sort"
	"strings"
)

const explainSystemPrompt = `You are a friendly English teacher helping an adult learner who just answered an exercise incorrectly. Be brief, concrete and kind.`

func buildExplainUserMessage(input Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Lesson: %s\n", input.LessonTitle)
	if input.Level != "" {
		fmt.Fprintf(&b, "Level: %s\n", input.Level)
	}
	if input.Accent != "" {
		fmt.Fprintf(&b, "Variety of English: %s\n", input.Accent)
	}
	fmt.Fprintf(&b, "Exercise: %s\n", input.BlockTitle)
	if input.Instructions != "" {
		fmt.Fprintf(&b, "Instructions: %s\n", input.Instructions)
	}

	fmt.Fprintf(&b, "\nPrompt: %s\n", input.Prompt)
	if len(input.Options) > 0 {
		fmt.Fprintf(&b, "Options: %s\n", strings.Join(input.Options, " | "))
	}
	fmt.Fprintf(&b, "Learner answered: %s\n", input.Response)
	fmt.Fprintf(&b, "Expected answer: %s\n", input.Expected)

	b.WriteString(`
Instructions:
1. Explain in 1-3 sentences why the expected answer is right and why the learner's answer does not fit here.
2. If the learner's answer is also acceptable English in another variety or context, say so.
3. Give one short tip the learner can remember next time.
4. Use plain text. No markdown.`)

	return b.String()
}

const reviewSystemPrompt = `You are reviewing an adult English learner's recent practice. The review is shown to the learner, so address them directly and keep it encouraging but specific.`

func buildReviewUserMessage(input ReviewInput) string {
	var b strings.Builder

	if input.Level != "" {
		fmt.Fprintf(&b, "Level: %s\n", input.Level)
	}
	fmt.Fprintf(&b, "Sessions so far: %d\n", input.Sessions)

	b.WriteString("\nAccuracy by lesson:\n")
	lessons := make([]string, 0, len(input.Accuracy))
	for id := range input.Accuracy {
		lessons = append(lessons, id)
	}
	sort.Strings(lessons)
	for _, id := range lessons {
		fmt.Fprintf(&b, "- %s: %.0f%%\n", id, input.Accuracy[id]*100)
	}

	b.WriteString("\nRecent mistakes:\n")
	if len(input.Mistakes) == 0 {
		b.WriteString("None\n")
	}
	for _, m := range input.Mistakes {
		fmt.Fprintf(&b, "- [%s] %q: answered %q, expected %q\n", m.Lesson, m.Prompt, m.Response, m.Expected)
	}

	if input.Previous != nil {
		fmt.Fprintf(&b, "\nPrevious review:\n%s\n", input.Previous.Summary)
		fmt.Fprintf(&b, "Focus then: %s\n", strings.Join(input.Previous.Focus, ", "))
	}

	b.WriteString(`
Instructions:
1. Write a 3-5 sentence summary of how the learner is doing.
2. List 2-4 specific strengths.
3. List 2-4 specific things to practise next, based on the mistakes above.
If a previous review exists, mention progress on its focus points.`)

	return b.String()
}
