package generation

import (
	"fmt"
	"strings"
)

// HintPrompt builds the prompt used to generate a hint for an interview
// question. The hint must nudge the user toward the answer without giving
// it away. The frequency score shapes how deep the hint should go.
func HintPrompt(questionText string, difficulty int) string {
	var b strings.Builder
	b.WriteString("You are an experienced technical interviewer helping a candidate prepare.\n")
	b.WriteString("Give a short hint for the interview question below.\n")
	b.WriteString("The hint must point at the key idea or the first step of the answer, ")
	b.WriteString("but must NOT contain the full answer.\n")
	b.WriteString("Keep it to 2-3 sentences. Reply in the language of the question.\n\n")
	fmt.Fprintf(&b, "Question (asked in interviews with frequency %d out of 9):\n%s\n",
		difficulty, strings.TrimSpace(questionText))
	return b.String()
}

// FeedbackPrompt builds the prompt used to review a user's answer to an
// interview question.
func FeedbackPrompt(questionText, answerText string, difficulty int) string {
	var b strings.Builder
	b.WriteString("You are an experienced technical interviewer reviewing a candidate's answer.\n")
	b.WriteString("Evaluate the answer to the question below: say what is correct, ")
	b.WriteString("what is missing or wrong, and briefly state what a strong answer covers.\n")
	b.WriteString("Be specific and constructive. Keep it under 200 words. ")
	b.WriteString("Reply in the language of the question.\n\n")
	fmt.Fprintf(&b, "Question (asked in interviews with frequency %d out of 9):\n%s\n\n",
		difficulty, strings.TrimSpace(questionText))
	fmt.Fprintf(&b, "Candidate's answer:\n%s\n", strings.TrimSpace(answerText))
	return b.String()
}
