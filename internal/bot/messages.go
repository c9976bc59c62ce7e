package bot

// User-facing message templates.
const (
	msgWelcome = `Welcome to the interview prep bot!

Every day you get a batch of interview questions, hardest first. Answer in free text, ask for hints, and get AI feedback on your answers.

Commands:
/quiz - get today's questions
/next - skip to the next question
/stats - your progress
/export - download your answered history
/reset - wipe your progress
/stop - pause the daily delivery
/resume - resume the daily delivery
/help - this message`

	msgNotAllowed = "This bot is private. Ask the owner to whitelist your chat ID."

	msgNoQuestionsLeft = "You have answered every question in the catalog. Use /reset to start over, or wait for new questions."

	msgQueueEmpty = "That was the last question for today. Come back tomorrow, or use /quiz for a fresh batch."

	msgAnswerSaved = "Answer saved. Feedback is on its way."

	msgNothingAwaited = "There is no question waiting for an answer right now. Use /quiz to get today's batch."

	msgEmptyAnswer = "That looks empty. Send your answer as plain text."

	msgReopened = "Send your new answer to replace the old one."

	msgMenu = "What would you like to do?"

	msgHintPending = "Working on a hint..."

	msgGenerationUnavailable = "The AI assistant is unavailable right now. Try again later."

	msgNothingToExport = "Nothing to export yet. Answer a few questions first."

	msgChooseExport = "Choose an export format:"

	msgResetConfirm = "This deletes all your answers, hints and feedback. Are you sure?"

	msgResetDone = "Progress wiped. Use /quiz to start again."

	msgUnknownCommand = "Unknown command. Use /help to see what I can do."

	msgStopped = "Daily delivery paused. Use /resume to get questions again, or /quiz for a batch on demand."

	msgResumed = "Daily delivery resumed. The next batch arrives on schedule."
)
