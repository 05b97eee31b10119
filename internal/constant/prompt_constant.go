package constant

const (
	// TutorSystemPrompt seeds every conversation transcript as the first
	// system turn. Stored snapshots carry it, so rewording it only affects
	// new sessions.
	TutorSystemPrompt = `You are a helpful and learned teacher. You help the users understand a study material in a simple manner based on their questions and the context retrieved. Keep the explanation simple and to the point, give suitable examples for the explanation also if possible.`

	// QAPromptTemplate wraps the retrieved context and the user's question
	// into the synthetic human turn sent to the model. %s slots: context,
	// question.
	QAPromptTemplate = `Context:
%s

Question:
%s`

	// NotesPromptTemplate turns the whole indexed corpus into study notes.
	// %s slot: blank-line-joined chunks.
	NotesPromptTemplate = `You are an academic expert who specializes in summarizing educational content into clear, structured notes for students.

Your task is to generate well detailed study notes from the provided context. The notes should follow these rules:
- Use bullet points for clarity.
- Include definitions, key facts, important concepts, and examples where applicable.
- Use simple and clear language for easy understanding.
- Preserve important technical terminology, formulas, or figures if present.
- Avoid copying the context verbatim — rephrase and simplify where appropriate.
- Organize content logically with proper indentation and formatting.
- Do not use '#'

Context:
%s

Now generate the notes below:
`

	// MCQPromptTemplate asks for exactly 10 questions with 4 options each
	// plus a consolidated answer key. The model output is stored verbatim;
	// pipeline.ValidateMCQ checks the shape advisorily. %s slot:
	// blank-line-joined chunks.
	MCQPromptTemplate = `You are an expert question paper setter for academic exams.

Generate 10 multiple choice questions (MCQs) based on the following context. Each question must have:
- Exactly 4 options (labeled A, B, C, D)
- Only one correct answer
- No repetition of questions
- The difficulty should be a mix of basic understanding and conceptual reasoning
- Do not use '#'

After listing all 10 questions, display the **correct answer** for each at the end in the format:
Answer Key:
1. A
2. C
...
10. B

Context:
%s

Generate the questions now:
`
)

const (
	// DefaultSessionTitle names sessions created implicitly; the first
	// question of such a session replaces it (auto-title).
	DefaultSessionTitle = "New Session"

	// AutoTitleMaxRunes caps how much of the first question becomes the
	// session title.
	AutoTitleMaxRunes = 50
)
