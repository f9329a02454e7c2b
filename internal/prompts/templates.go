package prompts

// Output discipline appended after every mode instruction. The sanitizer's
// preamble rules exist for models that ignore it.
const (
	OutputDiscipline = "IMPORTANT: Respond with ONLY the final text result. No explanations, no markdown formatting, no bullet points, no preambles, no quotes around the result. Just the direct text output."

	InputHeader = "Input text:"
	OutputCue   = "Output:"
)

// Sampling parameters shared by every rewrite call.
const (
	MaxOutputTokens = 4096
	TopP            = 0.8
	TopK            = 40
)
