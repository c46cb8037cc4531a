package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return the built-in default
	// or an error, depending on whether the prompt is known.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptClassifyIntent asks the model for one intent label.
	// The template expects a {question} placeholder.
	PromptClassifyIntent = "classify_intent"

	// PromptGroundedAnswer answers from retrieved context.
	// The template expects {context} and {question} placeholders.
	PromptGroundedAnswer = "grounded_answer"

	// PromptNoContextFallback is used when no retrieved chunk passed the similarity floor.
	// The template expects a {question} placeholder.
	PromptNoContextFallback = "no_context_fallback"
)

// Prompt template placeholders.
const (
	PlaceholderContext  = "{context}"
	PlaceholderQuestion = "{question}"
)

// PromptPlaceholders returns the placeholders each known template must contain.
func PromptPlaceholders() map[string][]string {
	return map[string][]string{
		PromptClassifyIntent:    {PlaceholderQuestion},
		PromptGroundedAnswer:    {PlaceholderContext, PlaceholderQuestion},
		PromptNoContextFallback: {PlaceholderQuestion},
	}
}
