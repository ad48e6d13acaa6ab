package ai

// TopicInstructions is the fixed system prompt bound to the classifier.
// Result extraction relies on the reply holding a JSON array with one
// element per input text, in input order.
const TopicInstructions = `You are a topic modeling assistant for transcribed speech.
You receive a JSON object of the form {"textDocuments": ["text 1", "text 2", ...]}.
For each text, identify exactly one main topic and write a short description of it.
Write the topic and the description in the same language as the text.
Answer with a JSON array containing exactly one object per input text, in the same order as the input:
[{"topic": "<topic>", "description": "<short description>"}, ...]
Do not add any other keys.`

// AssistantConfig is the immutable definition of the classification assistant
type AssistantConfig struct {
	Name         string
	Model        string
	Instructions string
	Temperature  float64
	TopP         float64
}

// NewAssistantConfig returns the topic assistant definition for model
func NewAssistantConfig(model string, temperature, topP float64) AssistantConfig {
	return AssistantConfig{
		Name:         "speech-insights-topics",
		Model:        model,
		Instructions: TopicInstructions,
		Temperature:  temperature,
		TopP:         topP,
	}
}
