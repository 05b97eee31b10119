package embedding

import "fmt"

// NewEmbeddingProvider selects a provider by name the same way the LLM
// factory does.
func NewEmbeddingProvider(providerType, apiKey, baseURL, model string) (EmbeddingProvider, error) {
	switch providerType {
	case "gemini":
		if apiKey == "" {
			return nil, fmt.Errorf("gemini embedding provider requires an api key")
		}
		return NewGeminiProvider(apiKey, model), nil
	case "ollama":
		return NewOllamaProvider(baseURL, model), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", providerType)
	}
}
