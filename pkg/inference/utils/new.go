package inferenceutils

import (
	"fmt"

	"github.com/papercomputeco/adjacent/pkg/inference"
	"github.com/papercomputeco/adjacent/pkg/inference/ollama"
	"github.com/papercomputeco/adjacent/pkg/inference/openai"
)

type NewInferenceDriverOpts struct {
	ProviderType string
	TargetURL    string
	APIKey       string
	Model        string
}

func NewInferenceDriver(o *NewInferenceDriverOpts) (inference.Driver, error) {
	switch o.ProviderType {
	case "openai":
		return openai.NewDriver(openai.Config{
			APIKey:  o.APIKey,
			BaseURL: o.TargetURL,
			Model:   o.Model,
		})
	case "ollama":
		return ollama.NewDriver(ollama.Config{
			BaseURL: o.TargetURL,
			Model:   o.Model,
		})
	default:
		return nil, fmt.Errorf("unsupported inference provider: %s", o.ProviderType)
	}
}
