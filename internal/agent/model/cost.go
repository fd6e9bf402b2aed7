package model

import (
	"github.com/cloudwego/eino/schema"
)

const tokensPerRate = 1_000_000

// Rate is the USD price of a million prompt and completion tokens.
type Rate struct {
	Prompt     float64
	Completion float64
}

// Bill is the USD cost of one model call.
type Bill struct {
	Input  float64
	Output float64
}

func (b Bill) Total() float64 { return b.Input + b.Output }

// Text-token list prices for the Gemini models this service is run with.
var rates = map[string]Rate{
	"gemini-2.5-pro":        {Prompt: 1.25, Completion: 10.00},
	"gemini-2.5-flash":      {Prompt: 0.30, Completion: 2.50},
	"gemini-2.5-flash-lite": {Prompt: 0.10, Completion: 0.40},
	"gemini-2.0-flash":      {Prompt: 0.10, Completion: 0.40},
}

// PriceFor returns the rate for name. Unlisted models are free.
func PriceFor(name string) Rate {
	return rates[name]
}

// Bill prices usage at r. Nil usage costs nothing.
func (r Rate) Bill(usage *schema.TokenUsage) Bill {
	if usage == nil {
		return Bill{}
	}
	return Bill{
		Input:  r.Prompt * float64(usage.PromptTokens) / tokensPerRate,
		Output: r.Completion * float64(usage.CompletionTokens) / tokensPerRate,
	}
}
