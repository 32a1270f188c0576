package llm

// Meter converts token usage into a dollar amount.
type Meter interface {
	Cost(model string, promptTokens, completionTokens int) float64
}

// MeterFunc adapts a function to Meter
type MeterFunc func(model string, promptTokens, completionTokens int) float64

// Cost implements Meter
func (f MeterFunc) Cost(model string, promptTokens, completionTokens int) float64 {
	return f(model, promptTokens, completionTokens)
}

// ImageMeter is implemented by meters that charge a flat amount per
// rendered image on top of token usage.
type ImageMeter interface {
	ImageCost(model string) float64
}

// Price is the USD cost per million tokens for one model, plus a flat
// amount for each image it renders.
type Price struct {
	InputPerMillion  float64
	OutputPerMillion float64
	PerImage         float64
}

// Pricing maps model identifiers to prices. Unknown models cost nothing.
type Pricing map[string]Price

// DefaultPricing returns list prices for the default Gemini models
func DefaultPricing() Pricing {
	return Pricing{
		"gemini-2.5-flash-lite":  {InputPerMillion: 0.10, OutputPerMillion: 0.40},
		"gemini-2.5-flash":       {InputPerMillion: 0.30, OutputPerMillion: 2.50},
		"gemini-2.5-pro":         {InputPerMillion: 1.25, OutputPerMillion: 10.00},
		"gemini-2.5-flash-image": {InputPerMillion: 0.30, OutputPerMillion: 2.50, PerImage: 0.039},
	}
}

// Cost implements Meter
func (p Pricing) Cost(model string, promptTokens, completionTokens int) float64 {
	price, ok := p[model]
	if !ok {
		return 0
	}
	if promptTokens < 0 {
		promptTokens = 0
	}
	if completionTokens < 0 {
		completionTokens = 0
	}
	return (float64(promptTokens)*price.InputPerMillion + float64(completionTokens)*price.OutputPerMillion) / 1_000_000
}

// ImageCost implements ImageMeter
func (p Pricing) ImageCost(model string) float64 {
	price, ok := p[model]
	if !ok || price.PerImage < 0 {
		return 0
	}
	return price.PerImage
}
