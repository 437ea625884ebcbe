package lights

import (
	"fmt"
	"strings"
)

// WeightedLightSampler selects lights with fixed probabilities.
// Weights match the order of the lights slice and are normalized to sum to 1.
type WeightedLightSampler struct {
	lights  []Light
	weights []float64
}

// NewWeightedLightSampler creates a light sampler with specified weights.
// All-zero weights fall back to a uniform distribution.
func NewWeightedLightSampler(lights []Light, weights []float64) *WeightedLightSampler {
	if len(lights) != len(weights) {
		panic(fmt.Sprintf("lights length (%d) must match weights length (%d)", len(lights), len(weights)))
	}

	normalizedWeights := make([]float64, len(weights))
	totalWeight := 0.0
	for i, weight := range weights {
		if weight < 0 {
			panic(fmt.Sprintf("light %d has negative weight %f", i, weight))
		}
		totalWeight += weight
	}

	if totalWeight == 0 {
		for i := range normalizedWeights {
			normalizedWeights[i] = 1.0 / float64(len(weights))
		}
	} else {
		for i, weight := range weights {
			normalizedWeights[i] = weight / totalWeight
		}
	}

	return &WeightedLightSampler{lights: lights, weights: normalizedWeights}
}

// NewUniformLightSampler creates a light sampler with equal weights for all lights
func NewUniformLightSampler(lights []Light) *WeightedLightSampler {
	return NewWeightedLightSampler(lights, make([]float64, len(lights)))
}

// NewPowerLightSampler weights every light by the luminance of its emitted power.
// Lights must be preprocessed first so infinite and directional lights know the scene size.
func NewPowerLightSampler(lights []Light) *WeightedLightSampler {
	weights := make([]float64, len(lights))
	for i, light := range lights {
		weights[i] = max(light.Power().Luminance(), 0)
	}
	return NewWeightedLightSampler(lights, weights)
}

// SampleLight implements LightSampler using the cumulative distribution of the weights
func (wls *WeightedLightSampler) SampleLight(u float64) (Light, float64, int) {
	if len(wls.lights) == 0 {
		return nil, 0.0, -1
	}

	var cumulativeProbability float64
	for i := range wls.lights {
		cumulativeProbability += wls.weights[i]
		if u < cumulativeProbability && wls.weights[i] > 0 {
			return wls.lights[i], wls.weights[i], i
		}
	}

	// Rounding can leave u just past the final sum; use the last selectable light
	for i := len(wls.lights) - 1; i >= 0; i-- {
		if wls.weights[i] > 0 {
			return wls.lights[i], wls.weights[i], i
		}
	}
	return nil, 0.0, -1
}

// Probability implements LightSampler
func (wls *WeightedLightSampler) Probability(index int) float64 {
	if index < 0 || index >= len(wls.weights) {
		return 0.0
	}
	return wls.weights[index]
}

// Count implements LightSampler
func (wls *WeightedLightSampler) Count() int {
	return len(wls.lights)
}

// String returns a string representation for debugging
func (wls *WeightedLightSampler) String() string {
	if len(wls.lights) == 0 {
		return "WeightedLightSampler{no lights}"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "WeightedLightSampler{%d lights with fixed weights:\n", len(wls.lights))
	for i, light := range wls.lights {
		fmt.Fprintf(&b, "  [%d] %s: %.1f%%\n", i, light.Type(), wls.weights[i]*100)
	}
	b.WriteString("}")
	return b.String()
}
