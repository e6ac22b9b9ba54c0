package audio

import "math"

// DefaultSampleRate is used until the output reports its real rate
const DefaultSampleRate = 48000

// noiseHz is the rate of the sine the noise term is derived from
const noiseHz = 0.1

// Params controls the Distortion stage
type Params struct {
	Pregain          float32 `json:"pregain"`          // linear gain before shaping
	Postgain         float32 `json:"postgain"`         // linear gain after shaping
	BitDepth         int     `json:"bitDepth"`         // quantize to 2^BitDepth levels
	DownsampleFactor int     `json:"downsampleFactor"` // hold each sample this many calls
	Resolution       float32 `json:"resolution"`       // second quantizer, steps of 1/Resolution
	NoiseAmount      float32 `json:"noiseAmount"`
	Feedback         float32 `json:"feedback"`
}

// NinParams is the crunchy 90s multi-effect preset
func NinParams() Params {
	return Params{
		Pregain:          8,
		Postgain:         0.6,
		BitDepth:         8,
		DownsampleFactor: 6,
		Resolution:       16,
		NoiseAmount:      0.04,
		Feedback:         0.3,
	}
}

// CleanParams leaves the hold stage transparent and adds no noise or feedback
func CleanParams() Params {
	return Params{
		Pregain:          1,
		Postgain:         1,
		BitDepth:         16,
		DownsampleFactor: 1,
		Resolution:       0,
		NoiseAmount:      0,
		Feedback:         0,
	}
}

// Distortion is a bit-crushing, sample-holding, one-sided clipping degrader.
// One instance belongs to one Sampler and is only touched from the audio callback.
type Distortion struct {
	sampleRate      float32
	downsampleCount int
	held            float32
	noisePhase      float32
}

// NewDistortion creates a distortion stage at DefaultSampleRate
func NewDistortion() *Distortion {
	return &Distortion{sampleRate: DefaultSampleRate}
}

// SetSampleRate sets the rate the noise oscillator runs at
func (d *Distortion) SetSampleRate(hz int) {
	if hz > 0 {
		d.sampleRate = float32(hz)
	}
}

// Reset clears the hold, counter and noise phase
func (d *Distortion) Reset() {
	d.downsampleCount = 0
	d.held = 0
	d.noisePhase = 0
}

// Tick processes one sample
func (d *Distortion) Tick(input float32, p Params) float32 {
	signal := input * p.Pregain

	factor := p.DownsampleFactor
	if factor < 1 {
		factor = 1
	}

	// Sample-rate reduction: requantize on the first call of each period, hold otherwise
	if d.downsampleCount == 0 {
		steps := float32(uint64(1) << uint(clampInt(p.BitDepth, 1, 32)))
		signal = round32(signal*steps) / steps
	} else {
		signal = d.held
	}
	d.downsampleCount = (d.downsampleCount + 1) % factor
	d.held = signal

	// One-sided clip
	signal = clamp32(signal, -0.98, 1)

	d.noisePhase += noiseHz * (2 * math.Pi / d.sampleRate)
	if d.noisePhase >= 2*math.Pi {
		d.noisePhase = float32(math.Mod(float64(d.noisePhase), 2*math.Pi))
	}
	signal += float32(math.Sin(float64(d.noisePhase))) * p.NoiseAmount

	if p.Resolution > 0 {
		step := 1 / p.Resolution
		signal = round32(signal/step) * step
	}

	signal += d.held * p.Feedback
	signal *= p.Postgain
	return clamp32(signal, -1, 1)
}

func round32(v float32) float32 {
	return float32(math.Round(float64(v)))
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
