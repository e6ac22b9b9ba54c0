package audio

import (
	"math"
	"testing"
)

func wobble(i int) float32 {
	return float32(0.4 * math.Sin(float64(i)*0.7))
}

func TestDistortion_DownsampleFactorOneRequantizesEveryCall(t *testing.T) {
	d := NewDistortion()
	p := CleanParams()
	p.BitDepth = 3

	for i := 0; i < 50; i++ {
		in := wobble(i)
		d.Tick(in, p)
		want := float32(math.Round(float64(in*8))) / 8
		if d.held != want {
			t.Fatalf("call %d: held %v, want fresh quantize %v", i, d.held, want)
		}
	}
}

func TestDistortion_DownsampleHoldsFiveOfSix(t *testing.T) {
	d := NewDistortion()
	p := NinParams()
	p.Pregain = 1

	var prev float32
	held := 0
	for i := 0; i < 60; i++ {
		d.Tick(wobble(i), p)
		if i%6 != 0 {
			if d.held != prev {
				t.Fatalf("call %d: held changed from %v to %v inside a hold period", i, prev, d.held)
			}
			held++
		}
		prev = d.held
	}
	if held != 50 {
		t.Errorf("held %d of 60 calls, want 50", held)
	}
}

func TestDistortion_OutputStaysInRange(t *testing.T) {
	d := NewDistortion()
	p := NinParams()
	for i := 0; i < 2000; i++ {
		in := float32(3 * math.Sin(float64(i)*0.05))
		out := d.Tick(in, p)
		if out < -1 || out > 1 {
			t.Fatalf("call %d: output %v outside [-1,1]", i, out)
		}
	}
}

func TestDistortion_AsymmetricClip(t *testing.T) {
	p := CleanParams()
	d := NewDistortion()
	if out := d.Tick(-5, p); out != -0.98 {
		t.Errorf("negative overdrive = %v, want -0.98", out)
	}
	d.Reset()
	if out := d.Tick(5, p); out != 1 {
		t.Errorf("positive overdrive = %v, want 1", out)
	}
}

func TestDistortion_CleanIsNearTransparent(t *testing.T) {
	d := NewDistortion()
	p := CleanParams()
	for i := 0; i < 100; i++ {
		in := wobble(i)
		out := d.Tick(in, p)
		if math.Abs(float64(out-in)) > 1e-4 {
			t.Fatalf("call %d: clean output %v, input %v", i, out, in)
		}
	}
}

func TestDistortion_DegenerateParamsDoNotPanic(t *testing.T) {
	d := NewDistortion()
	p := Params{Pregain: 1, Postgain: 1, BitDepth: 0, DownsampleFactor: 0, Resolution: 0}
	for i := 0; i < 10; i++ {
		out := d.Tick(wobble(i), p)
		if math.IsNaN(float64(out)) {
			t.Fatalf("call %d: NaN output", i)
		}
	}
}

func TestDistortion_ResetClearsState(t *testing.T) {
	d := NewDistortion()
	p := NinParams()
	for i := 0; i < 7; i++ {
		d.Tick(wobble(i), p)
	}
	d.Reset()
	if d.held != 0 || d.downsampleCount != 0 || d.noisePhase != 0 {
		t.Errorf("state after reset: %+v", d)
	}
}

func BenchmarkDistortion_Tick(b *testing.B) {
	d := NewDistortion()
	p := NinParams()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		d.Tick(wobble(i), p)
	}
}
