package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/oisee/slicegrid/pkg/app"
	"github.com/oisee/slicegrid/pkg/audio"
	"github.com/oisee/slicegrid/pkg/config"
	"github.com/oisee/slicegrid/pkg/debug"
	"github.com/oisee/slicegrid/pkg/decode"
	"github.com/oisee/slicegrid/pkg/grid"
	"github.com/oisee/slicegrid/pkg/mailbox"
	"github.com/oisee/slicegrid/pkg/metro"
	"github.com/oisee/slicegrid/pkg/sequence"
	"github.com/oisee/slicegrid/pkg/tui"
)

func main() {
	configPath := flag.String("config", "", "Config file (default ~/.config/slicegrid/config.json)")
	samplePath := flag.String("sample", "", "Sample to slice (.wav or .mp3)")
	bpm := flag.Int("bpm", 0, "Tempo in beats per minute")
	midiPort := flag.String("midi", "", "Use the MIDI grid whose port name contains this")
	clean := flag.Bool("clean", false, "Bypass the distortion")
	demo := flag.Bool("demo", false, "Start with one slice per step")
	debugLog := flag.Bool("debug", false, "Write a debug log to ~/.config/slicegrid/debug.log")
	render := flag.String("render", "", "Render to this WAV file instead of playing")
	seconds := flag.Float64("seconds", 8, "Length of -render output")
	writeConfig := flag.Bool("write-config", false, "Save the effective config and exit")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Flags override the file
	if *samplePath != "" {
		cfg.SamplePath = *samplePath
	} else if flag.NArg() > 0 {
		cfg.SamplePath = flag.Arg(0)
	}
	if *bpm != 0 {
		cfg.BPM = *bpm
	}
	if *midiPort != "" {
		cfg.Controller.Type = config.ControllerGenericGrid
		cfg.Controller.PortName = *midiPort
	}
	if *clean {
		cfg.Distortion.Enabled = false
	}
	if *debugLog {
		cfg.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *writeConfig {
		if err := saveConfig(cfg, *configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if cfg.Debug {
		if dir, err := config.ConfigDir(); err == nil {
			if err := debug.Enable(filepath.Join(dir, "debug.log")); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: debug log disabled: %v\n", err)
			}
		}
		defer debug.Disable()
	}

	buf, err := decode.File(cfg.SamplePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading sample: %v\n", err)
		os.Exit(1)
	}
	if buf.SampleRate != cfg.SampleRate {
		debug.Log("main", "sample is %d Hz, playing at %d Hz", buf.SampleRate, cfg.SampleRate)
	}

	store := sequence.NewStore(grid.Width, cfg.Patterns)
	if *demo || *render != "" {
		seedDemo(store, cfg.Slices)
	}
	mb := mailbox.New(cfg.QueueSize)

	opts := []audio.Option{
		audio.WithSlices(cfg.Slices),
		audio.WithDrainCap(cfg.DrainCap),
		audio.WithSampleRate(cfg.SampleRate),
	}
	if cfg.Distortion.Enabled {
		opts = append(opts, audio.WithDistortion(cfg.Distortion.Params))
	}
	sampler, err := audio.NewSampler(buf.Samples, mb, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *render != "" {
		if err := renderFile(*render, sampler, store, mb, cfg, *seconds); err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Rendered %.1fs to %s\n", *seconds, *render)
		return
	}

	out, err := audio.NewRealtimeOutput(sampler, cfg.SampleRate, cfg.Channels)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening audio: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var device grid.Device
	var virtual *grid.Virtual
	var midi *grid.MIDIGrid
	if cfg.Controller.Type == config.ControllerGenericGrid {
		midi, err = grid.OpenMIDIGrid(cfg.Controller.PortName, uint8(cfg.Controller.Channel))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening grid: %v\n", err)
			os.Exit(1)
		}
		device = midi
	} else {
		virtual = grid.NewVirtual()
		device = virtual
	}
	defer device.Close()

	a := app.New(device, store, mb)
	m := metro.New(cfg.BPM, cfg.LinesPerBeat)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := a.Run(ctx, m); err != nil && err != context.Canceled {
			debug.Log("main", "app stopped: %v", err)
		}
	}()

	if midi != nil {
		fmt.Printf("Playing %s at %d BPM on %s. Press Ctrl+C to stop.\n",
			filepath.Base(cfg.SamplePath), cfg.BPM, midi.ID())
		<-ctx.Done()
		if n := midi.Dropped(); n > 0 {
			fmt.Fprintf(os.Stderr, "Warning: %d grid key events were dropped\n", n)
		}
	} else {
		model := tui.NewModel(virtual, a, mb, cfg.BPM)
		model.Sample = filepath.Base(cfg.SamplePath)
		p := tea.NewProgram(model, tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && ctx.Err() == nil {
			stop()
			<-done
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	stop()
	<-done
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

func saveConfig(cfg *config.Config, path string) error {
	if path == "" {
		return cfg.Save()
	}
	return cfg.SaveTo(path)
}

// seedDemo plays the slices in order, one per step, on empty patterns
func seedDemo(store *sequence.Store, slices int) {
	for i := 0; i < store.Len(); i++ {
		if store.Has(i) {
			continue
		}
		store.Set(i, sequence.DefaultTrigger().WithSlice(i%slices))
	}
}

func renderFile(path string, sampler *audio.Sampler, store *sequence.Store, mb *mailbox.Mailbox, cfg *config.Config, seconds float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return audio.RenderWAV(f, sampler, sequence.NewStepper(store, mb), audio.RenderOptions{
		SampleRate: cfg.SampleRate,
		Seconds:    seconds,
		Interval:   metro.Interval(cfg.BPM, cfg.LinesPerBeat),
	})
}
