package indicator

import (
	"fmt"
	"math"
	"strings"
)

// Mode selects how the engine variant is resolved.
type Mode string

const (
	ModeAuto        Mode = "auto"
	ModeAccelerated Mode = "accelerated"
	ModeFallback    Mode = "fallback"
)

// ParseMode accepts auto, accelerated or fallback (case-insensitive). Empty means auto.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeAccelerated, ModeFallback:
		return m, nil
	default:
		return "", fmt.Errorf("unknown indicator engine mode %q", s)
	}
}

// Capability records whether the accelerated library is usable. It is
// resolved once at startup and passed to NewEngine.
type Capability struct {
	Accelerated bool
	Reason      string
}

// EngineName returns the name of the engine NewEngine would build.
func (c Capability) EngineName() string {
	if c.Accelerated {
		return "accelerated"
	}
	return "fallback"
}

// NewEngine returns the engine variant matching c.
func NewEngine(c Capability) Engine {
	if c.Accelerated {
		return NewAccelerated()
	}
	return NewFallback()
}

// Resolve turns a configured mode into a Capability. ModeAccelerated fails
// when the self-check does not pass; ModeAuto degrades to the fallback.
func Resolve(mode Mode) (Capability, error) {
	switch mode {
	case ModeFallback:
		return Capability{Accelerated: false, Reason: "fallback forced by configuration"}, nil
	case ModeAccelerated:
		c := Probe()
		if !c.Accelerated {
			return c, fmt.Errorf("accelerated engine unavailable: %s", c.Reason)
		}
		return c, nil
	case ModeAuto, "":
		return Probe(), nil
	default:
		return Capability{}, fmt.Errorf("unknown indicator engine mode %q", mode)
	}
}

// Probe runs the accelerated engine over a fixed reference series and checks
// the outputs against the fallback.
func Probe() Capability {
	if err := selfCheck(NewAccelerated(), NewFallback()); err != nil {
		return Capability{Accelerated: false, Reason: err.Error()}
	}
	return Capability{Accelerated: true, Reason: "self-check passed"}
}

func selfCheck(acc, ref Engine) error {
	closes := referenceCloses(128)
	p := DefaultParams()

	rsi, err := acc.RSI(closes, p.RSIPeriod)
	if err != nil {
		return err
	}
	last, ok := rsi.Last().Get()
	if !ok || last < 0 || last > 100 {
		return fmt.Errorf("rsi self-check: got %v (defined=%v)", last, ok)
	}

	macd, err := acc.MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	if err != nil {
		return err
	}
	refMACD, err := ref.MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	if err != nil {
		return err
	}
	sig, ok := macd.Signal.Last().Get()
	if !ok || !macd.Histogram.Last().Valid() {
		return fmt.Errorf("macd self-check: signal undefined")
	}
	if math.Abs(sig-refMACD.Signal.Last().Float()) > 1e-2 {
		return fmt.Errorf("macd self-check: signal %v, reference %v", sig, refMACD.Signal.Last().Float())
	}
	// On a straight line every EMA trails by a constant, so the line and its
	// signal are flat from the first defined position.
	const slope = 0.5
	line := make([]float64, len(closes))
	for i := range line {
		line[i] = 100 + slope*float64(i)
	}
	flat, err := acc.MACD(line, p.MACDFast, p.MACDSlow, p.MACDSignal)
	if err != nil {
		return err
	}
	start := flat.Signal.FirstDefined()
	if start < 0 {
		return fmt.Errorf("macd self-check: signal undefined on a straight line")
	}
	want := slope * float64(p.MACDSlow-p.MACDFast) / 2
	if math.Abs(flat.MACD[start].Float()-want) > 1e-9 || math.Abs(flat.Signal[start].Float()-want) > 1e-9 {
		return fmt.Errorf("macd self-check: straight line gave macd %v signal %v, want %v",
			flat.MACD[start].Float(), flat.Signal[start].Float(), want)
	}

	bb, err := acc.Bollinger(closes, p.BollingerPeriod, p.BollingerStdDev)
	if err != nil {
		return err
	}
	refBB, err := ref.Bollinger(closes, p.BollingerPeriod, p.BollingerStdDev)
	if err != nil {
		return err
	}
	u, m, l := bb.Upper.Last().Float(), bb.Middle.Last().Float(), bb.Lower.Last().Float()
	if !(u >= m && m >= l) {
		return fmt.Errorf("bollinger self-check: bands out of order %v/%v/%v", u, m, l)
	}
	if math.Abs(m-refBB.Middle.Last().Float()) > 1e-6 {
		return fmt.Errorf("bollinger self-check: middle band mismatch")
	}
	return nil
}

func referenceCloses(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		x := float64(i)
		out[i] = 100 + 5*math.Sin(x/3) + 0.1*x
	}
	return out
}
