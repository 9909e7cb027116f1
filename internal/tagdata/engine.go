package tagdata

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/banshee-data/zensetag/internal/align"
	"github.com/banshee-data/zensetag/internal/config"
	"github.com/banshee-data/zensetag/internal/monitoring"
)

// ProfileStore resolves sensor profiles. *config.Profiles implements it.
type ProfileStore interface {
	Profile(name string) (config.SensorProfile, bool)
	ProfileForIdentity(epc string) (string, bool)
}

// Options configures an Engine.
type Options struct {
	Capacity      int     // max_tag_history
	ReadRate      int     // samples per second, scales profile windows
	RSSIThreshold float64 // reads at or below this are dropped
	Warped        bool    // align with FastDTW instead of truncation
	Profile       string  // initial profile
	Auto          bool    // initial auto mode
}

// OptionsFromConfig builds engine options from loaded parameters.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Capacity:      cfg.GetMaxTagHistory(),
		ReadRate:      cfg.GetReadRate(),
		RSSIThreshold: cfg.GetRSSIThreshold(),
		Warped:        cfg.GetIsDTW(),
		Profile:       cfg.GetSensorDef(),
		Auto:          cfg.GetAutoSelect(),
	}
}

// Engine filters tag reads into a bounded buffer and computes the windowed
// average phase difference for the active profile. It is safe for one
// producer calling Ingest and any number of goroutines calling the rest.
type Engine struct {
	store         ProfileStore
	buf           *Buffer
	sel           *selector
	readRate      int
	rssiThreshold float64
	warped        atomic.Bool

	accepted atomic.Uint64
	rejected atomic.Uint64

	historyMu sync.RWMutex
	history   []float64
}

// NewEngine creates an engine reading profiles from store.
func NewEngine(store ProfileStore, opts Options) *Engine {
	e := &Engine{
		store:         store,
		buf:           NewBuffer(opts.Capacity),
		sel:           newSelector(Selection{Profile: opts.Profile, Auto: opts.Auto}),
		readRate:      opts.ReadRate,
		rssiThreshold: opts.RSSIThreshold,
	}
	e.warped.Store(opts.Warped)
	return e
}

// Ingest filters a raw read and buffers it when it belongs to the active
// profile. In auto mode a read whose EPC is registered to a profile first
// switches the selection to that profile. The result reports acceptance.
func (e *Engine) Ingest(ev RawTagEvent) bool {
	epc := config.NormalizeEPC(ev.EPC)
	if epc == "" || !finite(ev.Channel, ev.Phase, ev.RSSI) {
		e.rejected.Add(1)
		return false
	}
	if ev.RSSI <= e.rssiThreshold {
		e.rejected.Add(1)
		return false
	}

	sel := e.sel.current()
	if sel.Auto {
		if name, ok := e.store.ProfileForIdentity(epc); ok && name != sel.Profile {
			sel = e.sel.promote(name)
			monitoring.Debugf("tagdata: auto-selected profile %q from %s", sel.Profile, epc)
		}
	}

	profile, ok := e.store.Profile(sel.Profile)
	if !ok || !profile.Has(epc) {
		e.rejected.Add(1)
		return false
	}

	e.buf.Push(TagRecord{
		EPC:       epc,
		Timestamp: ev.Timestamp,
		Channel:   ev.Channel,
		Phase:     ev.Phase,
		RSSI:      ev.RSSI,
	})
	e.accepted.Add(1)
	return true
}

// ComputeAverage returns the mean folded phase difference between the two
// profile tags over the current window and appends it to the history.
// It returns Insufficient when the buffer holds fewer than two records, the
// profile cannot be resolved or alignment fails.
func (e *Engine) ComputeAverage() (avg float64) {
	defer func() {
		if r := recover(); r != nil {
			monitoring.Logf("tagdata: compute recovered: %v", r)
			avg = Insufficient
		}
	}()

	if e.buf.Size() < 2 {
		return Insufficient
	}

	sel := e.sel.current()
	avg, err := e.average(sel.Profile)
	if err != nil {
		monitoring.Debugf("tagdata: %v", err)
		return Insufficient
	}

	e.historyMu.Lock()
	e.history = append(e.history, avg)
	e.historyMu.Unlock()
	return avg
}

func (e *Engine) average(name string) (float64, error) {
	profile, ok := e.store.Profile(name)
	if !ok {
		return 0, fmt.Errorf("profile %q not found", name)
	}
	a, b, ok := profile.Pair()
	if !ok {
		return 0, fmt.Errorf("profile %q needs two distinct EPCs", name)
	}

	size := profile.WindowSize(e.readRate)
	ga, gb := GroupByChannel(e.buf.LastN(size), a, b)
	strategy := align.StrategyFor(e.warped.Load())

	var sum float64
	var count int
	for _, ch := range SharedChannels(ga, gb) {
		xa, xb, err := align.Align(ga[ch], gb[ch], size, strategy)
		if err != nil {
			return 0, fmt.Errorf("align channel %.2f: %w", ch, err)
		}
		for i := range xa {
			sum += Fold(math.Abs(xa[i] - xb[i]))
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return sum / float64(count), nil
}

// Select applies a selection command: "auto" or a profile name, case
// insensitive. Names are not checked against the store; an unknown profile
// yields Insufficient on the next compute.
func (e *Engine) Select(command string) Selection {
	sel := e.sel.apply(command)
	monitoring.Logf("tagdata: selection now %q (auto=%v)", sel.Profile, sel.Auto)
	return sel
}

// Selection returns the active selection.
func (e *Engine) Selection() Selection {
	return e.sel.current()
}

// SetWarped switches between FastDTW and truncated alignment. It takes
// effect on the next ComputeAverage.
func (e *Engine) SetWarped(on bool) {
	e.warped.Store(on)
}

// Warped reports whether FastDTW alignment is in use.
func (e *Engine) Warped() bool {
	return e.warped.Load()
}

// History returns a copy of every computed average, oldest first.
func (e *Engine) History() []float64 {
	e.historyMu.RLock()
	defer e.historyMu.RUnlock()
	out := make([]float64, len(e.history))
	copy(out, e.history)
	return out
}

// Latest returns the most recently computed average.
func (e *Engine) Latest() (float64, bool) {
	e.historyMu.RLock()
	defer e.historyMu.RUnlock()
	if len(e.history) == 0 {
		return Insufficient, false
	}
	return e.history[len(e.history)-1], true
}

// Records returns the n most recent buffered records.
func (e *Engine) Records(n int) []TagRecord {
	return e.buf.LastN(n)
}

// Clear drops all buffered records. History is kept.
func (e *Engine) Clear() {
	e.buf.Clear()
}

// Stats is a point-in-time summary for diagnostics.
type Stats struct {
	Selection Selection `json:"selection"`
	Buffered  int       `json:"buffered"`
	Capacity  int       `json:"capacity"`
	Accepted  uint64    `json:"accepted"`
	Rejected  uint64    `json:"rejected"`
	History   int       `json:"history"`
	Warped    bool      `json:"warped"`
}

// Stats reports buffer occupancy and filter counters.
func (e *Engine) Stats() Stats {
	e.historyMu.RLock()
	n := len(e.history)
	e.historyMu.RUnlock()
	return Stats{
		Selection: e.sel.current(),
		Buffered:  e.buf.Size(),
		Capacity:  e.buf.Capacity(),
		Accepted:  e.accepted.Load(),
		Rejected:  e.rejected.Load(),
		History:   n,
		Warped:    e.warped.Load(),
	}
}
