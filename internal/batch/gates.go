package batch

import "fmt"

// GateAction is what a tripped quality gate does to the batch.
type GateAction string

const (
	// ActionFlagForReview logs the failure and lets the batch run on.
	ActionFlagForReview GateAction = "FLAG_FOR_REVIEW"

	// ActionStopGeneration prevents dispatch of further candidates.
	// In-flight validations complete.
	ActionStopGeneration GateAction = "STOP_GENERATION"
)

// GateEvent records one quality-gate failure.
type GateEvent struct {
	// TriggerIndex is the zero-based position in the batch at which
	// the gate fired.
	TriggerIndex int        `json:"trigger_index"`
	Rate         float64    `json:"rate"`
	Floor        float64    `json:"floor"`
	Action       GateAction `json:"action"`
	Message      string     `json:"message"`
}

// GateConfig tunes the rolling acceptance-rate gates.
type GateConfig struct {
	// Enabled turns gate enforcement on. Disabled gates still leave
	// the batch statistics intact, they just never fire.
	Enabled bool

	// Warmup is the number of processed questions before the gates
	// start evaluating, so early noise cannot trip them.
	Warmup int

	// FlagFloor fires a FLAG_FOR_REVIEW event when the rolling
	// acceptance rate drops below it.
	FlagFloor float64

	// StopFloor fires STOP_GENERATION when the rolling acceptance
	// rate drops below it.
	StopFloor float64
}

// DefaultGateConfig returns the standard gate setup: flag below 50%,
// stop below 35%, after a 20-question warmup.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		Enabled:   true,
		Warmup:    20,
		FlagFloor: 0.50,
		StopFloor: 0.35,
	}
}

// gateState tracks rolling acceptance and fires each gate at most once.
type gateState struct {
	config    GateConfig
	processed int
	accepted  int
	flagged   bool
	stopped   bool
	events    []GateEvent
}

func newGateState(cfg GateConfig) *gateState {
	return &gateState{config: cfg}
}

// observe records one outcome and returns any gate event it triggered.
// Must be called in submission order: the rolling rate is a
// sequential-history property, not a population statistic.
func (g *gateState) observe(index int, accepted bool) *GateEvent {
	g.processed++
	if accepted {
		g.accepted++
	}

	if !g.config.Enabled || g.processed < g.config.Warmup {
		return nil
	}

	rate := float64(g.accepted) / float64(g.processed)

	if !g.stopped && rate < g.config.StopFloor {
		g.stopped = true
		ev := GateEvent{
			TriggerIndex: index,
			Rate:         rate,
			Floor:        g.config.StopFloor,
			Action:       ActionStopGeneration,
			Message: fmt.Sprintf("acceptance rate %.1f%% below stop floor %.1f%%; halting dispatch",
				rate*100, g.config.StopFloor*100),
		}
		g.events = append(g.events, ev)
		return &ev
	}

	if !g.flagged && rate < g.config.FlagFloor {
		g.flagged = true
		ev := GateEvent{
			TriggerIndex: index,
			Rate:         rate,
			Floor:        g.config.FlagFloor,
			Action:       ActionFlagForReview,
			Message: fmt.Sprintf("acceptance rate %.1f%% below floor %.1f%%; batch flagged for review",
				rate*100, g.config.FlagFloor*100),
		}
		g.events = append(g.events, ev)
		return &ev
	}

	return nil
}

// haltDispatch reports whether a STOP_GENERATION gate has fired.
func (g *gateState) haltDispatch() bool {
	return g.stopped
}

// rate returns the current rolling acceptance rate.
func (g *gateState) rate() float64 {
	if g.processed == 0 {
		return 0
	}
	return float64(g.accepted) / float64(g.processed)
}
