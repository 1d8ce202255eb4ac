package tavern

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"emberhall/internal/protocol"
)

// Boundary triggers, highest priority first. While a resolution is in
// progress any other trigger is rejected outright, in both directions: a
// lower-priority attempt never queues behind a higher one, and a
// higher-priority attempt is surfaced to its caller as a conflict instead of
// silently stealing the window.
const (
	TriggerManualSkip       = "manual_skip"
	TriggerMidnightRollover = "midnight_rollover"
	TriggerWeekBoundary     = "week_boundary"
)

var triggerPriority = map[string]int{
	TriggerManualSkip:       3,
	TriggerMidnightRollover: 2,
	TriggerWeekBoundary:     1,
}

// Boundary sub-phases, always resolved in this order.
const (
	BoundaryMinuteTick       = "minute_tick"
	BoundaryDayClose         = "day_close"
	BoundaryWeekClose        = "week_close"
	BoundaryReportingPublish = "reporting_publish"
)

const minutesPerDay = 1440

type Timeflow struct {
	InProgress     bool   `json:"inProgress"`
	CurrentTrigger string `json:"currentTrigger,omitempty"`

	// ResolvedKeys remembers successfully resolved (trigger, day, minute)
	// boundaries so the same boundary cannot apply twice. Failed attempts are
	// not recorded and stay retryable.
	ResolvedKeys map[string]bool `json:"resolvedKeys"`

	LastBoundaryOrder []string `json:"lastBoundaryOrder,omitempty"`

	IntentQueue   []PlanIntent `json:"intentQueue"`
	NextIntentSeq int          `json:"nextIntentSeq"`

	CadenceLocks map[string]CadenceLock `json:"cadenceLocks"`

	GuardRecoveries int  `json:"guardRecoveries"`
	ParityOK        bool `json:"parityOK"`
}

// CadenceLock records when an action last ran, per throttle window.
type CadenceLock struct {
	Minute int `json:"minute"` // absolute minute (day*1440 + clock minute)
	Day    int `json:"day"`
	Week   int `json:"week"`
}

// PlanIntent is a pending plan-field change waiting for its boundary.
type PlanIntent struct {
	ID       string `json:"id"`
	Field    string `json:"field"`
	Value    string `json:"value"`
	Boundary string `json:"boundary"` // day_start | week_start
	Priority int    `json:"priority"`
	Day      int    `json:"day"`
	Minute   int    `json:"minute"`
	Seq      int    `json:"seq"`
}

const (
	IntentBoundaryDayStart  = "day_start"
	IntentBoundaryWeekStart = "week_start"
)

func newTimeflow() Timeflow {
	return Timeflow{
		ResolvedKeys: map[string]bool{},
		CadenceLocks: map[string]CadenceLock{},
		ParityOK:     true,
	}
}

func boundaryKey(trigger string, day, minute int) string {
	return fmt.Sprintf("%s|%d|%d", trigger, day, minute)
}

// beginTimeflowResolution opens the boundary window. On success it returns a
// release function that must run on every exit path; release(true) commits the
// duplicate-guard key, release(false) leaves the boundary retryable.
func (s *Sim) beginTimeflowResolution(trigger string) (func(success bool), Result) {
	tf := &s.state.Timeflow
	if _, known := triggerPriority[trigger]; !known {
		return nil, fail(protocol.ErrBadRequest, fmt.Sprintf("unknown boundary trigger %q", trigger))
	}
	if tf.InProgress {
		cur := triggerPriority[tf.CurrentTrigger]
		next := triggerPriority[trigger]
		var msg string
		if next > cur {
			msg = fmt.Sprintf("boundary %s already resolving; higher-priority %s rejected, retry after it completes", tf.CurrentTrigger, trigger)
		} else {
			msg = fmt.Sprintf("boundary %s already resolving; %s rejected", tf.CurrentTrigger, trigger)
		}
		return nil, fail(protocol.ErrBoundaryConflict, msg)
	}
	key := boundaryKey(trigger, s.state.Day, s.state.Clock.Minute)
	if tf.ResolvedKeys[key] {
		return nil, fail(protocol.ErrBoundaryDup, fmt.Sprintf("boundary %s already resolved for day %d", trigger, s.state.Day))
	}
	tf.InProgress = true
	tf.CurrentTrigger = trigger
	release := func(success bool) {
		tf.InProgress = false
		tf.CurrentTrigger = ""
		if success {
			tf.ResolvedKeys[key] = true
			s.pruneResolvedKeys()
		}
	}
	return release, okRes()
}

// pruneResolvedKeys drops guard keys older than two days; duplicate triggers
// only matter within the current boundary neighborhood.
func (s *Sim) pruneResolvedKeys() {
	tf := &s.state.Timeflow
	for key := range tf.ResolvedKeys {
		parts := strings.Split(key, "|")
		if len(parts) != 3 {
			delete(tf.ResolvedKeys, key)
			continue
		}
		if day, err := strconv.Atoi(parts[1]); err == nil && day < s.state.Day-2 {
			delete(tf.ResolvedKeys, key)
		}
	}
}

// requireActionWindow rejects gameplay mutations while a boundary resolution
// is in progress. Boundary-exempt operations (save, observers, speed query)
// do not call this.
func (s *Sim) requireActionWindow(action string) Result {
	if s.state.Timeflow.InProgress {
		return fail(protocol.ErrBoundaryLocked, action+" blocked during boundary resolution")
	}
	return okRes()
}

type cadenceScope string

const (
	cadencePerMinute cadenceScope = "minute"
	cadencePerDay    cadenceScope = "day"
	cadencePerWeek   cadenceScope = "week"
)

// enforceActionCadence throttles an action id to once per scope window.
func (s *Sim) enforceActionCadence(action string, scope cadenceScope) Result {
	tf := &s.state.Timeflow
	st := s.state
	lock, seen := tf.CadenceLocks[action]
	abs := st.Day*minutesPerDay + st.Clock.Minute
	week := st.Manager.WeekIndex
	if seen {
		switch scope {
		case cadencePerMinute:
			if lock.Minute == abs {
				return fail(protocol.ErrCadence, action+" already ran this minute")
			}
		case cadencePerDay:
			if lock.Day == st.Day {
				return fail(protocol.ErrCadence, action+" already ran today")
			}
		case cadencePerWeek:
			if lock.Week == week {
				return fail(protocol.ErrCadence, action+" already ran this week")
			}
		}
	}
	tf.CadenceLocks[action] = CadenceLock{Minute: abs, Day: st.Day, Week: week}
	return okRes()
}

// queueIntent stores a plan-field change for its application boundary.
func (s *Sim) queueIntent(field, value, boundary string, priority int) PlanIntent {
	tf := &s.state.Timeflow
	tf.NextIntentSeq++
	intent := PlanIntent{
		ID:       fmt.Sprintf("intent_%d", tf.NextIntentSeq),
		Field:    field,
		Value:    value,
		Boundary: boundary,
		Priority: priority,
		Day:      s.state.Day,
		Minute:   s.state.Clock.Minute,
		Seq:      tf.NextIntentSeq,
	}
	// One pending change per field and boundary; the newest intent wins but
	// keeps the original queue position's ordering fields.
	for i := range tf.IntentQueue {
		if tf.IntentQueue[i].Field == field && tf.IntentQueue[i].Boundary == boundary {
			intent.Day = tf.IntentQueue[i].Day
			intent.Minute = tf.IntentQueue[i].Minute
			intent.Seq = tf.IntentQueue[i].Seq
			intent.ID = tf.IntentQueue[i].ID
			tf.IntentQueue[i] = intent
			return intent
		}
	}
	tf.IntentQueue = append(tf.IntentQueue, intent)
	return intent
}

// flushIntents applies every queued intent for the boundary, in deterministic
// order: priority first, then FIFO by (day, minute, seq, id).
func (s *Sim) flushIntents(boundary string) []PlanIntent {
	tf := &s.state.Timeflow
	var due, rest []PlanIntent
	for _, in := range tf.IntentQueue {
		if in.Boundary == boundary {
			due = append(due, in)
		} else {
			rest = append(rest, in)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.SliceStable(due, func(i, j int) bool {
		a, b := due[i], due[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.Minute != b.Minute {
			return a.Minute < b.Minute
		}
		if a.Seq != b.Seq {
			return a.Seq < b.Seq
		}
		return a.ID < b.ID
	})
	for _, in := range due {
		s.applyPlanField(in.Field, in.Value)
		s.appendLog(fmt.Sprintf("Plan change applied at %s: %s = %s", boundary, in.Field, in.Value), ToneNeutral)
	}
	tf.IntentQueue = rest
	return due
}

// SetSpeed selects the clock speed multiplier; only 0, 1, 2 and 4 exist.
func (s *Sim) SetSpeed(speed int) Result {
	if r := s.requireActionWindow("setSpeed"); !r.OK {
		return r
	}
	switch speed {
	case 0, 1, 2, 4:
		s.state.Clock.Speed = speed
		s.notify()
		return okRes()
	default:
		return fail(protocol.ErrBadRequest, fmt.Sprintf("unsupported speed %d", speed))
	}
}

// AdvanceSimulationMinutes ticks the clock n minutes, resolving a midnight
// rollover whenever the minute counter wraps. It stops on the first boundary
// failure so a conflicting trigger is never silently swallowed.
func (s *Sim) AdvanceSimulationMinutes(n int) Result {
	if n <= 0 {
		return fail(protocol.ErrBadRequest, "minutes must be positive")
	}
	if s.state.Timeflow.InProgress {
		return fail(protocol.ErrBoundaryConflict, "minute tick blocked: boundary resolution in progress")
	}
	for i := 0; i < n; i++ {
		s.state.Clock.Minute++
		if s.state.Clock.Minute >= minutesPerDay {
			s.state.Clock.Minute = 0
			if r := s.AdvanceDay(AdvanceOptions{Trigger: TriggerMidnightRollover}); !r.OK {
				return r
			}
		}
	}
	s.notify()
	return okRes()
}
