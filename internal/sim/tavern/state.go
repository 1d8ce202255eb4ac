package tavern

import (
	"emberhall/internal/sim/rng"
	"emberhall/internal/sim/tuning"
)

// Sim is a single tavern simulation. It is single-threaded by contract: all
// state must be accessed from one goroutine, the same discipline the action
// facade and the day pipeline assume. State is the only mutable resource; no
// subsystem keeps private state outside it.
type Sim struct {
	state *State
	rng   *rng.Controller
	tun   tuning.Tuning

	onChange []func(*Sim)

	// autoPrepare lets AdvanceDay commit the plan draft when called in
	// planning phase. Regression harnesses leave it on; tests that exercise
	// phase guards turn it off.
	autoPrepare bool
}

type Phase string

const (
	PhasePlanning  Phase = "planning"
	PhaseExecution Phase = "execution"
	PhaseWeekClose Phase = "week_close"
)

type Role string

const (
	RoleServer  Role = "server"
	RoleCook    Role = "cook"
	RoleBarkeep Role = "barkeep"
	RoleGuard   Role = "guard"
)

type Shift string

const (
	ShiftDay   Shift = "day"
	ShiftNight Shift = "night"
)

type Cohort string

const (
	CohortLocals      Cohort = "locals"
	CohortAdventurers Cohort = "adventurers"
	CohortMerchants   Cohort = "merchants"
	CohortNobles      Cohort = "nobles"
)

type ActorID string

const (
	ActorCrownOffice       ActorID = "crown_office"
	ActorCivicCouncil      ActorID = "civic_council"
	ActorMerchantHouses    ActorID = "merchant_houses"
	ActorUnderworldNetwork ActorID = "underworld_network"
)

// State is the whole world. It is the save payload's body and the single
// mutation target of every subsystem.
type State struct {
	Day  int     `json:"day"`
	Gold float64 `json:"gold"`

	Reputation  float64 `json:"reputation"`
	Condition   float64 `json:"condition"`
	Cleanliness float64 `json:"cleanliness"`

	Inventory   map[string]int        `json:"inventory"`
	SupplyStats map[string]SupplyStat `json:"supplyStats"`
	Prices      map[string]int        `json:"prices"`

	Staff   []Staff  `json:"staff"`
	Patrons []Patron `json:"patrons"`

	World    WorldState   `json:"world"`
	Manager  ManagerState `json:"manager"`
	Clock    Clock        `json:"clock"`
	Timeflow Timeflow     `json:"timeflow"`

	LastGuests int        `json:"lastGuests"`
	LastReport *DayReport `json:"lastReport,omitempty"`

	Log []LogEntry `json:"log"`

	// DayQuality accumulates production quality of everything crafted since
	// the previous day close; advanceDay folds it into satisfaction and
	// resets it.
	DayQuality QualityAccum `json:"dayQuality"`
}

type SupplyStat struct {
	Quality   float64 `json:"quality"`
	Freshness float64 `json:"freshness"`
}

type Staff struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Role          Role    `json:"role"`
	Wage          float64 `json:"wage"`
	Service       float64 `json:"service"`
	Quality       float64 `json:"quality"`
	Morale        float64 `json:"morale"`
	Fatigue       float64 `json:"fatigue"`
	InjuryDays    int     `json:"injuryDays"`
	DisputeDays   int     `json:"disputeDays"`
	AssignedShift Shift   `json:"assignedShift"`
}

type Patron struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Cohort     Cohort  `json:"cohort"`
	Preference string  `json:"preference"`
	Loyalty    float64 `json:"loyalty"`
	Visits     int     `json:"visits"`
}

type Clock struct {
	Minute int `json:"minute"`
	Speed  int `json:"speed"`
}

type LogEntry struct {
	Day     int    `json:"day"`
	Message string `json:"message"`
	Tone    string `json:"tone"`
}

type QualityAccum struct {
	Sum   float64 `json:"sum"`
	Units int     `json:"units"`
}

func (q QualityAccum) Score() float64 {
	if q.Units <= 0 {
		return 58
	}
	return q.Sum / float64(q.Units)
}

const (
	ToneGood    = "good"
	ToneBad     = "bad"
	ToneNeutral = "neutral"
)

// New creates a fresh game. The controller seeds patron names, supply rolls
// and the recruitment market, so two sims built from the same seeded
// controller are identical.
func New(tun tuning.Tuning, r *rng.Controller) *Sim {
	s := &Sim{rng: r, tun: tun, autoPrepare: true}
	s.state = s.createInitialState()
	return s
}

func (s *Sim) State() *State          { return s.state }
func (s *Sim) RNG() *rng.Controller   { return s.rng }
func (s *Sim) Tuning() tuning.Tuning  { return s.tun }
func (s *Sim) SetAutoPrepare(on bool) { s.autoPrepare = on }

// OnChange registers an observer invoked after every mutating action and
// after each day boundary. Observers must not mutate the sim.
func (s *Sim) OnChange(fn func(*Sim)) {
	if fn != nil {
		s.onChange = append(s.onChange, fn)
	}
}

func (s *Sim) notify() {
	for _, fn := range s.onChange {
		fn(s)
	}
}

func (s *Sim) createInitialState() *State {
	st := &State{
		Day:         1,
		Gold:        s.tun.StartingGold,
		Reputation:  52,
		Condition:   68,
		Cleanliness: 64,
		Inventory: map[string]int{
			ItemAle: 24, ItemStew: 10, ItemBread: 14,
			ItemGrain: 30, ItemHops: 22, ItemMeat: 16, ItemVeg: 18,
			ItemSpice: 8, ItemWood: 40,
		},
		SupplyStats: map[string]SupplyStat{},
		Prices: map[string]int{
			ItemAle: priceBaselines[ItemAle], ItemStew: priceBaselines[ItemStew],
			ItemBread: priceBaselines[ItemBread], ItemRoom: priceBaselines[ItemRoom],
		},
		Clock: Clock{Minute: 8 * 60, Speed: 0},
	}
	for _, item := range supplyItems() {
		meta := supplyMeta[item]
		q := clamp(meta.BaseQuality+s.rng.Range(-meta.QualityVariance, meta.QualityVariance), 0, 100)
		st.SupplyStats[item] = SupplyStat{Quality: q, Freshness: clamp(86+s.rng.Range(-6, 8), 0, 100)}
	}
	st.Staff = s.initialStaff()
	st.Patrons = s.initialPatrons()
	st.World = s.initialWorldState()
	// The objective roll reads crown compliance through s.state, so the
	// in-construction state must be visible before the manager seeds.
	s.state = st
	st.Manager = s.initialManagerState()
	st.Timeflow = newTimeflow()
	return st
}

func (s *Sim) initialStaff() []Staff {
	return []Staff{
		{ID: "st_" + s.rng.RandomID(6), Name: "Maren", Role: RoleBarkeep, Wage: 9, Service: 62, Quality: 58, Morale: 66, Fatigue: 18, AssignedShift: ShiftNight},
		{ID: "st_" + s.rng.RandomID(6), Name: "Oswin", Role: RoleCook, Wage: 10, Service: 44, Quality: 68, Morale: 60, Fatigue: 22, AssignedShift: ShiftDay},
		{ID: "st_" + s.rng.RandomID(6), Name: "Tilda", Role: RoleServer, Wage: 7, Service: 64, Quality: 48, Morale: 70, Fatigue: 14, AssignedShift: ShiftDay},
	}
}

// appendLog keeps the newest entry first and caps the ring.
func (s *Sim) appendLog(message, tone string) {
	st := s.state
	entry := LogEntry{Day: st.Day, Message: message, Tone: tone}
	st.Log = append([]LogEntry{entry}, st.Log...)
	if limit := s.tun.EventLogCap; len(st.Log) > limit {
		st.Log = st.Log[:limit]
	}
}

func clamp(v, lo, hi float64) float64 {
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

func clampStat(v float64) float64 { return clamp(v, 0, 100) }
