package main

import (
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"emberhall/internal/persistence/archive"
	"emberhall/internal/persistence/indexdb"
	persistlog "emberhall/internal/persistence/log"
	"emberhall/internal/persistence/snapshot"
	"emberhall/internal/protocol"
	"emberhall/internal/sim/tavern"
	"emberhall/internal/sim/tuning"
	"emberhall/internal/transport/observer"
)

// game owns the sim and serializes every access behind one mutex. The sim is
// single-threaded by contract; HTTP handlers, the websocket reader and the
// minute ticker all funnel through here.
type game struct {
	mu sync.Mutex

	id     string
	sim    *tavern.Sim
	tune   tuning.Tuning
	logger *log.Logger

	obs     *observer.Server
	idx     *indexdb.SQLiteIndex
	reports *persistlog.ReportLogger
	audits  *persistlog.AuditLogger

	savesDir string

	lastReportDay int
}

func newGame(id string, sim *tavern.Sim, tune tuning.Tuning, savesDir string, logger *log.Logger) *game {
	g := &game{
		id:       id,
		sim:      sim,
		tune:     tune,
		savesDir: savesDir,
		logger:   logger,
	}
	if rep := sim.State().LastReport; rep != nil {
		g.lastReportDay = rep.Day
	}
	// The sim notifies after every successful mutation; callers already hold
	// g.mu when that happens.
	sim.OnChange(func(*tavern.Sim) { g.publishLocked() })
	return g
}

func (g *game) Welcome() protocol.WelcomeMsg {
	g.mu.Lock()
	defer g.mu.Unlock()
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		Game:            g.id,
		Day:             g.sim.State().Day,
		Seeded:          g.sim.RNG().Seeded(),
	}
}

// actionParams is the union of every op's parameters. Ops read only the
// fields they document; extras are ignored.
type actionParams struct {
	Item     string  `json:"item"`
	Price    int     `json:"price"`
	Units    int     `json:"units"`
	Product  string  `json:"product"`
	Batches  int     `json:"batches"`
	Kind     string  `json:"kind"`
	ID       string  `json:"id"`
	Focus    string  `json:"focus"`
	Shift    string  `json:"shift"`
	Days     int     `json:"days"`
	StaffID  string  `json:"staffId"`
	District string  `json:"district"`
	Budget   float64 `json:"budget"`
	Task     string  `json:"task"`
	Enabled  bool    `json:"enabled"`
	To       string  `json:"to"`
	Field    string  `json:"field"`
	Value    string  `json:"value"`
	Speed    int     `json:"speed"`
	Seed     float64 `json:"seed"`
	Minutes  int     `json:"minutes"`
}

func (g *game) Apply(act protocol.ActionMsg) protocol.ResultMsg {
	op := strings.TrimSpace(act.Op)

	var p actionParams
	if len(act.Params) > 0 {
		if err := json.Unmarshal(act.Params, &p); err != nil {
			return protocol.ResultMsg{
				Type:  protocol.TypeResult,
				Op:    op,
				Code:  protocol.ErrBadRequest,
				Error: fmt.Sprintf("bad params: %v", err),
			}
		}
	}

	g.mu.Lock()
	res, known := g.dispatch(op, p)
	day := g.sim.State().Day
	g.mu.Unlock()

	if !known {
		return protocol.ResultMsg{
			Type:  protocol.TypeResult,
			Op:    op,
			Code:  protocol.ErrBadRequest,
			Error: fmt.Sprintf("unknown op %q", op),
		}
	}

	g.audit(day, op, res)

	out := protocol.ResultMsg{
		Type:  protocol.TypeResult,
		Op:    op,
		OK:    res.OK,
		Code:  res.Code,
		Error: res.Err,
		Tone:  res.Tone,
	}
	if len(res.Data) > 0 {
		if b, err := json.Marshal(res.Data); err == nil {
			out.Payload = b
		}
	}
	return out
}

// dispatch maps wire op names onto sim actions. Caller holds g.mu.
func (g *game) dispatch(op string, p actionParams) (tavern.Result, bool) {
	s := g.sim
	switch op {
	case "setPrice":
		return s.SetPrice(p.Item, p.Price), true
	case "buySupply":
		return s.BuySupply(p.Item, p.Units), true
	case "craft":
		return s.Craft(p.Product, p.Batches), true
	case "runMarketing":
		return s.RunMarketing(p.Kind), true
	case "hostFestival":
		return s.HostFestival(), true
	case "deepClean":
		return s.DeepClean(), true
	case "repairHouse":
		return s.RepairHouse(), true

	case "hireCandidate":
		return s.HireCandidate(p.ID), true
	case "fireStaff":
		return s.FireStaff(p.ID), true
	case "trainStaff":
		return s.TrainStaff(p.ID, p.Focus), true
	case "setStaffShift":
		return s.SetStaffShift(p.ID, tavern.Shift(p.Shift)), true
	case "scoutCandidate":
		return s.ScoutCandidate(p.ID), true
	case "dismissCandidate":
		return s.DismissCandidate(p.ID), true

	case "signLocalBrokerContract":
		return s.SignLocalBrokerContract(p.Days), true
	case "signWholesaleContract":
		return s.SignWholesaleContract(p.Days), true
	case "startCityStockRun":
		return s.StartCityStockRun(p.StaffID, p.District, p.Budget), true
	case "sendScout":
		return s.SendScout(p.District), true
	case "courtActor":
		return s.CourtActor(tavern.ActorID(p.ID)), true
	case "acknowledgeMessage":
		return s.AcknowledgeMessage(p.ID), true
	case "setDelegation":
		return s.SetDelegation(p.Task, p.Enabled), true
	case "claimObjective":
		return s.ClaimObjective(p.ID), true
	case "followRumor":
		return s.FollowRumor(p.ID), true

	case "updatePlan":
		return s.UpdateWeeklyPlanDraft(p.Field, p.Value), true
	case "commitPlan":
		return s.CommitWeeklyPlan(), true
	case "requestPhase":
		return s.RequestPhase(tavern.Phase(p.To)), true

	case "advanceDay":
		return s.AdvanceDay(tavern.AdvanceOptions{}), true
	case "advanceMinutes":
		return s.AdvanceSimulationMinutes(p.Minutes), true
	case "setSpeed":
		return s.SetSpeed(p.Speed), true

	case "setRandomSeed":
		return s.SetRandomSeed(p.Seed), true
	case "clearRandomSeed":
		return s.ClearRandomSeed(), true

	case "save":
		if err := g.writeSaveLocked(); err != nil {
			return tavern.Result{OK: false, Code: protocol.ErrBadRequest, Err: err.Error()}, true
		}
		return tavern.Result{OK: true, Tone: tavern.ToneGood}, true
	}
	return tavern.Result{}, false
}

// Tick runs one real-time tick of the minute clock. A paused clock (speed 0)
// is a no-op; a boundary in flight makes the sim refuse and we retry on the
// next tick.
func (g *game) Tick() {
	g.mu.Lock()
	defer g.mu.Unlock()

	speed := g.sim.State().Clock.Speed
	if speed <= 0 {
		return
	}
	res := g.sim.AdvanceSimulationMinutes(speed)
	if !res.OK && res.Code != protocol.ErrBoundaryLocked {
		g.logger.Printf("minute tick refused: %s %s", res.Code, res.Err)
	}
}

// publishLocked pushes the headline frame and flushes any newly published
// day report to observers, logs and the index. Caller holds g.mu.
func (g *game) publishLocked() {
	st := g.sim.State()

	if g.obs != nil {
		g.obs.Broadcast(protocol.StateMsg{
			Type:    protocol.TypeState,
			Day:     st.Day,
			Weekday: st.Manager.DayInWeek,
			Minute:  st.Clock.Minute,
			Speed:   st.Clock.Speed,
			Phase:   string(st.Manager.Phase),
			Gold:    st.Gold,
			Rep:     st.Reputation,
			Guests:  st.LastGuests,
		})
	}

	rep := st.LastReport
	if rep == nil || rep.Day == g.lastReportDay {
		return
	}
	g.lastReportDay = rep.Day

	if g.reports != nil {
		if err := g.reports.WriteReport(rep); err != nil {
			g.logger.Printf("report log: %v", err)
		}
	}
	if g.idx != nil {
		_ = g.idx.WriteReport(g.id, rep)
		if rep.WeekClosed {
			g.idx.RecordWeek(g.id, st.Manager.WeekIndex-1, rep.Day, rep.Revenue, rep.Guests, rep.Net)
		}
	}
	if g.obs != nil {
		if b, err := json.Marshal(rep); err == nil {
			g.obs.Broadcast(protocol.ReportMsg{Type: protocol.TypeReport, Day: rep.Day, Report: b})
		}
	}

	every := g.tune.SnapshotEveryDays
	if every <= 0 {
		every = 7
	}
	if rep.WeekClosed || rep.Day%every == 0 {
		if err := g.writeSaveLocked(); err != nil {
			g.logger.Printf("autosave: %v", err)
		}
	}
}

func (g *game) writeSaveLocked() error {
	if g.savesDir == "" {
		return nil
	}
	now := time.Now().UTC()
	payload, err := g.sim.MarshalSave(now)
	if err != nil {
		return fmt.Errorf("marshal save: %w", err)
	}
	st := g.sim.State()
	h := snapshot.Header{
		Version: tavern.SaveVersion,
		Game:    g.id,
		Day:     st.Day,
		SavedAt: now.Format(time.RFC3339),
	}
	path := snapshot.PathFor(g.savesDir, st.Day)
	if err := snapshot.Write(path, h, payload); err != nil {
		return fmt.Errorf("write save: %w", err)
	}
	if g.idx != nil {
		g.idx.RecordSave(g.id, path, h)
	}
	if week, archived, ok, err := archive.ArchiveWeekSave(filepath.Dir(g.savesDir), path, h); err != nil {
		g.logger.Printf("archive week save: %v", err)
	} else if ok {
		g.logger.Printf("archived week %d -> %s", week, archived)
	}
	g.logger.Printf("saved day %d -> %s", st.Day, path)
	return nil
}

func (g *game) audit(day int, op string, res tavern.Result) {
	if g.audits != nil {
		_ = g.audits.WriteAudit(persistlog.AuditRecord{
			Game:   g.id,
			Day:    day,
			Action: op,
			OK:     res.OK,
			Code:   res.Code,
			Err:    res.Err,
		})
	}
	if g.idx != nil {
		g.mu.Lock()
		minute := g.sim.State().Clock.Minute
		g.mu.Unlock()
		_ = g.idx.WriteAudit(indexdb.AuditEntry{
			Game:   g.id,
			Day:    day,
			Minute: minute,
			Action: op,
			OK:     res.OK,
			Code:   res.Code,
			Err:    res.Err,
		})
	}
}

// SaveNow forces a snapshot, for the /v1/save endpoint.
func (g *game) SaveNow() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.writeSaveLocked()
}

// StateJSON renders the full state for /v1/state.
func (g *game) StateJSON() ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return json.Marshal(g.sim.State())
}

// LastReportJSON renders the most recent day report, or nil when no day has
// closed yet.
func (g *game) LastReportJSON() ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rep := g.sim.State().LastReport
	if rep == nil {
		return nil, nil
	}
	return json.Marshal(rep)
}
