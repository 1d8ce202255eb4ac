package tavern

import (
	"fmt"

	"emberhall/internal/protocol"
)

// Roster actions: hiring off the candidate market, letting workers go,
// training and shift assignment.

// HireCandidate signs a candidate from the recruitment market onto the
// roster at their asking wage.
func (s *Sim) HireCandidate(id string) Result {
	if r := s.requireActionWindow("hireCandidate"); !r.OK {
		return r
	}
	idx, c := s.findCandidate(id)
	if c == nil {
		return fail(protocol.ErrInvalidTarget, fmt.Sprintf("no candidate %q on the market", id))
	}
	signingCost := c.WageAsk * 2
	if s.state.Gold < signingCost {
		return fail(protocol.ErrNoGold, fmt.Sprintf("signing %s needs %.0f gold up front", c.Name, signingCost))
	}
	st := s.state
	st.Gold -= signingCost
	morale := c.HiddenMorale
	st.Staff = append(st.Staff, Staff{
		ID:            "st_" + s.rng.RandomID(6),
		Name:          c.Name,
		Role:          c.Role,
		Wage:          c.WageAsk,
		Service:       c.Service,
		Quality:       c.Quality,
		Morale:        morale,
		Fatigue:       s.rng.Range(8, 22),
		AssignedShift: ShiftDay,
	})
	rec := &st.Manager.Recruitment
	rec.Candidates = append(rec.Candidates[:idx], rec.Candidates[idx+1:]...)
	s.appendLog(fmt.Sprintf("Hired %s as %s at %.0f/day", c.Name, c.Role, c.WageAsk), ToneGood)
	s.notify()
	return okRes()
}

// FireStaff lets a worker go. The house never runs without at least one
// worker on the books, and nobody can be dismissed mid-errand.
func (s *Sim) FireStaff(id string) Result {
	if r := s.requireActionWindow("fireStaff"); !r.OK {
		return r
	}
	if len(s.state.Staff) <= 1 {
		return fail(protocol.ErrLastStaff, "cannot dismiss the last worker")
	}
	m := s.findStaff(id)
	if m == nil {
		return fail(protocol.ErrInvalidTarget, fmt.Sprintf("no worker %q on the roster", id))
	}
	if s.staffOnErrand(id) {
		return fail(protocol.ErrTravelBusy, m.Name+" is away on a stock run")
	}
	severance := m.Wage * 3
	if s.state.Gold < severance {
		return fail(protocol.ErrNoGold, fmt.Sprintf("severance for %s runs %.0f gold", m.Name, severance))
	}
	// Compaction below reuses the backing array, so m is dead after it.
	firedName := m.Name
	st := s.state
	st.Gold -= severance
	kept := st.Staff[:0]
	for _, w := range st.Staff {
		if w.ID != id {
			kept = append(kept, w)
		}
	}
	st.Staff = kept
	// A dismissal unsettles the rest of the roster.
	for i := range st.Staff {
		st.Staff[i].Morale = clampStat(st.Staff[i].Morale - s.rng.Range(1, 4))
	}
	s.appendLog(fmt.Sprintf("Let %s go with %.0f gold severance", firedName, severance), ToneBad)
	s.notify()
	return okRes().withTone(ToneBad)
}

// TrainStaff runs a coached session for one worker; once per day per worker.
func (s *Sim) TrainStaff(id, focus string) Result {
	if r := s.requireActionWindow("trainStaff"); !r.OK {
		return r
	}
	m := s.findStaff(id)
	if m == nil {
		return fail(protocol.ErrInvalidTarget, fmt.Sprintf("no worker %q on the roster", id))
	}
	if s.staffOut(m) {
		return fail(protocol.ErrInvalidTarget, m.Name+" is not available for training")
	}
	if focus != "service" && focus != "quality" {
		return fail(protocol.ErrBadRequest, "training focus must be service or quality")
	}
	const cost = 5.0
	if s.state.Gold < cost {
		return fail(protocol.ErrNoGold, "a training session needs 5 gold")
	}
	if r := s.enforceActionCadence("trainStaff:"+id, cadencePerDay); !r.OK {
		return r
	}
	s.state.Gold -= cost
	gain := s.rng.Range(1.2, 2.6)
	if focus == "service" {
		m.Service = clampStat(m.Service + gain)
	} else {
		m.Quality = clampStat(m.Quality + gain)
	}
	m.Fatigue = clampStat(m.Fatigue + 4)
	s.appendLog(fmt.Sprintf("%s drilled %s (+%.1f)", m.Name, focus, gain), ToneGood)
	s.notify()
	return okData(map[string]any{"gain": gain})
}

// SetStaffShift pins a worker's preferred shift for the next assignment draw.
func (s *Sim) SetStaffShift(id string, shift Shift) Result {
	if r := s.requireActionWindow("setStaffShift"); !r.OK {
		return r
	}
	m := s.findStaff(id)
	if m == nil {
		return fail(protocol.ErrInvalidTarget, fmt.Sprintf("no worker %q on the roster", id))
	}
	if shift != ShiftDay && shift != ShiftNight {
		return fail(protocol.ErrBadRequest, "shift must be day or night")
	}
	m.AssignedShift = shift
	s.notify()
	return okRes().withTone(ToneNeutral)
}

// ScoutCandidate pays to reveal a candidate's hidden temperament before
// committing to a hire.
func (s *Sim) ScoutCandidate(id string) Result {
	if r := s.requireActionWindow("scoutCandidate"); !r.OK {
		return r
	}
	_, c := s.findCandidate(id)
	if c == nil {
		return fail(protocol.ErrInvalidTarget, fmt.Sprintf("no candidate %q on the market", id))
	}
	if c.Revealed {
		return fail(protocol.ErrBadRequest, c.Name+" has already been checked out")
	}
	const cost = 4.0
	if s.state.Gold < cost {
		return fail(protocol.ErrNoGold, "asking around costs 4 gold")
	}
	s.state.Gold -= cost
	c.Revealed = true
	s.appendLog(fmt.Sprintf("Asked around about %s: morale %.0f, reliability %.0f%%", c.Name, c.HiddenMorale, c.HiddenReliability*100), ToneNeutral)
	s.notify()
	return okData(map[string]any{
		"morale":      c.HiddenMorale,
		"reliability": c.HiddenReliability,
	}).withTone(ToneNeutral)
}

// DismissCandidate strikes a candidate off the market without hiring.
func (s *Sim) DismissCandidate(id string) Result {
	if r := s.requireActionWindow("dismissCandidate"); !r.OK {
		return r
	}
	idx, c := s.findCandidate(id)
	if c == nil {
		return fail(protocol.ErrInvalidTarget, fmt.Sprintf("no candidate %q on the market", id))
	}
	rec := &s.state.Manager.Recruitment
	rec.Candidates = append(rec.Candidates[:idx], rec.Candidates[idx+1:]...)
	s.notify()
	return okRes().withTone(ToneNeutral)
}
