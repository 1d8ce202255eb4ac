package tavern

import "fmt"

// Staff model: availability, shift assignment, effective contribution and the
// end-of-day incident rolls that take workers out of the roster for a spell.

// roleShiftBias is each role's base probability of drawing the night shift.
var roleShiftBias = map[Role]float64{
	RoleServer:  0.45,
	RoleCook:    0.30,
	RoleBarkeep: 0.70,
	RoleGuard:   0.80,
}

// targetNightShare is the staffing split the house wants; weekends push it up.
const (
	targetNightShare       = 0.45
	weekendNightShareBonus = 0.12
	weekendShiftProbBonus  = 0.10
)

func isStaffUnavailable(m *Staff) bool {
	return m.InjuryDays > 0 || m.DisputeDays > 0
}

// staffOut reports whether the worker is out of the day's rotation, whether
// laid up or escorting a stock run.
func (s *Sim) staffOut(m *Staff) bool {
	return isStaffUnavailable(m) || s.staffOnErrand(m.ID)
}

func moraleScale(m *Staff) float64 {
	return 0.75 + m.Morale/200
}

func fatigueScale(m *Staff) float64 {
	return clamp(1-m.Fatigue/160, 0.45, 1)
}

// staffStats is the roster summary the day pipeline consumes.
type staffStats struct {
	Service   float64 // effective service capacity points
	Quality   float64 // effective quality points
	Payroll   float64
	Available int
	Roster    int
	ShiftFit  float64 // 0.8..1.12-ish multiplier from night-share fit
}

// assignDailyShifts redraws each available worker's shift with role bias, and
// scores how well the resulting split matches the target night share.
func (s *Sim) assignDailyShifts(weekend bool) float64 {
	st := s.state
	night, avail := 0, 0
	for i := range st.Staff {
		m := &st.Staff[i]
		if s.staffOut(m) {
			continue
		}
		avail++
		p := roleShiftBias[m.Role]
		if weekend {
			p += weekendShiftProbBonus
		}
		if s.rng.Chance(clamp(p, 0.05, 0.95)) {
			m.AssignedShift = ShiftNight
			night++
		} else {
			m.AssignedShift = ShiftDay
		}
	}
	if avail == 0 {
		return 0.8
	}
	target := targetNightShare
	if weekend {
		target += weekendNightShareBonus
	}
	gap := float64(night)/float64(avail) - target
	if gap < 0 {
		gap = -gap
	}
	// Perfect fit lands at 1.12; a fully inverted roster bottoms out at 0.8.
	return clamp(1.12-gap*0.64, 0.8, 1.12)
}

// computeStaffStats aggregates contribution and payroll. Unavailable workers
// contribute nothing to capacity but stay on the payroll.
func (s *Sim) computeStaffStats(shiftFit float64) staffStats {
	st := s.state
	stats := staffStats{ShiftFit: shiftFit, Roster: len(st.Staff)}
	for i := range st.Staff {
		m := &st.Staff[i]
		stats.Payroll += m.Wage
		if s.staffOut(m) {
			continue
		}
		stats.Available++
		scale := moraleScale(m) * fatigueScale(m)
		stats.Service += m.Service * scale
		stats.Quality += m.Quality * scale
	}
	return stats
}

// serviceCapacity converts service points into the guest count the house can
// actually seat and serve in a day.
func (stats staffStats) serviceCapacity() int {
	if stats.Available == 0 {
		return 6
	}
	return int(18 + stats.Service*0.62*stats.ShiftFit)
}

// qualityContribution folds staff skill into the day's production quality.
func (stats staffStats) qualityContribution() float64 {
	if stats.Available == 0 {
		return 40
	}
	return clamp(36+stats.Quality/float64(stats.Available)*0.55, 30, 92)
}

// progressStaffAbsences ticks injury/dispute countdowns before the day runs.
func (s *Sim) progressStaffAbsences() {
	st := s.state
	for i := range st.Staff {
		m := &st.Staff[i]
		returned := false
		if m.InjuryDays > 0 {
			m.InjuryDays--
			returned = m.InjuryDays == 0 && m.DisputeDays == 0
		}
		if m.DisputeDays > 0 {
			m.DisputeDays--
			returned = m.DisputeDays == 0 && m.InjuryDays == 0
		}
		if returned {
			s.appendLog(fmt.Sprintf("%s returned to work", m.Name), ToneGood)
		}
	}
}

// applyStaffEndOfDay adds fatigue, settles morale toward the day's mood and
// rolls the burnout incidents. The busy shift works harder.
func (s *Sim) applyStaffEndOfDay(busyShift Shift, satisfaction float64) {
	st := s.state
	for i := range st.Staff {
		m := &st.Staff[i]
		if isStaffUnavailable(m) {
			// Resting: recover instead of working.
			m.Fatigue = clampStat(m.Fatigue - s.rng.Range(6, 11))
			continue
		}
		if s.staffOnErrand(m.ID) {
			// On the road: steady wear, no home-shift swings.
			m.Fatigue = clampStat(m.Fatigue + s.rng.Range(2, 4))
			continue
		}
		gain := s.rng.Range(3, 7)
		if m.AssignedShift == busyShift {
			gain += s.rng.Range(2, 5)
		}
		m.Fatigue = clampStat(m.Fatigue + gain)

		moodPull := (satisfaction - 58) / 40
		m.Morale = clampStat(m.Morale + moodPull + s.rng.Range(-1.2, 1.2))

		if m.Fatigue >= 84 && s.rng.Chance(0.09) {
			m.InjuryDays = s.rng.RandomInt(2, 4)
			m.Morale = clampStat(m.Morale - 8)
			s.appendLog(fmt.Sprintf("%s was injured and needs %d days of rest", m.Name, m.InjuryDays), ToneBad)
			continue
		}
		if m.Fatigue >= 76 && m.Morale < 48 && s.rng.Chance(0.12) {
			m.DisputeDays = s.rng.RandomInt(1, 3)
			m.Morale = clampStat(m.Morale - 5)
			s.appendLog(fmt.Sprintf("%s stormed off after a wage dispute (%d days)", m.Name, m.DisputeDays), ToneBad)
		}
	}
}

func (s *Sim) findStaff(id string) *Staff {
	for i := range s.state.Staff {
		if s.state.Staff[i].ID == id {
			return &s.state.Staff[i]
		}
	}
	return nil
}
