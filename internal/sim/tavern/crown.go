package tavern

import "fmt"

// Crown tax: daily accrual, cadence collection with arrears surcharge, and a
// probabilistic audit that can waive or punish.

type CrownAuthority struct {
	CadenceDays       int     `json:"cadenceDays"`
	NextCollectionDay int     `json:"nextCollectionDay"`
	PendingTax        float64 `json:"pendingTax"`
	Arrears           float64 `json:"arrears"`
	Compliance        float64 `json:"complianceScore"` // 0..100
	AuditsPassed      int     `json:"auditsPassed"`
	AuditsFailed      int     `json:"auditsFailed"`

	History []CrownEvent `json:"history,omitempty"`
}

type CrownEvent struct {
	Day    int     `json:"day"`
	Kind   string  `json:"kind"` // accrual is not logged; collection/shortfall/audit are
	Amount float64 `json:"amount"`
	Note   string  `json:"note,omitempty"`
}

const arrearsSurcharge = 1.15

func (s *Sim) initialCrown() CrownAuthority {
	return CrownAuthority{
		CadenceDays:       s.tun.CrownCadenceDays,
		NextCollectionDay: 1 + s.tun.CrownCadenceDays,
		Compliance:        70,
	}
}

func (s *Sim) crownHistory(ev CrownEvent) {
	c := &s.state.World.Crown
	c.History = append(c.History, ev)
	if limit := s.tun.CrownHistoryCap; len(c.History) > limit {
		c.History = c.History[len(c.History)-limit:]
	}
}

type crownOutcome struct {
	Accrued   float64
	Collected bool
	Paid      float64
	Shortfall float64
}

// runCrownTax accrues the day's tax and, on collection day, settles it from
// whatever gold plus today's revenue can cover. Unpaid remainder rolls into
// arrears with a surcharge and costs compliance and standing.
func (s *Sim) runCrownTax(revenue float64, mods WorldRuntimeModifiers) crownOutcome {
	st := s.state
	c := &st.World.Crown
	rate := s.tun.CrownTaxRate + mods.TaxRateBonus
	if rate < 0 {
		rate = 0
	}
	accrued := s.tun.CrownTaxFlat + mods.TaxFlatBonus + revenue*rate
	if accrued < 0 {
		accrued = 0
	}
	c.PendingTax += accrued
	out := crownOutcome{Accrued: accrued}

	if st.Day < c.NextCollectionDay {
		return out
	}

	due := c.PendingTax + c.Arrears
	available := st.Gold + revenue
	if available < 0 {
		available = 0
	}
	paid := due
	if paid > available {
		paid = available
	}
	shortfall := due - paid

	c.PendingTax = 0
	out.Collected = true
	out.Paid = paid
	out.Shortfall = shortfall

	if shortfall > 0 {
		c.Arrears = shortfall * arrearsSurcharge
		c.Compliance = clampStat(c.Compliance - 6)
		if a := s.findActor(ActorCrownOffice); a != nil {
			s.shiftActorStanding(a, -4)
		}
		s.crownHistory(CrownEvent{Day: st.Day, Kind: "shortfall", Amount: shortfall,
			Note: fmt.Sprintf("paid %.0f of %.0f due", paid, due)})
		s.appendLog(fmt.Sprintf("Crown collection fell short by %.0f gold; arrears carried with surcharge", shortfall), ToneBad)
	} else {
		c.Arrears = 0
		c.Compliance = clampStat(c.Compliance + 2)
		s.crownHistory(CrownEvent{Day: st.Day, Kind: "collection", Amount: paid})
		s.appendLog(fmt.Sprintf("Crown tax of %.0f gold collected", paid), ToneNeutral)
	}
	c.NextCollectionDay = st.Day + c.CadenceDays
	return out
}

// runCrownAuditCheck fires probabilistically under arrears, low compliance or
// poor standards pressure. A pass waives arrears; a failure fines and dents
// reputation.
func (s *Sim) runCrownAuditCheck() string {
	st := s.state
	c := &st.World.Crown

	p := 0.03 + c.Arrears/420 + (62-c.Compliance)/380
	if st.Cleanliness < inspectorStandardsFloor {
		p += 0.04
	}
	if p < 0.01 {
		p = 0.01
	}
	if p > 0.45 {
		p = 0.45
	}
	if !s.rng.Chance(p) {
		return ""
	}

	passChance := clamp(c.Compliance/100*0.8+st.Cleanliness/100*0.2, 0.05, 0.95)
	if s.rng.Chance(passChance) {
		c.AuditsPassed++
		c.Compliance = clampStat(c.Compliance + 3)
		waived := c.Arrears
		c.Arrears = 0
		s.crownHistory(CrownEvent{Day: st.Day, Kind: "audit_pass", Amount: waived})
		if waived > 0 {
			s.appendLog(fmt.Sprintf("Crown audit passed; %.0f gold of arrears waived", waived), ToneGood)
		} else {
			s.appendLog("Crown audit passed; the ledgers are clean", ToneGood)
		}
		return "pass"
	}

	fine := 12 + c.Arrears*0.2
	st.Gold -= fine
	c.AuditsFailed++
	c.Compliance = clampStat(c.Compliance - 5)
	st.Reputation = clampStat(st.Reputation - 2)
	if a := s.findActor(ActorCrownOffice); a != nil {
		s.shiftActorStanding(a, -3)
	}
	s.crownHistory(CrownEvent{Day: st.Day, Kind: "audit_fail", Amount: fine})
	s.appendLog(fmt.Sprintf("Crown audit failed; fined %.0f gold", fine), ToneBad)
	return "fail"
}
