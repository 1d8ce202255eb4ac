package tavern

// Analytics: a rolling window of daily rows plus week-over-week deltas, fed
// to the command board reporting and external observers.

type Analytics struct {
	History []DayStats `json:"history,omitempty"`

	RevenueDelta7      float64 `json:"revenueDelta7"`
	GuestsDelta7       float64 `json:"guestsDelta7"`
	SatisfactionDelta7 float64 `json:"satisfactionDelta7"`
}

func (s *Sim) updateAnalytics(report *DayReport) {
	a := &s.state.Manager.Analytics
	a.History = append(a.History, DayStats{
		Day:          report.Day,
		Guests:       report.Guests,
		Revenue:      report.Revenue,
		Expenses:     report.Expenses,
		Net:          report.Net,
		Satisfaction: report.Satisfaction,
		Reputation:   s.state.Reputation,
		Gold:         s.state.Gold,
	})
	if window := s.tun.AnalyticsWindow; len(a.History) > window {
		a.History = a.History[len(a.History)-window:]
	}
	a.RevenueDelta7 = weekDelta(a.History, func(d DayStats) float64 { return d.Revenue })
	a.GuestsDelta7 = weekDelta(a.History, func(d DayStats) float64 { return float64(d.Guests) })
	a.SatisfactionDelta7 = weekDelta(a.History, func(d DayStats) float64 { return d.Satisfaction })
}

// weekDelta compares the last 7 days' average against the 7 before that.
// Zero until two full weeks of history exist.
func weekDelta(hist []DayStats, pick func(DayStats) float64) float64 {
	if len(hist) < 14 {
		return 0
	}
	recent, prior := 0.0, 0.0
	for _, d := range hist[len(hist)-7:] {
		recent += pick(d)
	}
	for _, d := range hist[len(hist)-14 : len(hist)-7] {
		prior += pick(d)
	}
	return (recent - prior) / 7
}
