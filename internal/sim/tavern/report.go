package tavern

// DayReport is the structured summary advanceDay leaves in State.LastReport.
// External renderers, the websocket observer feed and the regression harness
// all consume this one shape.
type DayReport struct {
	Day     int    `json:"day"`
	Weekday int    `json:"weekday"` // 1..7, 6/7 are the weekend rush
	Season  string `json:"season"`

	Guests       int            `json:"guests"`
	DemandByItem map[string]int `json:"demandByItem"`
	SoldByItem   map[string]int `json:"soldByItem"`
	Fulfillment  float64        `json:"fulfillment"`

	Revenue  float64 `json:"revenue"`
	Payroll  float64 `json:"payroll"`
	Upkeep   float64 `json:"upkeep"`
	Expenses float64 `json:"expenses"`
	TaxPaid  float64 `json:"taxPaid"`
	Net      float64 `json:"net"`

	Satisfaction float64 `json:"satisfaction"`
	QualityScore float64 `json:"qualityScore"`
	ShiftFit     float64 `json:"shiftFit"`

	EventID      string `json:"eventId,omitempty"`
	EventHead    string `json:"eventHeadline,omitempty"`
	ActorEventID string `json:"actorEventId,omitempty"`

	CrownCollected bool    `json:"crownCollected"`
	CrownShortfall float64 `json:"crownShortfall,omitempty"`
	AuditOutcome   string  `json:"auditOutcome,omitempty"` // "", "pass", "fail"

	Spoilage []spoilageLoss `json:"spoilage,omitempty"`

	ReputationDelta float64 `json:"reputationDelta"`
	GoldAfter       float64 `json:"goldAfter"`

	RivalPressure float64 `json:"rivalPressure"`
	LoyaltyMult   float64 `json:"loyaltyMult"`

	WeekClosed bool `json:"weekClosed"`
}

// DayStats is the compact analytics row kept in the rolling history.
type DayStats struct {
	Day          int     `json:"day"`
	Guests       int     `json:"guests"`
	Revenue      float64 `json:"revenue"`
	Expenses     float64 `json:"expenses"`
	Net          float64 `json:"net"`
	Satisfaction float64 `json:"satisfaction"`
	Reputation   float64 `json:"reputation"`
	Gold         float64 `json:"gold"`
}
