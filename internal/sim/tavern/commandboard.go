package tavern

import (
	"fmt"
	"sort"
)

// Command board: the manager's message queue. Subsystems post here when
// something needs a human decision; urgency sorts above recency and the board
// is bounded.

type BoardMessage struct {
	ID      string `json:"id"`
	Day     int    `json:"day"`
	Urgency int    `json:"urgency"` // 3 urgent, 2 notable, 1 routine
	Title   string `json:"title"`
	Body    string `json:"body"`
	Tone    string `json:"tone"`
	Acked   bool   `json:"acked"`
}

func (s *Sim) postCommandMessage(urgency int, title, body, tone string) {
	m := &s.state.Manager
	msg := BoardMessage{
		ID:      fmt.Sprintf("msg_d%d_%s", s.state.Day, s.rng.RandomID(4)),
		Day:     s.state.Day,
		Urgency: clampInt(urgency, 1, 3),
		Title:   title,
		Body:    body,
		Tone:    tone,
	}
	m.CommandBoard = append(m.CommandBoard, msg)
	sort.SliceStable(m.CommandBoard, func(i, j int) bool {
		a, b := m.CommandBoard[i], m.CommandBoard[j]
		if a.Urgency != b.Urgency {
			return a.Urgency > b.Urgency
		}
		if a.Day != b.Day {
			return a.Day > b.Day
		}
		return a.ID < b.ID
	})
	if limit := s.tun.CommandBoardCap; len(m.CommandBoard) > limit {
		// Drop acknowledged routine mail first, then the oldest overflow.
		kept := m.CommandBoard[:0]
		dropped := 0
		need := len(m.CommandBoard) - limit
		for _, msg := range m.CommandBoard {
			if dropped < need && msg.Acked && msg.Urgency == 1 {
				dropped++
				continue
			}
			kept = append(kept, msg)
		}
		if len(kept) > limit {
			kept = kept[:limit]
		}
		m.CommandBoard = kept
	}
}

func (s *Sim) findBoardMessage(id string) *BoardMessage {
	for i := range s.state.Manager.CommandBoard {
		if s.state.Manager.CommandBoard[i].ID == id {
			return &s.state.Manager.CommandBoard[i]
		}
	}
	return nil
}
