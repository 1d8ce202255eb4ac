// Command bot is a scripted autoplay client used for soak-testing a running
// server: it keeps the clock unpaused, commits a plan whenever the game sits
// in planning, and logs each day report as it arrives.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"

	"emberhall/internal/protocol"
	"emberhall/internal/sim/tavern"
)

func main() {
	var (
		url   = flag.String("url", "ws://127.0.0.1:8080/v1/ws", "ws url")
		speed = flag.Int("speed", 4, "clock speed to hold (1, 2 or 4)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      "bot",
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	committedDay := -1
	for {
		select {
		case <-stop:
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		kind, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch kind {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME game=%s day=%d seeded=%v", w.Game, w.Day, w.Seeded)

		case protocol.TypeState:
			var st protocol.StateMsg
			if err := json.Unmarshal(msg, &st); err != nil {
				continue
			}
			if st.Phase == string(tavern.PhasePlanning) && st.Day != committedDay {
				committedDay = st.Day
				sendAction(conn, "commitPlan", nil)
			}
			if st.Speed == 0 {
				sendAction(conn, "setSpeed", map[string]any{"speed": *speed})
			}

		case protocol.TypeReport:
			var rep protocol.ReportMsg
			if err := json.Unmarshal(msg, &rep); err != nil {
				continue
			}
			var day tavern.DayReport
			if err := json.Unmarshal(rep.Report, &day); err != nil {
				continue
			}
			logger.Printf("day=%d guests=%d revenue=%.1f net=%.1f gold=%.1f",
				day.Day, day.Guests, day.Revenue, day.Net, day.GoldAfter)

		case protocol.TypeResult:
			var res protocol.ResultMsg
			if err := json.Unmarshal(msg, &res); err != nil {
				continue
			}
			if !res.OK {
				logger.Printf("%s refused: %s %s", res.Op, res.Code, res.Error)
			}
		}
	}
}

func sendAction(conn *websocket.Conn, op string, params map[string]any) {
	act := protocol.ActionMsg{Type: protocol.TypeAction, Op: op}
	if params != nil {
		if b, err := json.Marshal(params); err == nil {
			act.Params = b
		}
	}
	_ = conn.WriteJSON(act)
}
