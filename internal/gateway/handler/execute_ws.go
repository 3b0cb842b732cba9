package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"bootstrapper/internal/gateway/run"
	"bootstrapper/internal/plan"
)

const (
	executeWSWriteWait = 10 * time.Second
	executeWSPongWait  = 60 * time.Second
	executeWSPingEvery = (executeWSPongWait * 9) / 10
)

var executeWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type stepEvent struct {
	Index  int                  `json:"index"`
	Total  int                  `json:"total"`
	Result plan.StepResult      `json:"result"`
	Files  []plan.GeneratedFile `json:"files"`
}

type executeWSOutbound struct {
	Type    string       `json:"type"`
	Step    *stepEvent   `json:"step,omitempty"`
	Result  *run.Outcome `json:"result,omitempty"`
	Message string       `json:"message,omitempty"`
}

// HandleExecuteWS runs one plan per connection. The client sends the plan as
// its first message; the server answers with one "step" message per step and
// a final "result" (or "error") message, then closes. Closing the connection
// early cancels the steps that have not started yet.
func (h *Handler) HandleExecuteWS(w http.ResponseWriter, r *http.Request) {
	conn, err := executeWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadLimit(maxBodyBytes)
	if err := conn.SetReadDeadline(time.Now().Add(executeWSPongWait)); err != nil {
		h.log.Printf("execute ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(executeWSPongWait))
	})

	writeCh := make(chan executeWSOutbound, 32)
	writerDone := make(chan struct{})
	go writeExecuteWS(ctx, conn, writeCh, writerDone)
	finish := func() {
		close(writeCh)
		<-writerDone
	}

	_, raw, err := conn.ReadMessage()
	if err != nil {
		cancel()
		finish()
		return
	}
	steps, err := plan.Decode(raw)
	if err != nil {
		pushExecuteWS(ctx, writeCh, executeWSOutbound{Type: "error", Message: err.Error()})
		finish()
		return
	}

	// Keep reading so pongs and the peer's close frame are processed.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	out, err := h.runs.Execute(ctx, steps, func(i int, res plan.StepResult, files []plan.GeneratedFile) {
		pushExecuteWS(ctx, writeCh, executeWSOutbound{
			Type: "step",
			Step: &stepEvent{Index: i, Total: len(steps), Result: res, Files: files},
		})
	})
	if err != nil {
		pushExecuteWS(ctx, writeCh, executeWSOutbound{Type: "error", Message: err.Error()})
	} else {
		pushExecuteWS(ctx, writeCh, executeWSOutbound{Type: "result", Result: &out})
	}
	finish()
}

func writeExecuteWS(ctx context.Context, conn *websocket.Conn, writeCh <-chan executeWSOutbound, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(executeWSPingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case out, ok := <-writeCh:
			if err := conn.SetWriteDeadline(time.Now().Add(executeWSWriteWait)); err != nil {
				return
			}
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(out); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(executeWSWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func pushExecuteWS(ctx context.Context, ch chan<- executeWSOutbound, out executeWSOutbound) {
	select {
	case ch <- out:
	case <-ctx.Done():
	}
}
