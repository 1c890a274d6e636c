package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"polyglotshift/internal/executor"
	"polyglotshift/internal/orchestrator"
	"polyglotshift/internal/types"
)

const (
	streamWriteWait = 10 * time.Second
	streamReadWait  = 60 * time.Second
	streamPingEvery = (streamReadWait * 9) / 10
)

var streamUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// StreamEvent is one message sent on /ws/process.
type StreamEvent struct {
	Type        string          `json:"type"`
	State       string          `json:"state,omitempty"`
	Task        string          `json:"task,omitempty"`
	OK          bool            `json:"ok,omitempty"`
	FailureKind string          `json:"failureKind,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	Bytes       int             `json:"bytes,omitempty"`
	Result      *types.Response `json:"result,omitempty"`
	Message     string          `json:"message,omitempty"`
}

// streamObserver forwards orchestrator progress to the websocket writer.
type streamObserver struct {
	ctx context.Context
	out chan<- StreamEvent
}

func (o streamObserver) push(evt StreamEvent) {
	select {
	case o.out <- evt:
	case <-o.ctx.Done():
	}
}

func (o streamObserver) OnState(s orchestrator.State) {
	o.push(StreamEvent{Type: "state", State: string(s)})
}

func (o streamObserver) OnTaskStart(name string) {
	o.push(StreamEvent{Type: "task_start", Task: name})
}

func (o streamObserver) OnBackendCall(c orchestrator.BackendCall) {
	if !c.Done {
		o.push(StreamEvent{Type: "llm_request", Task: c.Task, Bytes: c.PromptBytes})
		return
	}
	evt := StreamEvent{Type: "llm_response", Task: c.Task, OK: c.Err == nil, Bytes: c.ResponseBytes}
	if c.Err != nil {
		evt.Reason = c.Err.Error()
	}
	o.push(evt)
}

func (o streamObserver) OnTaskDone(name string, f *executor.Failure) {
	evt := StreamEvent{Type: "task_done", Task: name, OK: f == nil}
	if f != nil {
		evt.FailureKind = string(f.Kind)
		evt.Reason = f.Reason
	}
	o.push(evt)
}

// HandleProcessStream reads one RawRequest from the socket, streams progress
// events while the tasks run, sends the result and closes.
func (h *ProcessHandler) HandleProcessStream(w http.ResponseWriter, r *http.Request) {
	conn, err := streamUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	conn.SetReadLimit(h.maxUpload + 64<<10)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(streamReadWait)); err != nil {
		h.log.Printf("process ws set read deadline failed: %v", err)
		return
	}
	var raw types.RawRequest
	if err := conn.ReadJSON(&raw); err != nil {
		h.log.Printf("process ws read request: %v", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseUnsupportedData, "expected a JSON request"),
			time.Now().Add(streamWriteWait))
		return
	}
	// Drain control frames so pongs and close requests are processed.
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamReadWait))
	})
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	writeCh := make(chan StreamEvent, 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(streamPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out, ok := <-writeCh:
				if !ok {
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
						time.Now().Add(streamWriteWait))
					return
				}
				if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	obs := streamObserver{ctx: ctx, out: writeCh}
	resp := h.proc.ProcessWithObserver(ctx, raw, obs)
	obs.push(StreamEvent{Type: "result", Result: &resp})
	close(writeCh)
	<-writerDone
}
