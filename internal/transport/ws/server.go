package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"housegen.ai/internal/layout/plan"
	"housegen.ai/internal/protocol"
	"housegen.ai/internal/transport/api"
)

// Server streams planned scenes: each PLAN is answered with SCENE, one
// ELEMENT per element and DONE, or a single ERROR. A connection may send any
// number of PLAN messages.
type Server struct {
	planner     *plan.Planner
	defaultSeed int64
	log         *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(p *plan.Planner, defaultSeed int64, logger *log.Logger) *Server {
	s := &Server{
		planner:     p,
		defaultSeed: defaultSeed,
		log:         logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		out := make(chan []byte, 64)
		done := make(chan struct{})

		// Writer goroutine.
		go func() {
			defer close(done)
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if !s.handle(ctx, msg, out) {
				break
			}
		}
		close(out)
		<-done
	}
}

// handle answers one client message. It returns false once the connection
// is gone.
func (s *Server) handle(ctx context.Context, msg []byte, out chan<- []byte) bool {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return s.sendError(ctx, out, protocol.ErrBadRequest, "malformed JSON")
	}
	if base.Type != protocol.TypePlan {
		return s.sendError(ctx, out, protocol.ErrBadRequest, "expected PLAN")
	}
	req, err := api.DecodePlanRequest(msg)
	if err != nil {
		return s.sendError(ctx, out, protocol.CodeFor(err), err.Error())
	}
	scene, err := api.PlanScene(s.planner, req, s.defaultSeed)
	if err != nil {
		return s.sendError(ctx, out, protocol.CodeFor(err), err.Error())
	}

	overlaps := scene.Overlaps()
	if len(overlaps) > 0 && s.log != nil {
		s.log.Printf("ws plan seed=%d: %d overlapping room pairs", scene.Seed, len(overlaps))
	}
	if !s.send(ctx, out, protocol.SceneMsg{
		Type:            protocol.TypeScene,
		ProtocolVersion: protocol.Version,
		Seed:            scene.Seed,
		Footprint:       scene.Footprint,
		Budget:          req.Budget,
		Rooms:           scene.Rooms,
		Windows:         scene.Windows,
		ElementCount:    len(scene.Elements),
		Overlaps:        overlaps,
	}) {
		return false
	}
	for i, e := range scene.Elements {
		if !s.send(ctx, out, protocol.ElementMsg{Type: protocol.TypeElement, Index: i, Element: e}) {
			return false
		}
	}
	return s.send(ctx, out, protocol.DoneMsg{Type: protocol.TypeDone, Elements: len(scene.Elements)})
}

func (s *Server) sendError(ctx context.Context, out chan<- []byte, code, message string) bool {
	if code == "" {
		code = protocol.ErrInternal
	}
	return s.send(ctx, out, protocol.ErrorMsg{Type: protocol.TypeError, Code: code, Message: message})
}

func (s *Server) send(ctx context.Context, out chan<- []byte, v any) bool {
	b, err := json.Marshal(v)
	if err != nil {
		if s.log != nil {
			s.log.Printf("ws marshal: %v", err)
		}
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case out <- b:
		return true
	}
}
