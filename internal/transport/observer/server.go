package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"antfarm.ai/internal/observerproto"
	"antfarm.ai/internal/sim/world"
)

const (
	maxEveryTicks = 600
	editTimeout   = 2 * time.Second
)

type Server struct {
	world *world.World
	log   *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	// AllowRemote lifts the loopback-only restriction.
	AllowRemote bool
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	return &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !s.allowed(r) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		cfg := s.world.Config()
		resp := observerproto.BootstrapResponse{
			ProtocolVersion: observerproto.Version,
			WorldID:         cfg.ID,
			Tick:            s.world.CurrentTick(),
			WorldParams: observerproto.WorldParams{
				Width:           cfg.Width,
				Height:          cfg.Height,
				CellSize:        cfg.CellSize,
				TickRateHz:      cfg.TickRateHz,
				EvaporationRate: cfg.EvaporationRate,
				HomeSize:        cfg.HomeSize,
			},
			Colonies: []observerproto.ColonyInfo{},
		}
		for _, n := range s.world.Nests() {
			resp.Colonies = append(resp.Colonies, observerproto.ColonyInfo{
				ID:     int(n.ID),
				Origin: [2]int{n.Origin.X, n.Origin.Y},
				Size:   n.Size,
			})
		}

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !s.allowed(r) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub observerproto.SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad subscribe"), time.Now().Add(time.Second))
			return
		}
		if sub.Type != observerproto.TypeSubscribe || sub.ProtocolVersion != observerproto.Version {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"), time.Now().Add(time.Second))
			return
		}

		normalizeSubscribe(&sub)

		sid := fmt.Sprintf("O%d", s.nextID.Add(1))
		frameOut := make(chan []byte, 4)
		ctrlOut := make(chan []byte, 64)

		joinReq := world.ObserverJoinRequest{
			SessionID:  sid,
			Out:        frameOut,
			EveryTicks: sub.EveryTicks,
			Scent:      sub.Scent,
		}
		select {
		case s.world.ObserverJoin() <- joinReq:
		default:
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server busy"), time.Now().Add(time.Second))
			return
		}
		if s.log != nil {
			s.log.Printf("observer %s joined from %s every=%d scent=%v", sid, r.RemoteAddr, sub.EveryTicks, sub.Scent)
		}
		defer func() {
			select {
			case s.world.ObserverLeave() <- sid:
			default:
				// World loop is stopping; nothing else to do.
			}
		}()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		writeErr := make(chan error, 1)
		go func() {
			for {
				var b []byte
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b = <-ctrlOut:
				case b = <-frameOut:
				}
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					writeErr <- err
					return
				}
			}
		}()

		// Reader loop: SUBSCRIBE updates and obstacle edits.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var head struct {
				Type            string `json:"type"`
				ProtocolVersion string `json:"protocol_version"`
			}
			if err := json.Unmarshal(msg, &head); err != nil || head.ProtocolVersion != observerproto.Version {
				continue
			}
			switch head.Type {
			case observerproto.TypeSubscribe:
				var sub observerproto.SubscribeMsg
				if err := json.Unmarshal(msg, &sub); err != nil {
					continue
				}
				normalizeSubscribe(&sub)
				req := world.ObserverSubscribeRequest{
					SessionID:  sid,
					EveryTicks: sub.EveryTicks,
					Scent:      sub.Scent,
				}
				select {
				case s.world.ObserverSubscribe() <- req:
				default:
					// Drop updates under load; the client may resend.
				}
			case observerproto.TypeEdit:
				var edit observerproto.EditMsg
				if err := json.Unmarshal(msg, &edit); err != nil {
					continue
				}
				b, err := json.Marshal(s.applyEdit(ctx, edit))
				if err != nil {
					continue
				}
				select {
				case ctrlOut <- b:
				default:
				}
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		// Best-effort wait for the writer to stop so it doesn't outlive conn.
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// applyEdit forwards one edit to the world loop and waits for the tick that applies it.
func (s *Server) applyEdit(ctx context.Context, edit observerproto.EditMsg) observerproto.EditResultMsg {
	res := observerproto.EditResultMsg{
		Type:            observerproto.TypeEditResult,
		ProtocolVersion: observerproto.Version,
		Op:              edit.Op,
		X:               edit.X,
		Y:               edit.Y,
	}
	if edit.Op != observerproto.OpPlaceObstacle && edit.Op != observerproto.OpRemoveObstacle {
		res.Error = "unknown op"
		return res
	}
	resp := make(chan world.EditResult, 1)
	select {
	case s.world.Edits() <- world.EditRequest{Op: edit.Op, X: edit.X, Y: edit.Y, Resp: resp}:
	default:
		res.Error = "server busy"
		return res
	}
	select {
	case r := <-resp:
		res.OK = r.OK
		res.Tick = r.Tick
		if r.Err != nil {
			res.Error = r.Err.Error()
		}
	case <-time.After(editTimeout):
		res.Error = "timeout"
	case <-ctx.Done():
		res.Error = "closed"
	}
	return res
}

func (s *Server) allowed(r *http.Request) bool {
	return s.AllowRemote || isLoopbackRemote(r.RemoteAddr)
}

func normalizeSubscribe(sub *observerproto.SubscribeMsg) {
	if sub.EveryTicks <= 0 {
		sub.EveryTicks = 1
	}
	if sub.EveryTicks > maxEveryTicks {
		sub.EveryTicks = maxEveryTicks
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
