package stream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/xpbdsim/internal/config"
	"github.com/san-kum/xpbdsim/internal/experiment"
	"github.com/san-kum/xpbdsim/internal/geom"
	"github.com/san-kum/xpbdsim/internal/scene"
	"github.com/san-kum/xpbdsim/internal/sim"
	"github.com/san-kum/xpbdsim/internal/xpbd"
)

const DefaultBroadcastEvery = 2

// Server steps one scene in real time and broadcasts its state on /ws.
// Clients may grab particles by sending pointer rays.
type Server struct {
	Config *config.Config
	Build  experiment.Builder
	Every  int // ticks between broadcasts

	hub *Hub
}

func NewServer(cfg *config.Config, build experiment.Builder) *Server {
	return &Server{Config: cfg, Build: build, Every: DefaultBroadcastEvery, hub: NewHub()}
}

func (s *Server) Hub() *Hub { return s.hub }

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Printf("streaming %s on ws://%s/ws", s.Config.Scene, ln.Addr())
	return s.Serve(ctx, ln)
}

// Serve runs the simulation and the HTTP server on ln until ctx is done or
// the state stops being finite.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	world, err := s.Build(s.Config)
	if err != nil {
		ln.Close()
		return err
	}
	every := s.Every
	if every < 1 {
		every = 1
	}

	index := make(map[*xpbd.Particle]int, len(world.Particles))
	for i, p := range world.Particles {
		index[p] = i
	}
	if err := s.hub.SetWelcome(Welcome{
		Scene:     s.Config.Scene,
		Dt:        s.Config.Dt,
		Particles: len(world.Particles),
		Edges:     sim.Edges(world),
	}); err != nil {
		ln.Close()
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", s.hub)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	shutdown := func() {
		s.hub.Close()
		sctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}

	grabber := scene.NewGrabber(world)
	ticker := time.NewTicker(time.Duration(s.Config.Dt * float64(time.Second)))
	defer ticker.Stop()

	tick := 0
	for {
		select {
		case <-ctx.Done():
			shutdown()
			return nil
		case err := <-errc:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case env := <-s.hub.Inputs():
			if err := apply(grabber, env); err != nil {
				log.Println("input:", err)
			}
		case <-ticker.C:
			world.Step(s.Config.Dt)
			if !world.Finite() {
				shutdown()
				return sim.SimError{Step: tick, Time: float64(tick) * s.Config.Dt, Message: "non-finite particle state"}
			}
			tick++
			if tick%every != 0 {
				continue
			}
			if err := s.hub.Broadcast(MsgState, snapshot(world, index, grabber, tick, s.Config.Dt)); err != nil {
				log.Println("broadcast:", err)
			}
		}
	}
}

func apply(g *scene.Grabber, env Envelope) error {
	switch env.T {
	case MsgRelease:
		g.End()
		return nil
	case MsgGrab, MsgMove:
		p, err := DecodePayload[Pointer](env)
		if err != nil {
			return err
		}
		ray := geom.NewRay(mgl64.Vec3(p.Origin), mgl64.Vec3(p.Direction))
		if env.T == MsgGrab {
			g.Begin(ray)
		} else {
			g.Move(ray)
		}
		return nil
	}
	return fmt.Errorf("unknown message type %q", env.T)
}

func snapshot(world *xpbd.Simulation, index map[*xpbd.Particle]int, g *scene.Grabber, tick int, dt float64) State {
	st := State{
		Tick:      tick,
		Time:      float64(tick) * dt,
		Positions: make([][3]float64, len(world.Particles)),
		Contacts:  world.Stats().Contacts,
		Grabbed:   -1,
	}
	for i, p := range world.Particles {
		st.Positions[i] = p.Position
	}
	if held := g.Grabbed(); held != nil {
		if i, ok := index[held]; ok {
			st.Grabbed = i
		}
	}
	return st
}
