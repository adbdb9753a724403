package bingo

import (
	"context"
	"fmt"
	"sync"

	"github.com/discovered-games/careerbingo/internal/bingo/grid"
	"github.com/discovered-games/careerbingo/internal/bingo/match"
	"github.com/discovered-games/careerbingo/internal/catalog"
	"github.com/discovered-games/careerbingo/internal/clock"
	"github.com/discovered-games/careerbingo/internal/content"
	"github.com/discovered-games/careerbingo/internal/logging"
	"github.com/google/uuid"
	"github.com/valyala/fastrand"
)

var (
	ErrRoomNotFound   = fmt.Errorf("room not found")
	ErrSessionFull    = match.ErrSessionFull
	ErrUnknownCenter  = fmt.Errorf("center entity not in catalog")
	ErrNoParticipants = match.ErrNoParticipants
)

// Identity describes a joining participant before a grid is assigned.
type Identity struct {
	Name string
	Kind match.ParticipantKind
	// Career at the grid center; drawn at random when empty
	CenterCode string
	// Only meaningful for simulated participants
	Profile match.Profile
}

func NewRegistry(
	config *Config,
	cat *catalog.Catalog,
	provider content.Provider,
	broadcaster match.Broadcaster,
	recorder match.Recorder,
	clk clock.Clock,
) *Registry {
	return &Registry{
		config:      config,
		catalog:     cat,
		provider:    provider,
		broadcaster: broadcaster,
		recorder:    recorder,
		clk:         clk,
		rooms:       map[string]*match.Session{},
		ctxSess:     context.Background(),
	}
}

// Registry owns the room to active-session map. Each room always has
// exactly one non-retired session; retiring a completed session creates a
// fresh pending successor with its own roster and slot pool.
type Registry struct {
	mtx sync.RWMutex

	config      *Config
	catalog     *catalog.Catalog
	provider    content.Provider
	broadcaster match.Broadcaster
	recorder    match.Recorder
	clk         clock.Clock

	// key: room name
	rooms   map[string]*match.Session
	ctxSess context.Context
}

// Run pins the context all sessions inherit and blocks until it ends, then
// cancels every running session.
func (g *Registry) Run(ctx context.Context) error {
	logger := logging.FromContext(ctx).Named("registry")

	g.mtx.Lock()
	g.ctxSess = ctx
	g.mtx.Unlock()

	<-ctx.Done()

	g.mtx.RLock()
	sessions := make([]*match.Session, 0, len(g.rooms))
	for _, session := range g.rooms {
		sessions = append(sessions, session)
	}
	g.mtx.RUnlock()

	for _, session := range sessions {
		session.Cancel()
	}

	logger.Infof("registry stopped, %d sessions cancelled", len(sessions))
	return nil
}

// Session returns the room's current session, creating a pending one for a
// new room.
func (g *Registry) Session(room string) *match.Session {
	g.mtx.RLock()
	session, ok := g.rooms[room]
	g.mtx.RUnlock()
	if ok {
		return session
	}

	g.mtx.Lock()
	defer g.mtx.Unlock()
	if session, ok := g.rooms[room]; ok {
		return session
	}

	session = g.newSession(room)
	g.rooms[room] = session
	return session
}

// Lookup never creates.
func (g *Registry) Lookup(room string) (*match.Session, bool) {
	g.mtx.RLock()
	defer g.mtx.RUnlock()
	session, ok := g.rooms[room]
	return session, ok
}

// Join assigns a fresh grid and adds the participant to the room's current
// session. Admission itself (capacity, join cutoff, duplicates) is decided
// by the session under its own lock, so concurrent joins cannot overfill
// the roster.
func (g *Registry) Join(room string, identity Identity) (*match.Participant, error) {
	session := g.Session(room)

	center, err := g.centerEntity(identity.CenterCode)
	if err != nil {
		return nil, err
	}

	board, err := grid.Generate(g.catalog.Entities(), center)
	if err != nil {
		return nil, fmt.Errorf("generate grid: %w", err)
	}

	p := match.NewParticipant(uuid.New().String(), identity.Name, identity.Kind, board, identity.Profile)
	if err := session.AddParticipant(p); err != nil {
		return nil, err
	}

	return p, nil
}

// StartSession activates the room's pending session.
func (g *Registry) StartSession(room string) (*match.Session, error) {
	g.mtx.RLock()
	session, ok := g.rooms[room]
	ctx := g.ctxSess
	g.mtx.RUnlock()

	if !ok {
		return nil, ErrRoomNotFound
	}

	if err := session.Start(ctx); err != nil {
		return nil, err
	}

	return session, nil
}

// Retire swaps a completed session out of the active set and seeds the
// room's successor. Wired as every session's DoneFn.
func (g *Registry) Retire(session *match.Session) error {
	if session.State() != match.StateCompleted {
		return fmt.Errorf("session %s not completed", session.ID)
	}

	g.mtx.Lock()
	defer g.mtx.Unlock()

	if current, ok := g.rooms[session.Room]; !ok || current != session {
		return nil
	}

	g.rooms[session.Room] = g.newSession(session.Room)
	return nil
}

// Cancel abandons the room's current session.
func (g *Registry) Cancel(room string) error {
	g.mtx.RLock()
	session, ok := g.rooms[room]
	g.mtx.RUnlock()

	if !ok {
		return ErrRoomNotFound
	}

	session.Cancel()
	return nil
}

func (g *Registry) newSession(room string) *match.Session {
	return match.NewSession(match.Config{
		SessionID:        uuid.New().String(),
		Room:             room,
		RoundsNum:        g.config.RoundsNum,
		RoundTime:        g.config.RoundTime,
		InterRoundPause:  g.config.InterRoundPause,
		BasePoints:       g.config.BasePoints,
		SpeedBonusMax:    g.config.SpeedBonusMax,
		MaxParticipants:  g.config.MaxParticipants,
		JoinCutoffRounds: g.config.JoinCutoffRounds,
		Provider:         g.provider,
		Broadcaster:      g.broadcaster,
		Recorder:         g.recorder,
		Clock:            g.clk,
		DoneFn:           g.Retire,
	})
}

func (g *Registry) centerEntity(code string) (catalog.Entity, error) {
	if code != "" {
		entity, ok := g.catalog.ByCode(code)
		if !ok {
			return catalog.Entity{}, ErrUnknownCenter
		}
		return entity, nil
	}

	return g.catalog.At(int(fastrand.Uint32n(uint32(g.catalog.Len())))), nil
}
