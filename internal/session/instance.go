package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/talgya/hexempire/internal/engine"
	"github.com/talgya/hexempire/internal/game"
	"github.com/talgya/hexempire/internal/gameerr"
)

// subscriberBuffer is how many updates a slow subscriber may fall behind
// before updates to it are dropped.
const subscriberBuffer = 32

type request struct {
	playerID string
	action   engine.Action
	reply    chan engine.Result
}

type subscriber struct {
	playerID string
	ch       chan Update
}

// instance is one running game. Only run's goroutine writes current; every
// published state is immutable, so readers load it without the mailbox.
type instance struct {
	m       *Manager
	id      string
	current atomic.Pointer[game.GameState]

	mailbox  chan request
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	subMu   sync.Mutex
	subs    map[uint64]*subscriber
	nextSub uint64
	closed  bool
}

func newInstance(m *Manager, s *game.GameState) *instance {
	inst := &instance{
		m:       m,
		id:      s.ID,
		mailbox: make(chan request, m.mailbox),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		subs:    make(map[uint64]*subscriber),
	}
	inst.current.Store(s)
	return inst
}

func (inst *instance) snapshot() *game.GameState {
	return inst.current.Load().Clone()
}

// run is the game's serialization point: one request or timer expiry at a
// time, until stop.
func (inst *instance) run() {
	defer close(inst.done)
	defer inst.closeSubscribers()

	var (
		timer   *time.Timer
		timeout <-chan time.Time
	)
	arm := func() {
		s := inst.current.Load()
		d := s.Settings.TurnTimeout
		if d <= 0 || s.GameOver() {
			timeout = nil
			return
		}
		if timer == nil {
			timer = time.NewTimer(d)
		} else {
			timer.Reset(d)
		}
		timeout = timer.C
	}
	arm()
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case req := <-inst.mailbox:
			res := inst.apply(req.playerID, req.action)
			if res.Success {
				out := res
				out.State = res.State.Clone()
				req.reply <- out
			} else {
				req.reply <- res
			}
			if inst.restartsClock(req.action, res) {
				arm()
			}
		case <-timeout:
			inst.expire()
			arm()
		case <-inst.quit:
			inst.save("final save")
			inst.m.log.Info("game stopped",
				zap.String("game_id", inst.id),
				zap.Int("turn", inst.current.Load().Turn),
			)
			return
		}
	}
}

// restartsClock reports whether an accepted action starts a new turn clock:
// every turn advance, and every hand-over in sequential play.
func (inst *instance) restartsClock(a engine.Action, res engine.Result) bool {
	if !res.Success {
		return false
	}
	if res.TurnAdvanced {
		return true
	}
	_, ended := a.(engine.EndTurn)
	return ended && !res.State.Settings.Simultaneous
}

// expire ends the turn for every player still owing an EndTurn.
func (inst *instance) expire() {
	s := inst.current.Load()
	waiting := engine.AwaitingPlayers(s)
	inst.m.log.Info("turn timed out",
		zap.String("game_id", inst.id),
		zap.Int("turn", s.Turn),
		zap.Strings("players", waiting),
	)
	for _, id := range waiting {
		if res := inst.apply(id, engine.EndTurn{}); !res.Success {
			inst.m.log.Warn("forced end turn rejected",
				zap.String("game_id", inst.id),
				zap.String("player", id),
				zap.Error(res.Err),
			)
		}
	}
}

// apply runs one action through the engine and publishes the outcome.
func (inst *instance) apply(playerID string, a engine.Action) engine.Result {
	res := inst.m.eng.Process(inst.current.Load(), playerID, a)
	if !res.Success {
		d := res.Err.Descriptor()
		inst.publish(Update{
			GameID:    inst.id,
			Turn:      inst.current.Load().Turn,
			PlayerID:  playerID,
			Rejection: &d,
		})
		return res
	}

	next := res.State
	inst.current.Store(next)

	if store := inst.m.store; store != nil && len(res.Events) > 0 {
		if err := store.AppendEvents(inst.id, res.Events); err != nil {
			inst.m.log.Error("append events failed", zap.String("game_id", inst.id), zap.Error(err))
		}
	}
	if res.TurnAdvanced {
		inst.save("autosave")
	}

	digest, err := engine.Digest(next)
	if err != nil {
		inst.m.log.Error("digest failed", zap.String("game_id", inst.id), zap.Error(err))
	}
	inst.publish(Update{
		GameID:       inst.id,
		Turn:         next.Turn,
		Phase:        next.Phase.String(),
		Digest:       digest,
		PlayerID:     playerID,
		Action:       a.Kind(),
		State:        next,
		Events:       res.Events,
		Combat:       res.Combat,
		TurnAdvanced: res.TurnAdvanced,
	})

	if res.TurnAdvanced && next.GameOver() {
		inst.m.log.Info("game finished",
			zap.String("game_id", inst.id),
			zap.String("winner", next.Winner),
			zap.String("victory", string(next.VictoryType)),
			zap.Int("turn", next.Turn),
		)
	}
	return res
}

func (inst *instance) save(reason string) {
	store := inst.m.store
	if store == nil {
		return
	}
	s := inst.current.Load()
	if err := store.SaveGame(s); err != nil {
		inst.m.log.Error(reason+" failed", zap.String("game_id", inst.id), zap.Error(err))
		return
	}
	inst.m.log.Debug(reason, zap.String("game_id", inst.id), zap.Int("turn", s.Turn))
}

func (inst *instance) submit(ctx context.Context, playerID string, a engine.Action) (engine.Result, error) {
	req := request{playerID: playerID, action: a, reply: make(chan engine.Result, 1)}
	select {
	case inst.mailbox <- req:
	case <-inst.quit:
		return engine.Result{}, gameerr.Newf(gameerr.CodeGameClosed, "%s", inst.id)
	case <-ctx.Done():
		return engine.Result{}, ctx.Err()
	}
	select {
	case res := <-req.reply:
		return res, nil
	case <-inst.done:
		return engine.Result{}, gameerr.Newf(gameerr.CodeGameClosed, "%s", inst.id)
	case <-ctx.Done():
		return engine.Result{}, ctx.Err()
	}
}

func (inst *instance) subscribe(playerID string) (<-chan Update, func(), bool) {
	inst.subMu.Lock()
	defer inst.subMu.Unlock()
	if inst.closed {
		return nil, nil, false
	}
	id := inst.nextSub
	inst.nextSub++
	sub := &subscriber{playerID: playerID, ch: make(chan Update, subscriberBuffer)}
	inst.subs[id] = sub

	cancel := func() {
		inst.subMu.Lock()
		defer inst.subMu.Unlock()
		if s, ok := inst.subs[id]; ok {
			delete(inst.subs, id)
			close(s.ch)
		}
	}
	return sub.ch, cancel, true
}

func (inst *instance) publish(u Update) {
	inst.subMu.Lock()
	defer inst.subMu.Unlock()
	for _, sub := range inst.subs {
		if u.Rejection != nil && sub.playerID != u.PlayerID {
			continue
		}
		select {
		case sub.ch <- u:
		default:
			inst.m.log.Warn("subscriber lagging, update dropped",
				zap.String("game_id", inst.id),
				zap.String("player", sub.playerID),
				zap.Int("turn", u.Turn),
			)
		}
	}
}

func (inst *instance) closeSubscribers() {
	inst.subMu.Lock()
	defer inst.subMu.Unlock()
	inst.closed = true
	for id, sub := range inst.subs {
		close(sub.ch)
		delete(inst.subs, id)
	}
}

func (inst *instance) stop() {
	inst.stopOnce.Do(func() { close(inst.quit) })
	<-inst.done
}
