package engine

import (
	"encoding/json"

	"github.com/talgya/hexempire/internal/gameerr"
	"github.com/talgya/hexempire/internal/world"
)

// ActionKind tags an Action on the wire.
type ActionKind string

const (
	KindMoveUnit           ActionKind = "move_unit"
	KindAttack             ActionKind = "attack"
	KindFoundCity          ActionKind = "found_city"
	KindChangeProduction   ActionKind = "change_production"
	KindBuildImprovement   ActionKind = "build_improvement"
	KindQueueProduction    ActionKind = "queue_production"
	KindResearchTechnology ActionKind = "research_technology"
	KindEndTurn            ActionKind = "end_turn"
	KindPromoteUnit        ActionKind = "promote_unit"
	KindSetOrder           ActionKind = "set_order"
	KindAssignSpecialist   ActionKind = "assign_specialist"
	KindRemoveSpecialist   ActionKind = "remove_specialist"
	KindWorkerImprove      ActionKind = "worker_improve"
)

// Action is one player command. The set is closed: every implementation
// lives in this package and Process switches over all of them.
type Action interface {
	Kind() ActionKind
	action()
}

// MoveUnit moves the unit on From to To along the cheapest path.
type MoveUnit struct {
	From world.HexCoord `json:"from"`
	To   world.HexCoord `json:"to"`
}

// Attack strikes the unit or city on Target with the unit on From.
type Attack struct {
	From   world.HexCoord `json:"from"`
	Target world.HexCoord `json:"target"`
}

// FoundCity consumes the settler on Position. An empty Name picks a
// generated one.
type FoundCity struct {
	Position world.HexCoord `json:"position"`
	Name     string         `json:"name"`
}

// ChangeProduction replaces a city's current item, discarding progress.
// Item is "building:<name>", "unit:<name>" or a bare name.
type ChangeProduction struct {
	CityID uint64 `json:"city_id"`
	Item   string `json:"item"`
}

// BuildImprovement enqueues a city building.
type BuildImprovement struct {
	CityID   uint64 `json:"city_id"`
	Building string `json:"building"`
}

// QueueProduction appends any item to a city's queue.
type QueueProduction struct {
	CityID uint64 `json:"city_id"`
	Item   string `json:"item"`
}

type ResearchTechnology struct {
	Tech string `json:"tech"`
}

type EndTurn struct{}

type PromoteUnit struct {
	At        world.HexCoord `json:"at"`
	Promotion string         `json:"promotion"`
}

// SetOrder gives the unit on At a standing order: fortify, sleep or none.
type SetOrder struct {
	At    world.HexCoord `json:"at"`
	Order string         `json:"order"`
}

type AssignSpecialist struct {
	CityID     uint64 `json:"city_id"`
	Specialist string `json:"specialist"`
}

type RemoveSpecialist struct {
	CityID     uint64 `json:"city_id"`
	Specialist string `json:"specialist"`
}

// WorkerImprove builds a tile improvement with the worker on At.
type WorkerImprove struct {
	At          world.HexCoord `json:"at"`
	Improvement string         `json:"improvement"`
}

func (MoveUnit) Kind() ActionKind           { return KindMoveUnit }
func (Attack) Kind() ActionKind             { return KindAttack }
func (FoundCity) Kind() ActionKind          { return KindFoundCity }
func (ChangeProduction) Kind() ActionKind   { return KindChangeProduction }
func (BuildImprovement) Kind() ActionKind   { return KindBuildImprovement }
func (QueueProduction) Kind() ActionKind    { return KindQueueProduction }
func (ResearchTechnology) Kind() ActionKind { return KindResearchTechnology }
func (EndTurn) Kind() ActionKind            { return KindEndTurn }
func (PromoteUnit) Kind() ActionKind        { return KindPromoteUnit }
func (SetOrder) Kind() ActionKind           { return KindSetOrder }
func (AssignSpecialist) Kind() ActionKind   { return KindAssignSpecialist }
func (RemoveSpecialist) Kind() ActionKind   { return KindRemoveSpecialist }
func (WorkerImprove) Kind() ActionKind      { return KindWorkerImprove }

func (MoveUnit) action()           {}
func (Attack) action()             {}
func (FoundCity) action()          {}
func (ChangeProduction) action()   {}
func (BuildImprovement) action()   {}
func (QueueProduction) action()    {}
func (ResearchTechnology) action() {}
func (EndTurn) action()            {}
func (PromoteUnit) action()        {}
func (SetOrder) action()           {}
func (AssignSpecialist) action()   {}
func (RemoveSpecialist) action()   {}
func (WorkerImprove) action()      {}

// Envelope is the wire form of an action.
type Envelope struct {
	Kind    ActionKind      `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// EncodeAction wraps a in an envelope.
func EncodeAction(a Action) ([]byte, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return nil, gameerr.Wrap(gameerr.CodeMalformedAction, err)
	}
	return json.Marshal(Envelope{Kind: a.Kind(), Payload: payload})
}

// DecodeAction parses an envelope. Unknown kinds and bad payloads are
// validation errors.
func DecodeAction(data []byte) (Action, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, gameerr.Wrap(gameerr.CodeMalformedAction, err)
	}
	return env.Action()
}

// Action decodes the payload according to Kind.
func (env Envelope) Action() (Action, error) {
	var (
		a   Action
		err error
	)
	switch env.Kind {
	case KindMoveUnit:
		a, err = decodePayload[MoveUnit](env.Payload)
	case KindAttack:
		a, err = decodePayload[Attack](env.Payload)
	case KindFoundCity:
		a, err = decodePayload[FoundCity](env.Payload)
	case KindChangeProduction:
		a, err = decodePayload[ChangeProduction](env.Payload)
	case KindBuildImprovement:
		a, err = decodePayload[BuildImprovement](env.Payload)
	case KindQueueProduction:
		a, err = decodePayload[QueueProduction](env.Payload)
	case KindResearchTechnology:
		a, err = decodePayload[ResearchTechnology](env.Payload)
	case KindEndTurn:
		a, err = decodePayload[EndTurn](env.Payload)
	case KindPromoteUnit:
		a, err = decodePayload[PromoteUnit](env.Payload)
	case KindSetOrder:
		a, err = decodePayload[SetOrder](env.Payload)
	case KindAssignSpecialist:
		a, err = decodePayload[AssignSpecialist](env.Payload)
	case KindRemoveSpecialist:
		a, err = decodePayload[RemoveSpecialist](env.Payload)
	case KindWorkerImprove:
		a, err = decodePayload[WorkerImprove](env.Payload)
	default:
		return nil, gameerr.Validation(gameerr.CodeUnknownAction, "%q", env.Kind)
	}
	if err != nil {
		return nil, gameerr.Wrap(gameerr.CodeMalformedAction, err)
	}
	return a, nil
}

func decodePayload[T Action](raw json.RawMessage) (Action, error) {
	var v T
	if len(raw) == 0 || string(raw) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
