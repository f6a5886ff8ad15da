// Package gameerr is the error taxonomy shared by the simulation core and the
// layers around it. Every rejected action carries a Code and a human-readable
// Reason so the transport can surface {reason, code} to the offending client.
package gameerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error by who is at fault and what the caller should do.
type Kind uint8

const (
	KindValidation Kind = iota // Malformed input, rejected before touching state
	KindRule                   // Precondition failed, state unchanged
	KindIntegrity              // State invariant broken, fatal to the game instance
	KindSession                // Session or storage failure outside the core
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindRule:
		return "rule"
	case KindIntegrity:
		return "integrity"
	case KindSession:
		return "session"
	default:
		return "unknown"
	}
}

// Code is a stable numeric error code, grouped by thousands.
type Code int

const (
	// Validation (1000-1999)
	CodeInvalidCoordinate Code = 1000
	CodeOutOfBounds       Code = 1001
	CodeUnknownAction     Code = 1002
	CodeMalformedAction   Code = 1003
	CodeUnknownPlayer     Code = 1004
	CodeUnknownItem       Code = 1005

	// Rule violations (2000-2999)
	CodeOccupied               Code = 2000
	CodeInsufficientMovement   Code = 2001
	CodeNotOwner               Code = 2002
	CodeNoTarget               Code = 2003
	CodeFriendlyFire           Code = 2004
	CodeAlreadyActed           Code = 2005
	CodeWater                  Code = 2006
	CodeTooCloseToCity         Code = 2007
	CodeNotSettler             Code = 2008
	CodeAlreadyBuilt           Code = 2009
	CodeAlreadyResearched      Code = 2010
	CodeMissingPrerequisite    Code = 2011
	CodeInsufficientScience    Code = 2012
	CodeNotYourTurn            Code = 2013
	CodeNoUnit                 Code = 2014
	CodeNoCity                 Code = 2015
	CodeImpassable             Code = 2016
	CodeOutOfRange             Code = 2017
	CodeNoPromotionAvailable   Code = 2018
	CodeAlreadyPromoted        Code = 2019
	CodeNotWorker              Code = 2020
	CodeOutsideTerritory       Code = 2021
	CodeInvalidImprovement     Code = 2022
	CodeSpecialistLimit        Code = 2023
	CodeNoSpecialist           Code = 2024
	CodeGameOver               Code = 2025
	CodeWrongPhase             Code = 2026
	CodePlayerEliminated       Code = 2027
	CodeNotCombatant           Code = 2028

	// Integrity (3000-3999)
	CodeOrphanedOccupant  Code = 3000
	CodeDuplicateOwner    Code = 3001
	CodeDuplicateOccupant Code = 3002
	CodeNegativeResource  Code = 3003
	CodeDanglingReference Code = 3004
	CodeCorruptSnapshot   Code = 3005

	// Session and storage (4000-4999)
	CodeGameNotFound   Code = 4000
	CodeGameClosed     Code = 4001
	CodeStorage        Code = 4002
	CodeRateLimited    Code = 4003
	CodeTooManyGames   Code = 4004
	CodeInvalidRequest Code = 4005
)

var reasons = map[Code]string{
	CodeInvalidCoordinate: "invalid coordinate",
	CodeOutOfBounds:       "coordinate out of bounds",
	CodeUnknownAction:     "unknown action kind",
	CodeMalformedAction:   "malformed action payload",
	CodeUnknownPlayer:     "unknown player",
	CodeUnknownItem:       "unknown production item",

	CodeOccupied:             "tile is occupied",
	CodeInsufficientMovement: "insufficient movement",
	CodeNotOwner:             "not owner",
	CodeNoTarget:             "no target",
	CodeFriendlyFire:         "friendly fire",
	CodeAlreadyActed:         "unit already acted",
	CodeWater:                "cannot found a city on water",
	CodeTooCloseToCity:       "too close to existing city",
	CodeNotSettler:           "not a settler",
	CodeAlreadyBuilt:         "already built",
	CodeAlreadyResearched:    "already researched",
	CodeMissingPrerequisite:  "missing prerequisite",
	CodeInsufficientScience:  "insufficient science",
	CodeNotYourTurn:          "not your turn",
	CodeNoUnit:               "no unit at position",
	CodeNoCity:               "no such city",
	CodeImpassable:           "destination is impassable",
	CodeOutOfRange:           "target out of range",
	CodeNoPromotionAvailable: "no promotion available",
	CodeAlreadyPromoted:      "promotion already taken",
	CodeNotWorker:            "not a worker",
	CodeOutsideTerritory:     "tile is outside your territory",
	CodeInvalidImprovement:   "improvement not allowed on this tile",
	CodeSpecialistLimit:      "no free citizen for a specialist",
	CodeNoSpecialist:         "no specialist of that kind",
	CodeGameOver:             "game is over",
	CodeWrongPhase:           "action not allowed in this phase",
	CodePlayerEliminated:     "player has been eliminated",
	CodeNotCombatant:         "unit cannot attack",

	CodeOrphanedOccupant:  "occupant does not resolve to a live owner",
	CodeDuplicateOwner:    "entity belongs to two players",
	CodeDuplicateOccupant: "two occupants share a tile",
	CodeNegativeResource:  "negative resource value",
	CodeDanglingReference: "dangling entity reference",
	CodeCorruptSnapshot:   "corrupt snapshot",

	CodeGameNotFound:   "game not found",
	CodeGameClosed:     "game is closed",
	CodeStorage:        "storage failure",
	CodeRateLimited:    "rate limit exceeded",
	CodeTooManyGames:   "too many active games",
	CodeInvalidRequest: "invalid request",
}

// Reason returns the canonical reason text for a code.
func (c Code) Reason() string {
	if r, ok := reasons[c]; ok {
		return r
	}
	return "unknown error"
}

// Kind returns the kind implied by the code's group.
func (c Code) Kind() Kind {
	switch {
	case c >= 1000 && c < 2000:
		return KindValidation
	case c >= 2000 && c < 3000:
		return KindRule
	case c >= 3000 && c < 4000:
		return KindIntegrity
	default:
		return KindSession
	}
}

// Error is the concrete error returned across package boundaries.
type Error struct {
	Kind   Kind
	Code   Code
	Reason string
	Detail string
	Cause  error
}

// Descriptor is the outbound form of a rejection.
type Descriptor struct {
	Reason string `json:"reason"`
	Code   Code   `json:"code"`
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%d] %s", e.Code, e.Reason)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error by code, so errors.Is(err, gameerr.New(CodeWater))
// works regardless of detail text.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Descriptor returns the {reason, code} pair sent to clients.
func (e *Error) Descriptor() Descriptor {
	return Descriptor{Reason: e.Reason, Code: e.Code}
}

// New creates an error with the canonical reason for code.
func New(code Code) *Error {
	return &Error{Kind: code.Kind(), Code: code, Reason: code.Reason()}
}

// Newf creates an error with the canonical reason plus a formatted detail.
func Newf(code Code, format string, args ...any) *Error {
	e := New(code)
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Wrap attaches cause to a new error for code.
func Wrap(code Code, cause error) *Error {
	e := New(code)
	e.Cause = cause
	return e
}

// Validation, Rule and Integrity are shorthands that assert the kind matches.
func Validation(code Code, format string, args ...any) *Error {
	e := Newf(code, format, args...)
	e.Kind = KindValidation
	return e
}

func Rule(code Code, format string, args ...any) *Error {
	e := Newf(code, format, args...)
	e.Kind = KindRule
	return e
}

func Integrity(code Code, format string, args ...any) *Error {
	e := Newf(code, format, args...)
	e.Kind = KindIntegrity
	return e
}

// CodeOf extracts the code from err, or 0 when err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

// KindOf extracts the kind from err. Non-*Error values report KindSession.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindSession
}

// As returns err as *Error, wrapping unknown errors under fallback.
func As(err error, fallback Code) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(fallback, err)
}
