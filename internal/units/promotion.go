package units

import (
	"errors"
	"fmt"
)

// XPPerPromotion is the experience needed for each promotion slot.
const XPPerPromotion = 15

// Promotion is a permanent additive stat modifier.
type Promotion uint8

const (
	PromotionStrength Promotion = iota // +2 attack
	PromotionDrill                     // +2 defense
	PromotionShock                     // +3 attack
	PromotionCover                     // +3 defense
	PromotionMobility                  // +1 movement
	PromotionSentry                    // +1 sight
	PromotionMedic                     // +10 healing
)

var promotionTable = map[Promotion]struct {
	Name string
	Mod  Stats
}{
	PromotionStrength: {Name: "strength", Mod: Stats{Attack: 2}},
	PromotionDrill:    {Name: "drill", Mod: Stats{Defense: 2}},
	PromotionShock:    {Name: "shock", Mod: Stats{Attack: 3}},
	PromotionCover:    {Name: "cover", Mod: Stats{Defense: 3}},
	PromotionMobility: {Name: "mobility", Mod: Stats{Movement: 1}},
	PromotionSentry:   {Name: "sentry", Mod: Stats{Sight: 1}},
	PromotionMedic:    {Name: "medic", Mod: Stats{Heal: 10}},
}

var (
	ErrNoPromotionAvailable = errors.New("no promotion available")
	ErrAlreadyPromoted      = errors.New("promotion already taken")
	ErrUnknownPromotion     = errors.New("unknown promotion")
	ErrCivilian             = errors.New("civilian units cannot be promoted")
)

func (p Promotion) String() string {
	if info, ok := promotionTable[p]; ok {
		return info.Name
	}
	return "unknown"
}

// Modifier returns the additive stats of p.
func (p Promotion) Modifier() Stats { return promotionTable[p].Mod }

// ParsePromotion maps a name to a Promotion.
func ParsePromotion(name string) (Promotion, bool) {
	for p, info := range promotionTable {
		if info.Name == name {
			return p, true
		}
	}
	return 0, false
}

func (p Promotion) MarshalText() ([]byte, error) {
	if _, ok := promotionTable[p]; !ok {
		return nil, fmt.Errorf("unknown promotion %d", uint8(p))
	}
	return []byte(p.String()), nil
}

func (p *Promotion) UnmarshalText(text []byte) error {
	v, ok := ParsePromotion(string(text))
	if !ok {
		return fmt.Errorf("unknown promotion %q", text)
	}
	*p = v
	return nil
}

func (s Stats) add(o Stats) Stats {
	return Stats{
		Attack:    s.Attack + o.Attack,
		Defense:   s.Defense + o.Defense,
		Range:     s.Range + o.Range,
		Movement:  s.Movement + o.Movement,
		MaxHealth: s.MaxHealth + o.MaxHealth,
		Sight:     s.Sight + o.Sight,
		Heal:      s.Heal + o.Heal,
	}
}

// CombatStats returns the base stats of the unit's kind with every
// promotion's modifier applied in acquisition order. Civilians stay at zero
// attack and defense.
func (u *Unit) CombatStats() Stats {
	s := u.Kind.BaseStats()
	for _, p := range u.Promotions {
		s = s.add(p.Modifier())
	}
	if u.Kind.Civilian() {
		s.Attack, s.Defense = 0, 0
	}
	return s
}

// AvailablePromotions is the number of earned but ungranted promotions.
func (u *Unit) AvailablePromotions() int {
	n := u.Experience/XPPerPromotion - len(u.Promotions)
	if n < 0 {
		return 0
	}
	return n
}

// Promote grants p. Promotions are never automatic.
func (u *Unit) Promote(p Promotion) error {
	if _, ok := promotionTable[p]; !ok {
		return ErrUnknownPromotion
	}
	if u.Kind.Civilian() {
		return ErrCivilian
	}
	if u.AvailablePromotions() == 0 {
		return ErrNoPromotionAvailable
	}
	for _, have := range u.Promotions {
		if have == p {
			return ErrAlreadyPromoted
		}
	}
	u.Promotions = append(u.Promotions, p)

	s := u.CombatStats()
	u.MaxMovementPoints = s.Movement
	if p == PromotionMobility {
		u.MovementPoints++
	}
	return nil
}
