package models

import (
	"fmt"
	"strings"
)

// ItemKind discriminates the two kinds of recommendable items.
type ItemKind int

const (
	KindRestaurant ItemKind = iota + 1
	KindFood
)

// ItemKinds lists every kind, in the order results are presented.
var ItemKinds = []ItemKind{KindRestaurant, KindFood}

func (k ItemKind) String() string {
	switch k {
	case KindRestaurant:
		return "Restaurant"
	case KindFood:
		return "Food"
	default:
		return fmt.Sprintf("ItemKind(%d)", int(k))
	}
}

// Valid reports whether k is one of the known kinds.
func (k ItemKind) Valid() bool {
	return k == KindRestaurant || k == KindFood
}

// ParseItemKind accepts "Restaurant" or "Food" (case-insensitive).
func ParseItemKind(s string) (ItemKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "restaurant":
		return KindRestaurant, nil
	case "food":
		return KindFood, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidItemKind, s)
	}
}

func (k ItemKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidItemKind, int(k))
	}
	return []byte(k.String()), nil
}

func (k *ItemKind) UnmarshalText(text []byte) error {
	parsed, err := ParseItemKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ItemRef points at a restaurant or a food.
type ItemRef struct {
	Kind ItemKind `json:"itemType"`
	ID   string   `json:"itemId"`
}

func RestaurantRef(id string) ItemRef { return ItemRef{Kind: KindRestaurant, ID: id} }
func FoodRef(id string) ItemRef       { return ItemRef{Kind: KindFood, ID: id} }

func (r ItemRef) String() string {
	return r.Kind.String() + ":" + r.ID
}

// InteractionKind is the type of a user interaction event.
type InteractionKind string

const (
	InteractionView     InteractionKind = "VIEW"
	InteractionClick    InteractionKind = "CLICK"
	InteractionOrder    InteractionKind = "ORDER"
	InteractionFavorite InteractionKind = "FAVORITE"
)

// ParseInteractionKind accepts the upper-case event names.
func ParseInteractionKind(s string) (InteractionKind, error) {
	switch k := InteractionKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case InteractionView, InteractionClick, InteractionOrder, InteractionFavorite:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidInteractionKind, s)
	}
}
