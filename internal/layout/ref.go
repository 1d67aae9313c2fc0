package layout

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	PrefixButton   = "button_"
	PrefixCategory = "category_"
	PrefixProduct  = "product_"

	TypeURL      = "url"
	TypeCallback = "callback"
)

// Kind tags which entity table a Ref points into.
type Kind int

const (
	KindButton Kind = iota + 1
	KindCategory
	KindProduct
)

// resolveOrder is the fixed priority in which string prefixes are tried.
var resolveOrder = []Kind{KindButton, KindCategory, KindProduct}

func (k Kind) Prefix() string {
	switch k {
	case KindButton:
		return PrefixButton
	case KindCategory:
		return PrefixCategory
	case KindProduct:
		return PrefixProduct
	}
	panic(fmt.Sprintf("layout: unknown kind %d", int(k)))
}

func (k Kind) String() string {
	return strings.TrimSuffix(k.Prefix(), "_")
}

// Ref is a resolved layout reference.
type Ref struct {
	Kind Kind
	ID   uint
}

// Key is the prefixed key under which the loader stores this reference.
func (r Ref) Key() Key {
	return StringKey(r.Kind.Prefix() + strconv.FormatUint(uint64(r.ID), 10))
}

func (r Ref) String() string {
	return r.Key().text
}

// Resolve maps a raw cell to a Ref. Integer cells are legacy button ids;
// string cells need one of the known prefixes followed by a positive integer.
// Bare numeric strings are not accepted.
func Resolve(c Cell) (Ref, bool) {
	if c.isNumber {
		if c.number <= 0 {
			return Ref{}, false
		}
		return Ref{Kind: KindButton, ID: uint(c.number)}, true
	}

	for _, kind := range resolveOrder {
		suffix, ok := strings.CutPrefix(c.text, kind.Prefix())
		if !ok {
			continue
		}
		id, ok := parsePositive(suffix)
		if !ok {
			continue
		}
		return Ref{Kind: kind, ID: id}, true
	}
	return Ref{}, false
}

func parsePositive(s string) (uint, bool) {
	if s == "" || s[0] == '+' {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 0)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
