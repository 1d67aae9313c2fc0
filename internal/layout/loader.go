package layout

import (
	"context"
	"fmt"
	"strconv"
)

// Button is a tenant button as the loader needs it.
type Button struct {
	ID    uint
	Label string
	Type  string
	Value string
}

// Entity is a category or product: anything rendered as a callback button
// labelled with its name.
type Entity struct {
	ID            uint
	Name          string
	BotIdentifier string
}

// FormattedButton is the renderable form of any reference.
type FormattedButton struct {
	ID         uint   `json:"id"`
	Label      string `json:"label"`
	ButtonType string `json:"button_type"`
	Value      string `json:"value"`
}

type ReferenceMap map[Key]FormattedButton

// Source reads tenant-scoped catalog rows. Implementations must filter by
// the bot identifier they are given.
type Source interface {
	Buttons(ctx context.Context, bot string) ([]Button, error)
	Categories(ctx context.Context, bot string) ([]Entity, error)
	Products(ctx context.Context, bot string) ([]Entity, error)
}

type Loader struct {
	source Source
}

func NewLoader(source Source) *Loader {
	return &Loader{source: source}
}

// Load indexes every button, category and product of the tenant.
func (l *Loader) Load(ctx context.Context, bot string) (ReferenceMap, error) {
	buttons, err := l.source.Buttons(ctx, bot)
	if err != nil {
		return nil, fmt.Errorf("load buttons: %w", err)
	}
	categories, err := l.source.Categories(ctx, bot)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	products, err := l.source.Products(ctx, bot)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	refs := Index(buttons, categories, products)
	addLegacyKeys(refs, buttons)
	return refs, nil
}

// LoadForCategory indexes the tenant's buttons plus only the given category's
// own children and products. Entities that belong to another tenant are
// skipped. No bare keys are added.
func (l *Loader) LoadForCategory(ctx context.Context, bot string, children, products []Entity) (ReferenceMap, error) {
	buttons, err := l.source.Buttons(ctx, bot)
	if err != nil {
		return nil, fmt.Errorf("load buttons: %w", err)
	}
	return Index(buttons, sameTenant(bot, children), sameTenant(bot, products)), nil
}

// Render loads the tenant catalog and formats the layout with it. An empty
// layout skips the load.
func (l *Loader) Render(ctx context.Context, bot string, rows Layout) (FormattedLayout, error) {
	if len(rows) == 0 {
		return FormattedLayout{}, nil
	}
	refs, err := l.Load(ctx, bot)
	if err != nil {
		return nil, err
	}
	return Format(rows, refs), nil
}

// Index builds the prefixed part of a ReferenceMap.
func Index(buttons []Button, categories, products []Entity) ReferenceMap {
	refs := make(ReferenceMap, len(buttons)+len(categories)+len(products))
	for _, b := range buttons {
		ref := Ref{Kind: KindButton, ID: b.ID}
		refs[ref.Key()] = FormattedButton{ID: b.ID, Label: b.Label, ButtonType: b.Type, Value: b.Value}
	}
	for _, c := range categories {
		ref := Ref{Kind: KindCategory, ID: c.ID}
		refs[ref.Key()] = entityButton(ref, c.Name)
	}
	for _, p := range products {
		ref := Ref{Kind: KindProduct, ID: p.ID}
		refs[ref.Key()] = entityButton(ref, p.Name)
	}
	return refs
}

// addLegacyKeys aliases each button under its bare integer and bare string id
// for layouts written before prefixes existed. Existing keys win.
func addLegacyKeys(refs ReferenceMap, buttons []Button) {
	for _, b := range buttons {
		formatted := refs[Ref{Kind: KindButton, ID: b.ID}.Key()]
		for _, key := range []Key{IntKey(int64(b.ID)), StringKey(strconv.FormatUint(uint64(b.ID), 10))} {
			if _, taken := refs[key]; !taken {
				refs[key] = formatted
			}
		}
	}
}

func entityButton(ref Ref, name string) FormattedButton {
	return FormattedButton{
		ID:         ref.ID,
		Label:      name,
		ButtonType: TypeCallback,
		Value:      ref.CallbackValue(),
	}
}

// CallbackValue is the callback payload a bot receives for a category or
// product button. Plain buttons carry their own value.
func (r Ref) CallbackValue() string {
	switch r.Kind {
	case KindCategory:
		return fmt.Sprintf("category/%d", r.ID)
	case KindProduct:
		return fmt.Sprintf("product/%d", r.ID)
	case KindButton:
		return ""
	}
	panic(fmt.Sprintf("layout: unknown kind %d", int(r.Kind)))
}

func sameTenant(bot string, entities []Entity) []Entity {
	out := make([]Entity, 0, len(entities))
	for _, e := range entities {
		if e.BotIdentifier == bot {
			out = append(out, e)
		}
	}
	return out
}
