package platform

// Registry holds the static table of betting platforms the bot understands.
// It is built once at construction and never mutated afterwards, so it is
// safe to share across any number of concurrent extraction calls.
type Registry struct {
	order   []string
	meta    map[string]Meta
	aliases map[string]string
}

// builtin lists every platform the bot recognizes in user text. Order
// matters: the recognizer scans the vocabulary in declaration order, and the
// resolver's positional fallback inherits that order. Platforms marked
// Convertible are accepted by the conversion service; the rest are
// recognized during extraction only.
var builtin = []Meta{
	{Key: "stake", DisplayName: "Stake", Convertible: true},
	{Key: "sportybet", DisplayName: "SportyBet", Aliases: []string{"sporty", "sporty bet"}, Convertible: true},
	{Key: "bet9ja", DisplayName: "Bet9ja", Aliases: []string{"bet 9ja"}, Convertible: true},
	{Key: "1xbet", DisplayName: "1xBet", Aliases: []string{"1x", "1x bet"}, Convertible: true},
	{Key: "betway", DisplayName: "Betway", Convertible: true},
	{Key: "nairabet", DisplayName: "NairaBet", Aliases: []string{"naira bet"}, Convertible: true},
	{Key: "merrybet", DisplayName: "MerryBet", Aliases: []string{"merry bet"}, Convertible: true},
	{Key: "betking", DisplayName: "BetKing", Aliases: []string{"bet king"}, Convertible: true},
	{Key: "betnaija", DisplayName: "BetNaija", Aliases: []string{"bet naija"}, Convertible: true},
	{Key: "supabet", DisplayName: "SupaBet", Aliases: []string{"supa bet"}, Convertible: true},
	{Key: "betbonanza", DisplayName: "BetBonanza"},
	{Key: "accessbet", DisplayName: "AccessBet"},
	{Key: "betpawa", DisplayName: "BetPawa"},
	{Key: "msport", DisplayName: "MSport"},
	{Key: "parimatch", DisplayName: "Parimatch"},
	{Key: "betfair", DisplayName: "Betfair"},
}

// NewRegistry builds a registry from the builtin platform table.
func NewRegistry() *Registry {
	r := &Registry{
		order:   make([]string, 0, len(builtin)),
		meta:    make(map[string]Meta, len(builtin)),
		aliases: make(map[string]string),
	}
	for _, m := range builtin {
		r.order = append(r.order, m.Key)
		r.meta[m.Key] = m
		for _, alias := range m.Aliases {
			key := normalizeAlias(alias)
			if key == "" {
				continue
			}
			if _, ok := r.aliases[key]; ok {
				continue
			}
			r.aliases[key] = m.Key
		}
	}
	return r
}

// Resolve maps a platform name or alias to its canonical key.
func (r *Registry) Resolve(alias string) (string, bool) {
	if r == nil {
		return "", false
	}
	key := normalizeAlias(alias)
	if key == "" {
		return "", false
	}
	if _, ok := r.meta[key]; ok {
		return key, true
	}
	if name, ok := r.aliases[key]; ok {
		return name, true
	}
	return "", false
}

// Meta returns metadata for a canonical platform key.
func (r *Registry) Meta(key string) (Meta, bool) {
	if r == nil {
		return Meta{}, false
	}
	m, ok := r.meta[normalizeAlias(key)]
	return m, ok
}

// Vocabulary returns the canonical platform keys in declaration order.
func (r *Registry) Vocabulary() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Contains reports whether the lower-cased word is a vocabulary key.
func (r *Registry) Contains(word string) bool {
	if r == nil {
		return false
	}
	_, ok := r.meta[word]
	return ok
}

// Convertible returns the canonical keys accepted by the conversion service,
// in declaration order.
func (r *Registry) Convertible() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.order))
	for _, key := range r.order {
		if r.meta[key].Convertible {
			out = append(out, key)
		}
	}
	return out
}

// IsConvertible reports whether the given name or alias resolves to a
// platform the conversion service accepts.
func (r *Registry) IsConvertible(name string) bool {
	key, ok := r.Resolve(name)
	if !ok {
		return false
	}
	return r.meta[key].Convertible
}

// Display returns the operator branding for a name or alias. Unknown names
// fall back to their title-cased form so replies stay readable.
func (r *Registry) Display(name string) string {
	if key, ok := r.Resolve(name); ok {
		return r.meta[key].DisplayName
	}
	return TitleCase(name)
}

// ListMeta returns metadata for every known platform in declaration order.
func (r *Registry) ListMeta() []Meta {
	if r == nil {
		return nil
	}
	out := make([]Meta, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.meta[key])
	}
	return out
}
