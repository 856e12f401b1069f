package entity

// MarketRecord is one row of the market-cap ranking.
type MarketRecord struct {
	ID        string  // canonical id on the ranking source (e.g. "bitcoin")
	Symbol    string  // uppercase ticker
	Name      string
	Rank      int
	MarketCap float64
	Price     float64
	Volume24h float64
}

// SymbolRequest is a resolved universe entry. It is immutable during a scan.
type SymbolRequest struct {
	Symbol      string
	CanonicalID string
	Name        string
	MarketCap   float64
	Price       float64
	Volume24h   float64
}

// SymbolMapping is a persisted ticker to canonical-id association.
type SymbolMapping struct {
	Symbol      string
	CanonicalID string
	Name        string
}

// InstrumentSet is the set of tradable instrument ids of one provider.
type InstrumentSet map[string]struct{}

// NewInstrumentSet builds a set from ids.
func NewInstrumentSet(ids ...string) InstrumentSet {
	s := make(InstrumentSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is tradable.
func (s InstrumentSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id.
func (s InstrumentSet) Add(id string) { s[id] = struct{}{} }
