package canonical

// Alias is one curated mapping from a raw spelling to a preferred display
// name, e.g. "q150" -> "KEF Q150". Loaded from config; immutable afterwards.
type Alias struct {
	Alias   string
	Display string
}

// AliasRecord is a resolved alias: the canonical key the alias clusters
// under and the display name to use for that cluster.
type AliasRecord struct {
	Key     string
	Display string
}

// AliasTable maps canonical keys of alias spellings to their records, and
// canonical cluster keys to their curated display names.
type AliasTable struct {
	records  map[string]AliasRecord
	displays map[string]string
}

// NewAliasTable builds an immutable table from curated entries. The alias
// spelling is keyed aggressively; the record's key is derived from the
// display name so that alias spellings and direct brand+model matches of
// the same product cluster together. Earlier entries win on conflict.
func NewAliasTable(entries []Alias) *AliasTable {
	t := &AliasTable{
		records:  make(map[string]AliasRecord, len(entries)),
		displays: make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		aliasKey := Key(e.Alias)
		if aliasKey == "" {
			continue
		}
		display := NormalizeDisplay(e.Display)
		if display == "" {
			display = NormalizeDisplay(e.Alias)
		}
		ck := Key(display)
		if ck == "" {
			ck = aliasKey
		}
		if _, exists := t.records[aliasKey]; exists {
			continue
		}
		t.records[aliasKey] = AliasRecord{Key: ck, Display: display}
		if _, exists := t.displays[ck]; !exists {
			t.displays[ck] = display
		}
	}
	return t
}

// DisplayFor returns the curated display name for a canonical cluster key,
// if any alias resolves to that key.
func (t *AliasTable) DisplayFor(key string) (string, bool) {
	d, ok := t.displays[key]
	return d, ok
}

func (t *AliasTable) Lookup(key string) (AliasRecord, bool) {
	rec, ok := t.records[key]
	return rec, ok
}

func (t *AliasTable) Has(key string) bool {
	_, ok := t.records[key]
	return ok
}

func (t *AliasTable) Len() int {
	return len(t.records)
}
