package models

// SignalState records what has already been reported for one
// "{symbol}-{timeframe}" key. LastCandleTime is the open time of the last
// candle a primary signal was sent for; EscalationFired marks that a
// strong signal went out for the currently-active primary event.
type SignalState struct {
	LastCandleTime  int64 `json:"last_candle_time"`
	EscalationFired bool  `json:"escalation_fired"`
}

// StateMap maps "{symbol}-{timeframe}" keys to their dedup state.
type StateMap map[string]SignalState

// StateKey builds the canonical state key for a symbol and timeframe.
func StateKey(symbol string, tf Timeframe) string {
	return symbol + "-" + string(tf)
}

// Get returns the state for key and whether it exists. A missing key
// yields the zero state.
func (m StateMap) Get(key string) (SignalState, bool) {
	st, ok := m[key]
	return st, ok
}

func (m StateMap) Put(key string, st SignalState) {
	m[key] = st
}

func (m StateMap) Remove(key string) {
	delete(m, key)
}

// Clone returns an independent copy of the map.
func (m StateMap) Clone() StateMap {
	out := make(StateMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Merge overlays delta onto base and returns the result. Delta entries win
// on key collision; keys absent from delta keep base's value. Neither
// input is modified.
func Merge(base, delta StateMap) StateMap {
	out := base.Clone()
	for k, v := range delta {
		out[k] = v
	}
	return out
}
