package engine

// MethodCounters tallies one generation method across a run: how many
// candidate submissions were spawned and how many the store accepted.
type MethodCounters struct {
	Spawned  int `json:"spawned"`
	Accepted int `json:"accepted"`
}

// WaveRecord is the immutable snapshot of one completed wave. Records
// are appended once and never rewritten by later waves.
type WaveRecord struct {
	Index           int     `json:"index"`
	Label           string  `json:"label"`
	Registered      int     `json:"registered"`
	Failed          int     `json:"failed"`
	Healed          int     `json:"healed"`
	VariantsSpawned int     `json:"variantsSpawned"`
	CascadeBoost    float64 `json:"cascadeBoost"`
}

// Report is the full accounting of one Run. A run of depth d always
// produces exactly d+1 wave records.
type Report struct {
	Registered   int            `json:"registered"`
	Failed       int            `json:"failed"`
	Recycled     int            `json:"recycled"`
	Variants     MethodCounters `json:"variants"`
	Approaches   MethodCounters `json:"approaches"`
	XiGlobal     float64        `json:"xiGlobal"`
	CascadeBoost float64        `json:"cascadeBoost"`
	Depth        int            `json:"depth"`
	Waves        []WaveRecord   `json:"waves"`
	Total        int            `json:"total"`
}
