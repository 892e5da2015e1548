package observer

// ErrorResponse is the JSON body returned for any failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// MatchCreateRequest describes the champions to load into a new match.
type MatchCreateRequest struct {
	ChampionPaths []string `json:"championPaths"`
	MaxCycles     uint64   `json:"maxCycles,omitempty"`
}

// PlayerStatus is one player's roster entry, as exposed over the API.
type PlayerStatus struct {
	ID        int32  `json:"id"`
	Name      string `json:"name"`
	Comment   string `json:"comment"`
	Size      int    `json:"size"`
	Processes int    `json:"processes"`
	LastLive  uint32 `json:"lastLive"`
}

// MatchStatus is the snapshot returned by GET /api/v1/match/{id}.
type MatchStatus struct {
	ID           string         `json:"id"`
	Cycle        uint32         `json:"cycle"`
	ProcessCount int            `json:"processCount"`
	Running      bool           `json:"running"`
	Players      []PlayerStatus `json:"players"`
	Winner       *PlayerStatus  `json:"winner,omitempty"`
}

// MemorySnapshot is the arena contents returned by GET /api/v1/match/{id}/memory.
type MemorySnapshot struct {
	Values []byte  `json:"values"`
	Ages   []int32 `json:"ages"`
	Owners []int32 `json:"owners"`
}
