package entities

// OpenMode distinguishes paid pack opens from point-funded free opens
type OpenMode string

const (
	ModePaid OpenMode = "paid"
	ModeFree OpenMode = "free"
)

// IsValid reports whether the mode is one of the two supported modes
func (m OpenMode) IsValid() bool {
	return m == ModePaid || m == ModeFree
}

// DrawResult is the resolved outcome of a single pack open. It is fixed the
// moment resolution returns; the reel animation is purely decorative.
type DrawResult struct {
	Card    *Card
	Rarity  Rarity
	Value   int64 // estimated value in euro cents
	PackKey string
	Mode    OpenMode
}

// EngineState represents the pack-opening engine's lifecycle state
type EngineState string

const (
	StateIdle    EngineState = "IDLE"
	StateOpening EngineState = "OPENING"
	StateResult  EngineState = "RESULT"
)
