package gamestate

import "time"

// SchemaVersion is written into every new save.
const SchemaVersion = 1

// PersistentState is the save aggregate: one in-memory copy per save slot,
// mutated in place by gameplay and serialized wholesale on save.
type PersistentState struct {
	Version    int            `json:"version" yaml:"version"`
	Score      int            `json:"score" yaml:"score"`
	PlayerName string         `json:"player_name" yaml:"player_name"`
	Progress   StoryProgress  `json:"story_progress" yaml:"story_progress"`
	Position   PlayerPosition `json:"player_position" yaml:"player_position"`
	Inventory  Inventory      `json:"inventory" yaml:"inventory"`
	History    EventHistory   `json:"event_history" yaml:"event_history"`
	UpdatedAt  time.Time      `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Default returns the state used when no save exists yet.
func Default() PersistentState {
	return PersistentState{
		Version:   SchemaVersion,
		Position:  DefaultPlayerPosition(),
		Inventory: Inventory{Items: []InventoryItem{}},
		History:   NewEventHistory(),
	}
}

// New starts a fresh game for playerName.
func New(playerName string) *PersistentState {
	state := Default()
	state.PlayerName = playerName
	return &state
}

// AddScore adds delta to the score. No bound is enforced.
func (s *PersistentState) AddScore(delta int) int {
	s.Score += delta
	return s.Score
}

// SetScore overwrites the score.
func (s *PersistentState) SetScore(score int) {
	s.Score = score
}

// SetPlayerName stores name as given.
func (s *PersistentState) SetPlayerName(name string) {
	s.PlayerName = name
}

// MoveTo updates the live transform, leaving checkpoint data untouched.
func (s *PersistentState) MoveTo(position Vector3, rotation Quaternion, mapID, areaID string) {
	s.Position = s.Position.WithTransform(position, rotation, mapID, areaID)
}

// ReachCheckpoint records a checkpoint snapshot.
func (s *PersistentState) ReachCheckpoint(id string, position Vector3) {
	s.Position = s.Position.WithCheckpoint(id, position)
}

// SetRespawn records the respawn anchor.
func (s *PersistentState) SetRespawn(position Vector3) {
	s.Position = s.Position.WithRespawn(position)
}

// Clone returns a deep copy detached from s.
func (s PersistentState) Clone() PersistentState {
	out := s
	out.Position = s.Position.clone()
	out.Inventory = s.Inventory.clone()
	out.History = s.History.clone()
	return out
}

// Equal compares every persisted field except UpdatedAt.
func (s PersistentState) Equal(other PersistentState) bool {
	return s.Version == other.Version &&
		s.Score == other.Score &&
		s.PlayerName == other.PlayerName &&
		s.Progress == other.Progress &&
		s.Position.equal(other.Position) &&
		s.Inventory.equal(other.Inventory) &&
		s.History.equal(other.History)
}

// Validate is run before every save.
func (s PersistentState) Validate() error {
	for _, item := range s.Inventory.Items {
		if item.Quantity < 0 {
			return invalidArgument("item %q has negative quantity %d", item.UniqueID, item.Quantity)
		}
	}
	return nil
}
