package gamestate

// Vector3 is a world-space position.
type Vector3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Quaternion is a rotation in x, y, z, w order.
type Quaternion struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
	W float64 `json:"w" yaml:"w"`
}

// IdentityRotation is the no-rotation quaternion.
func IdentityRotation() Quaternion {
	return Quaternion{W: 1}
}

// Checkpoint records the last checkpoint the player touched.
type Checkpoint struct {
	ID       string  `json:"id" yaml:"id"`
	Position Vector3 `json:"position" yaml:"position"`
}

// PlayerPosition is the spatial part of a save: the live transform plus the
// optional checkpoint and respawn anchors. Values are treated as immutable
// snapshots; the With* helpers return fresh copies.
type PlayerPosition struct {
	Position   Vector3     `json:"position" yaml:"position"`
	Rotation   Quaternion  `json:"rotation" yaml:"rotation"`
	MapID      string      `json:"current_map_id" yaml:"current_map_id"`
	AreaID     string      `json:"current_area_id" yaml:"current_area_id"`
	Checkpoint *Checkpoint `json:"last_checkpoint,omitempty" yaml:"last_checkpoint,omitempty"`
	Respawn    *Vector3    `json:"respawn_position,omitempty" yaml:"respawn_position,omitempty"`
}

// DefaultPlayerPosition places the player at the origin with no anchors.
func DefaultPlayerPosition() PlayerPosition {
	return PlayerPosition{Rotation: IdentityRotation()}
}

// WithTransform moves the player. Checkpoint and respawn data are carried
// over untouched.
func (p PlayerPosition) WithTransform(position Vector3, rotation Quaternion, mapID, areaID string) PlayerPosition {
	next := p.clone()
	next.Position = position
	next.Rotation = rotation
	next.MapID = mapID
	next.AreaID = areaID
	return next
}

// WithCheckpoint returns a snapshot recording checkpoint id at position.
func (p PlayerPosition) WithCheckpoint(id string, position Vector3) PlayerPosition {
	next := p.clone()
	next.Checkpoint = &Checkpoint{ID: id, Position: position}
	return next
}

// WithRespawn returns a snapshot with the respawn anchor set to position.
func (p PlayerPosition) WithRespawn(position Vector3) PlayerPosition {
	next := p.clone()
	respawn := position
	next.Respawn = &respawn
	return next
}

// HasCheckpoint reports whether a checkpoint was recorded.
func (p PlayerPosition) HasCheckpoint() bool {
	return p.Checkpoint != nil
}

// RespawnPoint resolves where the player should reappear: the explicit
// respawn anchor, then the checkpoint, then the current position.
func (p PlayerPosition) RespawnPoint() Vector3 {
	if p.Respawn != nil {
		return *p.Respawn
	}
	if p.Checkpoint != nil {
		return p.Checkpoint.Position
	}
	return p.Position
}

func (p PlayerPosition) clone() PlayerPosition {
	out := p
	if p.Checkpoint != nil {
		checkpoint := *p.Checkpoint
		out.Checkpoint = &checkpoint
	}
	if p.Respawn != nil {
		respawn := *p.Respawn
		out.Respawn = &respawn
	}
	return out
}

func (p PlayerPosition) equal(other PlayerPosition) bool {
	if p.Position != other.Position || p.Rotation != other.Rotation {
		return false
	}
	if p.MapID != other.MapID || p.AreaID != other.AreaID {
		return false
	}
	if (p.Checkpoint == nil) != (other.Checkpoint == nil) {
		return false
	}
	if p.Checkpoint != nil && *p.Checkpoint != *other.Checkpoint {
		return false
	}
	if (p.Respawn == nil) != (other.Respawn == nil) {
		return false
	}
	return p.Respawn == nil || *p.Respawn == *other.Respawn
}
