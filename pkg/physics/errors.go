package physics

import "errors"

// Construction and lifecycle errors. Callers match them with errors.Is;
// returned errors wrap these with the offending value.
var (
	ErrInvalidDimensions = errors.New("collider dimensions must be positive and finite")
	ErrNilCollider       = errors.New("body requires a collider")
	ErrNilTransform      = errors.New("body requires a transform")
	ErrInvalidBodyDef    = errors.New("invalid body definition")
	ErrDuplicateBody     = errors.New("entity already has a registered body")
	ErrUnknownBody       = errors.New("body is not registered with this world")
	ErrMidStep           = errors.New("operation not permitted while the world is stepping")
	ErrInvalidSettings   = errors.New("invalid world settings")
)
