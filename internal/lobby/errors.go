// internal/lobby/errors.go
package lobby

import "errors"

// Sentinel errors returned by lobby and coordinator operations. The dispatch
// layer matches these with errors.Is and turns them into a rejection notice
// for the originating connection; none of them is fatal.
var (
	// ErrNotFound indicates an unknown lobby or client id.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates a non-admin attempting an admin-only action.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidState indicates an operation incompatible with the lobby's
	// current state, e.g. starting a session with no queue.
	ErrInvalidState = errors.New("invalid lobby state")

	// ErrInvalidPlayerCount indicates a queue attempt outside the game
	// type's declared player-count bounds.
	ErrInvalidPlayerCount = errors.New("invalid player count")

	// ErrInvalidArgument indicates a malformed or empty payload value.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlreadyInSession indicates a join attempt against a lobby that is
	// already queued or mid-game.
	ErrAlreadyInSession = errors.New("lobby already queued or in session")

	// ErrNotQueued indicates a queue-leave attempt with no queue present.
	ErrNotQueued = errors.New("lobby is not queued")

	// ErrInvalidTarget indicates a kick aimed at an invalid target, e.g.
	// the admin kicking themselves.
	ErrInvalidTarget = errors.New("invalid kick target")
)
