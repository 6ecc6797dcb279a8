package session

import "errors"

var (
	// ErrSessionAlreadyActive is returned by StartOrder when the group
	// already has a session in progress.
	ErrSessionAlreadyActive = errors.New("a group order is already active")

	// ErrNoActiveSession is returned when an operation needs a session
	// and the group has none.
	ErrNoActiveSession = errors.New("no active group order")

	// ErrNoActiveRestaurant is returned by JoinOrder before a
	// restaurant has been selected.
	ErrNoActiveRestaurant = errors.New("no restaurant selected")

	// ErrMalformedJoinCommand is returned when a join carries an empty
	// item or a non-positive quantity.
	ErrMalformedJoinCommand = errors.New("malformed join command")
)
