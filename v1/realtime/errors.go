package realtime

import "errors"

var (
	// ErrAlreadySubscribed is returned by Subscribe on a channel that is
	// joining or joined.
	ErrAlreadySubscribed = errors.New("realtime: channel already subscribed")

	// ErrBindAfterSubscribe is recorded when On is called after Subscribe.
	// The listener is not registered; see Channel.Err.
	ErrBindAfterSubscribe = errors.New("realtime: listener added after subscribe")

	// ErrChannelClosed is returned for operations on a removed channel.
	ErrChannelClosed = errors.New("realtime: channel closed")

	// ErrNotJoined is returned by Send before the join was acknowledged.
	ErrNotJoined = errors.New("realtime: channel not joined")

	// ErrSubscribeTimeout is passed to the status callback with StatusTimedOut.
	ErrSubscribeTimeout = errors.New("realtime: subscribe timed out")

	// ErrConnectionLost is passed to the status callback when the socket drops.
	ErrConnectionLost = errors.New("realtime: connection lost")

	// ErrBindingMismatch is reported when the server acknowledges different
	// postgres_changes bindings than were requested.
	ErrBindingMismatch = errors.New("realtime: server and client postgres_changes bindings differ")
)

// JoinError carries the reason the server rejected a join.
type JoinError struct {
	Topic  string
	Reason string
}

func (e *JoinError) Error() string {
	return "realtime: join " + e.Topic + " rejected: " + e.Reason
}

// IsClosed reports whether err is ErrChannelClosed.
func IsClosed(err error) bool {
	return errors.Is(err, ErrChannelClosed)
}
