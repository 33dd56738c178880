package stomp

// streamLock is the lease a Reader hands to the body of the frame it last
// returned. While a body holds it no further frame may be parsed, because
// the stream position is somewhere inside that body.
type streamLock struct {
	holder *Body
}

func (l *streamLock) acquire(b *Body) error {
	if l.holder != nil {
		return ErrLockHeld
	}
	l.holder = b
	return nil
}

// release is a no-op unless b is the current holder, so a stale body can
// never free a lease owned by a later one.
func (l *streamLock) release(b *Body) {
	if l.holder == b {
		l.holder = nil
	}
}

func (l *streamLock) held() bool {
	return l.holder != nil
}
