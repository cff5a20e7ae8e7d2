package omada

import (
	"time"
)

// Session holds the controller token issued at login. The zero value is a logged-out session.
type Session struct {
	token      string
	loggedInAt time.Time
}

// Token returns the current token, or "" before login and after logout.
func (s Session) Token() string {
	return s.token
}

// LoggedInAt returns when the current token was issued; zero when logged out.
func (s Session) LoggedInAt() time.Time {
	return s.loggedInAt
}

// Active reports whether a token is held.
func (s Session) Active() bool {
	return s.token != ""
}

func (s *Session) set(token string, at time.Time) {
	s.token = token
	s.loggedInAt = at
}

func (s *Session) clear() {
	s.token = ""
	s.loggedInAt = time.Time{}
}

// timestamper hands out epoch-millisecond values that strictly increase,
// even when the clock stands still or steps backwards.
type timestamper struct {
	now  func() time.Time
	last int64
}

func newTimestamper(now func() time.Time) *timestamper {
	if now == nil {
		now = time.Now
	}
	return &timestamper{now: now}
}

// Next returns the next timestamp.
func (t *timestamper) Next() int64 {
	ms := t.now().UnixMilli()
	if ms <= t.last {
		ms = t.last + 1
	}
	t.last = ms
	return ms
}
