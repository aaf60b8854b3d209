// Package progress keeps each participant's place in the question sequence.
// State lives in server-side session storage keyed by a cookie, never in
// process globals.
package progress

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const (
	keyParticipantID = "participant_id"
	keyGroup         = "group_name"
	keyTaskAIndex    = "task_a_index"
)

// Progress is the request-scoped view of a participant's session.
type Progress struct {
	ParticipantID uint
	Group         string
	Index         int
}

// StoreOptions configures the session store backing the tracker.
type StoreOptions struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
	Storage    fiber.Storage
}

// NewStore builds the fiber session store. A nil Storage keeps sessions in
// process memory.
func NewStore(opts StoreOptions) *session.Store {
	cookie := opts.CookieName
	if cookie == "" {
		cookie = "study_session"
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 4 * time.Hour
	}

	return session.New(session.Config{
		Expiration:     ttl,
		Storage:        opts.Storage,
		KeyLookup:      "cookie:" + cookie,
		CookieHTTPOnly: true,
		CookieSecure:   opts.Secure,
		CookieSameSite: "Lax",
	})
}

// Tracker reads and advances the per-session question cursor.
type Tracker struct {
	store *session.Store
}

// NewTracker wraps a session store.
func NewTracker(store *session.Store) *Tracker {
	return &Tracker{store: store}
}

// Begin binds a freshly enrolled participant to a new session id with the
// cursor at the first question.
func (t *Tracker) Begin(c *fiber.Ctx, participantID uint, group string) error {
	sess, err := t.store.Get(c)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if err := sess.Regenerate(); err != nil {
		return fmt.Errorf("regenerate session: %w", err)
	}

	sess.Set(keyParticipantID, participantID)
	sess.Set(keyGroup, group)
	sess.Set(keyTaskAIndex, 0)

	return sess.Save()
}

// Current returns the participant bound to this request's session. ok is
// false when there is none; nothing is written in that case.
func (t *Tracker) Current(c *fiber.Ctx) (Progress, bool, error) {
	sess, err := t.store.Get(c)
	if err != nil {
		return Progress{}, false, fmt.Errorf("load session: %w", err)
	}

	id := toUint(sess.Get(keyParticipantID))
	if id == 0 {
		return Progress{}, false, nil
	}

	group, _ := sess.Get(keyGroup).(string)
	return Progress{
		ParticipantID: id,
		Group:         group,
		Index:         toInt(sess.Get(keyTaskAIndex)),
	}, true, nil
}

// Reset moves the cursor back to the first question. Sessions without a
// participant are left untouched.
func (t *Tracker) Reset(c *fiber.Ctx) error {
	sess, err := t.store.Get(c)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if toUint(sess.Get(keyParticipantID)) == 0 {
		return nil
	}

	sess.Set(keyTaskAIndex, 0)
	return sess.Save()
}

// Advance moves the cursor past answered, but only when answered is the
// question the cursor currently points at. It reports whether it moved.
func (t *Tracker) Advance(c *fiber.Ctx, answered int) (bool, error) {
	sess, err := t.store.Get(c)
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}
	if toUint(sess.Get(keyParticipantID)) == 0 {
		return false, nil
	}
	if toInt(sess.Get(keyTaskAIndex)) != answered {
		return false, nil
	}

	sess.Set(keyTaskAIndex, answered+1)
	if err := sess.Save(); err != nil {
		return false, err
	}
	return true, nil
}

func toUint(value interface{}) uint {
	switch v := value.(type) {
	case uint:
		return v
	case uint64:
		return uint(v)
	case int:
		if v > 0 {
			return uint(v)
		}
	case int64:
		if v > 0 {
			return uint(v)
		}
	}
	return 0
}

func toInt(value interface{}) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint:
		return int(v)
	}
	return 0
}
