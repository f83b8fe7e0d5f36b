package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "test_session", "secret", time.Hour, false), mr
}

// commit persists sess and returns a follow-up request carrying its cookie.
func commit(t *testing.T, sm *SessionManager, sess *Session) *http.Request {
	t.Helper()
	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), res, nil, sess))
	next := httptest.NewRequest(http.MethodGet, "/banks", nil)
	for _, c := range res.Result().Cookies() {
		next.AddCookie(c)
	}
	return next
}

func TestFlashesSurviveRedirect(t *testing.T) {
	sm, _ := newTestSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodPost, "/banks", nil))
	require.NoError(t, err)
	sess.AddFlash(FlashMessage{Kind: "success", Message: "first"})
	sess.AddFlash(FlashMessage{Kind: "error", Message: "second"})

	next := commit(t, sm, sess)
	loaded, err := sm.Load(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)

	flashes := loaded.PopFlashes()
	require.Len(t, flashes, 2)
	assert.Equal(t, "first", flashes[0].Message)
	assert.Equal(t, "error", flashes[1].Kind)
	assert.Empty(t, loaded.PopFlashes())

	commit(t, sm, loaded)
	again, err := sm.Load(ctx, next)
	require.NoError(t, err)
	assert.Empty(t, again.PopFlashes())
}

func TestCookieIsSigned(t *testing.T) {
	sm, mr := newTestSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.Set("tab", "create")
	next := commit(t, sm, sess)
	assert.True(t, mr.Exists("bankdash:session:"+sess.ID))

	cookie, err := next.Cookie("test_session")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(cookie.Value, sess.ID+"."))

	forged := httptest.NewRequest(http.MethodGet, "/", nil)
	forged.AddCookie(&http.Cookie{Name: "test_session", Value: sess.ID})
	fresh, err := sm.Load(ctx, forged)
	require.NoError(t, err)
	assert.NotEqual(t, sess.ID, fresh.ID)
	assert.Empty(t, fresh.Get("tab"))

	other := NewSessionManager(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test_session", "other", time.Hour, false)
	fresh, err = other.Load(ctx, next)
	require.NoError(t, err)
	assert.NotEqual(t, sess.ID, fresh.ID, "signature from another secret is rejected")
}

func TestCommitSlidesExpiry(t *testing.T) {
	sm, mr := newTestSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	next := commit(t, sm, sess)
	key := "bankdash:session:" + sess.ID

	mr.FastForward(50 * time.Minute)
	loaded, err := sm.Load(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)
	commit(t, sm, loaded)
	assert.Equal(t, time.Hour, mr.TTL(key))

	mr.FastForward(2 * time.Hour)
	expired, err := sm.Load(ctx, next)
	require.NoError(t, err)
	assert.NotEqual(t, sess.ID, expired.ID)
}

func TestCSRFTokenLifecycle(t *testing.T) {
	sm, _ := newTestSessionManager(t)
	csrf := NewCSRFManager("csrfsecret")
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	token, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	again, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, token, again)

	assert.NoError(t, csrf.VerifyToken(ctx, sess, token))
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, "forged"), ErrCSRFTokenMismatch)
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, ""), ErrCSRFTokenMissing)
	assert.ErrorIs(t, csrf.VerifyToken(ctx, nil, token), ErrCSRFTokenMissing)

	_, err = csrf.EnsureToken(ctx, nil)
	assert.ErrorIs(t, err, ErrSessionMissing)
}

func TestCSRFTokenBoundToSession(t *testing.T) {
	sm, _ := newTestSessionManager(t)
	csrf := NewCSRFManager("csrfsecret")
	ctx := context.Background()

	victim, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	attacker, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	token, err := csrf.EnsureToken(ctx, attacker)
	require.NoError(t, err)
	// even a token planted into the victim's session fails its binding
	victim.Set(CSRFSessionKey, token)
	assert.ErrorIs(t, csrf.VerifyToken(ctx, victim, token), ErrCSRFTokenMismatch)
}
