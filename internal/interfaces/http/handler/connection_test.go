package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	socialapp "github.com/rainbow/backend/internal/application/social"
	"github.com/rainbow/backend/internal/domain/shared"
	"github.com/rainbow/backend/internal/domain/social"
	"github.com/rainbow/backend/internal/interfaces/http/dto"
	"github.com/rainbow/backend/internal/interfaces/http/middleware"
	"github.com/rainbow/backend/internal/interfaces/http/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// socialStore is an in-memory implementation of the social repositories,
// shared across them so AcceptPending can create the connection edge the way
// the SQL implementation does in one transaction.
type socialStore struct {
	mu          sync.Mutex
	users       map[uuid.UUID]*social.User
	follows     map[[2]uuid.UUID]bool
	connections map[[2]uuid.UUID]bool
	requests    map[uuid.UUID]*social.ConnectionRequest
}

func newSocialStore() *socialStore {
	return &socialStore{
		users:       make(map[uuid.UUID]*social.User),
		follows:     make(map[[2]uuid.UUID]bool),
		connections: make(map[[2]uuid.UUID]bool),
		requests:    make(map[uuid.UUID]*social.ConnectionRequest),
	}
}

func (s *socialStore) addUser(t *testing.T, username, fullName string) uuid.UUID {
	t.Helper()
	user, err := social.NewUser(username, fullName)
	require.NoError(t, err)
	s.mu.Lock()
	s.users[user.ID] = user
	s.mu.Unlock()
	return user.ID
}

func pairKey(a, b uuid.UUID) [2]uuid.UUID {
	lo, hi := social.NormalizePair(a, b)
	return [2]uuid.UUID{lo, hi}
}

// UserRepository

func (s *socialStore) FindByID(_ context.Context, id uuid.UUID) (*social.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (s *socialStore) FindByUsername(_ context.Context, username string) (*social.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *socialStore) FindByIDs(_ context.Context, ids []uuid.UUID) ([]social.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]social.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := s.users[id]; ok {
			users = append(users, *user)
		}
	}
	return users, nil
}

func (s *socialStore) Search(_ context.Context, _ string, _ shared.Filter) ([]social.User, error) {
	return nil, nil
}

func (s *socialStore) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[id]
	return ok, nil
}

func (s *socialStore) Save(_ context.Context, user *social.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	return nil
}

// FollowRepository

func (s *socialStore) Create(_ context.Context, follow social.Follow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]uuid.UUID{follow.FollowerID, follow.FolloweeID}
	if s.follows[key] {
		return shared.ErrAlreadyExists
	}
	s.follows[key] = true
	return nil
}

func (s *socialStore) Delete(_ context.Context, followerID, followeeID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.follows, [2]uuid.UUID{followerID, followeeID})
	return nil
}

func (s *socialStore) FollowExists(_ context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.follows[[2]uuid.UUID{followerID, followeeID}], nil
}

func (s *socialStore) FollowerIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uuid.UUID
	for key := range s.follows {
		if key[1] == userID {
			ids = append(ids, key[0])
		}
	}
	return ids, nil
}

func (s *socialStore) FolloweeIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uuid.UUID
	for key := range s.follows {
		if key[0] == userID {
			ids = append(ids, key[1])
		}
	}
	return ids, nil
}

// ConnectionRepository

func (s *socialStore) PartnerIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uuid.UUID
	for key := range s.connections {
		if key[0] == userID {
			ids = append(ids, key[1])
		}
		if key[1] == userID {
			ids = append(ids, key[0])
		}
	}
	return ids, nil
}

func (s *socialStore) Count(_ context.Context, userID uuid.UUID) (int64, error) {
	ids, _ := s.PartnerIDs(context.Background(), userID)
	return int64(len(ids)), nil
}

// ConnectionRequestRepository

func (s *socialStore) FindRequestByID(_ context.Context, id uuid.UUID) (*social.ConnectionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return req, nil
}

func (s *socialStore) FindByPair(_ context.Context, a, b uuid.UUID) (*social.ConnectionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey(a, b)
	for _, req := range s.requests {
		if [2]uuid.UUID{req.PairLo, req.PairHi} == key {
			return req, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *socialStore) FindPendingTo(_ context.Context, userID uuid.UUID) ([]social.ConnectionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var pending []social.ConnectionRequest
	for _, req := range s.requests {
		if req.ToUserID == userID && req.Status == social.RequestStatusPending {
			pending = append(pending, *req)
		}
	}
	return pending, nil
}

func (s *socialStore) CountByFromUserSince(_ context.Context, fromUserID uuid.UUID, since time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, req := range s.requests {
		if req.FromUserID == fromUserID && req.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (s *socialStore) CreateRequest(_ context.Context, req *social.ConnectionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey(req.FromUserID, req.ToUserID)
	for _, existing := range s.requests {
		if [2]uuid.UUID{existing.PairLo, existing.PairHi} == key {
			return shared.ErrAlreadyExists
		}
	}
	s.requests[req.ID] = req
	return nil
}

func (s *socialStore) AcceptPending(_ context.Context, fromUserID, toUserID uuid.UUID) (*social.ConnectionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, req := range s.requests {
		if req.FromUserID == fromUserID && req.ToUserID == toUserID && req.Status == social.RequestStatusPending {
			req.Status = social.RequestStatusAccepted
			s.connections[pairKey(fromUserID, toUserID)] = true
			return req, nil
		}
	}
	return nil, shared.ErrRequestNotFound
}

// Interface adapters: the store carries all four repositories but the method
// sets collide on names, so narrow views pick the right implementation.

type followRepoView struct{ *socialStore }

func (v followRepoView) Create(ctx context.Context, follow social.Follow) error {
	return v.socialStore.Create(ctx, follow)
}

func (v followRepoView) Exists(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	return v.socialStore.FollowExists(ctx, followerID, followeeID)
}

type connectionRepoView struct{ *socialStore }

func (v connectionRepoView) Exists(_ context.Context, a, b uuid.UUID) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.connections[pairKey(a, b)], nil
}

type requestRepoView struct{ *socialStore }

func (v requestRepoView) FindByID(ctx context.Context, id uuid.UUID) (*social.ConnectionRequest, error) {
	return v.socialStore.FindRequestByID(ctx, id)
}

func (v requestRepoView) Create(ctx context.Context, req *social.ConnectionRequest) error {
	return v.socialStore.CreateRequest(ctx, req)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, ...shared.DomainEvent) error { return nil }

func newConnectionTestServer(t *testing.T, store *socialStore, clock shared.Clock) *gin.Engine {
	t.Helper()

	svc := socialapp.NewConnectionService(
		store,
		followRepoView{store},
		connectionRepoView{store},
		requestRepoView{store},
		nopPublisher{},
		clock,
		zap.NewNop(),
	)

	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		if userID := c.GetHeader("X-Test-User"); userID != "" {
			c.Set(middleware.JWTUserIDKey, userID)
		}
	})
	router.NewRouter(engine).Register(NewConnectionHandler(svc)).Setup()
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, asUser uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if asUser != uuid.Nil {
		req.Header.Set("X-Test-User", asUser.String())
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestFollowEndpoint(t *testing.T) {
	store := newSocialStore()
	alice := store.addUser(t, "alice", "Alice Smith")
	bob := store.addUser(t, "bob", "Bob Jones")
	engine := newConnectionTestServer(t, store, shared.NewManualClock(time.Now()))

	w := doJSON(t, engine, "POST", "/api/v1/users/follow", alice, gin.H{"user_id": bob})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, engine, "POST", "/api/v1/users/follow", alice, gin.H{"user_id": bob})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_FOLLOWING", errorCode(t, w))

	w = doJSON(t, engine, "POST", "/api/v1/users/follow", alice, gin.H{"user_id": alice})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "SELF_TARGET", errorCode(t, w))

	w = doJSON(t, engine, "POST", "/api/v1/users/follow", alice, gin.H{"user_id": uuid.New()})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, engine, "POST", "/api/v1/users/follow", uuid.Nil, gin.H{"user_id": bob})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUnfollowEndpointIsIdempotent(t *testing.T) {
	store := newSocialStore()
	alice := store.addUser(t, "alice", "Alice Smith")
	bob := store.addUser(t, "bob", "Bob Jones")
	engine := newConnectionTestServer(t, store, shared.NewManualClock(time.Now()))

	w := doJSON(t, engine, "POST", "/api/v1/users/follow", alice, gin.H{"user_id": bob})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, engine, "POST", "/api/v1/users/unfollow", alice, gin.H{"user_id": bob})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, engine, "POST", "/api/v1/users/unfollow", alice, gin.H{"user_id": bob})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestSendConnectionRequestEndpoint(t *testing.T) {
	store := newSocialStore()
	alice := store.addUser(t, "alice", "Alice Smith")
	bob := store.addUser(t, "bob", "Bob Jones")
	engine := newConnectionTestServer(t, store, shared.NewManualClock(time.Now()))

	w := doJSON(t, engine, "POST", "/api/v1/connections/requests", alice, gin.H{"user_id": bob})
	require.Equal(t, http.StatusCreated, w.Code)

	resp := decodeResponse(t, w)
	created, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result socialapp.SendRequestResult
	require.NoError(t, json.Unmarshal(created, &result))
	assert.Equal(t, socialapp.OutcomeCreated, result.Outcome)

	// The reverse direction resolves to the same pending request
	w = doJSON(t, engine, "POST", "/api/v1/connections/requests", bob, gin.H{"user_id": alice})
	require.Equal(t, http.StatusOK, w.Code)

	resp = decodeResponse(t, w)
	pending, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var resend socialapp.SendRequestResult
	require.NoError(t, json.Unmarshal(pending, &resend))
	assert.Equal(t, socialapp.OutcomePending, resend.Outcome)
	assert.Equal(t, result.RequestID, resend.RequestID)
}

func TestAcceptConnectionRequestEndpoint(t *testing.T) {
	store := newSocialStore()
	alice := store.addUser(t, "alice", "Alice Smith")
	bob := store.addUser(t, "bob", "Bob Jones")
	engine := newConnectionTestServer(t, store, shared.NewManualClock(time.Now()))

	w := doJSON(t, engine, "POST", "/api/v1/connections/accept", bob, gin.H{"user_id": alice})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "REQUEST_NOT_FOUND", errorCode(t, w))

	w = doJSON(t, engine, "POST", "/api/v1/connections/requests", alice, gin.H{"user_id": bob})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, engine, "POST", "/api/v1/connections/accept", bob, gin.H{"user_id": alice})
	assert.Equal(t, http.StatusNoContent, w.Code)

	// A second accept has nothing pending left
	w = doJSON(t, engine, "POST", "/api/v1/connections/accept", bob, gin.H{"user_id": alice})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Sending again against the established connection conflicts
	w = doJSON(t, engine, "POST", "/api/v1/connections/requests", alice, gin.H{"user_id": bob})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_CONNECTED", errorCode(t, w))

	w = doJSON(t, engine, "GET", "/api/v1/connections", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var overview socialapp.ConnectionsOverview
	require.NoError(t, json.Unmarshal(raw, &overview))
	require.Len(t, overview.Connections, 1)
	assert.Equal(t, bob, overview.Connections[0].ID)
	assert.Empty(t, overview.PendingRequests)
}

func TestSendConnectionRequestRateLimit(t *testing.T) {
	store := newSocialStore()
	alice := store.addUser(t, "alice", "Alice Smith")
	clock := shared.NewManualClock(time.Now())
	engine := newConnectionTestServer(t, store, clock)

	for i := 0; i < social.MaxRequestsPerWindow; i++ {
		target := store.addUser(t, "user"+uuid.NewString()[:8], "Target User")
		w := doJSON(t, engine, "POST", "/api/v1/connections/requests", alice, gin.H{"user_id": target})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	blocked := store.addUser(t, "blocked", "Blocked Target")
	w := doJSON(t, engine, "POST", "/api/v1/connections/requests", alice, gin.H{"user_id": blocked})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, w))
}
