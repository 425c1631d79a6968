package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/sousadrivikis20-lab/Alugabv/internal/common/profanity"
	"github.com/sousadrivikis20-lab/Alugabv/internal/domain/model"
	"github.com/sousadrivikis20-lab/Alugabv/internal/domain/repository"
	"github.com/sousadrivikis20-lab/Alugabv/internal/platform/blobstore"
	"github.com/sousadrivikis20-lab/Alugabv/internal/platform/database"
	"github.com/sousadrivikis20-lab/Alugabv/internal/platform/database/databasetest"
	"github.com/sousadrivikis20-lab/Alugabv/internal/platform/logging"
)

const testModerator = "admin"

// memBlobs is an in-memory blobstore.Store.
type memBlobs struct {
	mu        sync.Mutex
	objects   map[string][]byte
	next      int
	failAfter int // uploads allowed before Upload fails; negative means never
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: map[string][]byte{}, failAfter: -1}
}

func (m *memBlobs) Upload(_ context.Context, obj blobstore.Object) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAfter == 0 {
		return "", errors.New("bucket unavailable")
	}
	if m.failAfter > 0 {
		m.failAfter--
	}
	body, err := io.ReadAll(obj.Body)
	if err != nil {
		return "", err
	}
	m.next++
	url := fmt.Sprintf("/uploads/%d-%s", m.next, obj.Filename)
	m.objects[url] = body
	return url, nil
}

func (m *memBlobs) DeleteOne(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, url)
	return nil
}

func (m *memBlobs) DeleteMany(ctx context.Context, urls []string) error {
	for _, u := range urls {
		_ = m.DeleteOne(ctx, u)
	}
	return nil
}

func (m *memBlobs) has(url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[url]
	return ok
}

func (m *memBlobs) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type fixture struct {
	db         *database.DB
	repos      *repository.Manager
	sessions   repository.SessionStore
	blobs      *memBlobs
	auth       *AuthService
	users      *UserService
	properties *PropertyService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := databasetest.New(t)
	repos := repository.NewManager(db.Dialect)
	return newFixtureWithSessions(t, db, repos, repos.Sessions(db))
}

// newRedisFixture keeps sessions in a miniredis instance.
func newRedisFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	db := databasetest.New(t)
	return newFixtureWithSessions(t, db, repository.NewManager(db.Dialect), repository.NewRedisSessionStore(rdb))
}

func newFixtureWithSessions(t *testing.T, db *database.DB, repos *repository.Manager, sessions repository.SessionStore) *fixture {
	t.Helper()
	log := logging.Discard()
	filter := profanity.New()
	blobs := newMemBlobs()
	return &fixture{
		db:         db,
		repos:      repos,
		sessions:   sessions,
		blobs:      blobs,
		auth:       NewAuthService(repos.Users(db), sessions, filter, testModerator, time.Hour, log),
		users:      NewUserService(db, repos, sessions, blobs, filter, log),
		properties: NewPropertyService(repos.Properties(db), blobs, filter, 5, log),
	}
}

func strptr(s string) *string { return &s }
func f64(v float64) *float64 { return &v }

// signUp registers and logs in a user.
func (f *fixture) signUp(t *testing.T, username, role string) *model.Session {
	t.Helper()
	ctx := context.Background()
	_, err := f.auth.Register(ctx, RegisterRequest{
		Username: username,
		Password: "secret123",
		Role:     role,
		Email:    strptr(strings.ToLower(username) + "@example.com"),
	})
	require.NoError(t, err)
	sess, err := f.auth.Login(ctx, LoginRequest{Identifier: username, Password: "secret123"})
	require.NoError(t, err)
	return sess
}

func image(name string) blobstore.Object {
	return blobstore.Object{
		Body:        strings.NewReader("\x89PNG fake " + name),
		Size:        int64(len(name) + 10),
		ContentType: "image/png",
		Filename:    name,
	}
}

func draftProperty() *model.Property {
	return &model.Property{
		Name:         "Casa verde",
		Description:  "Dois quartos perto do parque",
		Contact:      "95999990000",
		SalePrice:    f64(150000),
		Coords:       model.Coords{Lat: 2.82, Lng: -60.67},
		Neighborhood: strptr("Centro"),
	}
}

// publish creates a listing for sess with the given images.
func (f *fixture) publish(t *testing.T, sess *model.Session, images ...string) *model.Property {
	t.Helper()
	objs := make([]blobstore.Object, 0, len(images))
	for _, name := range images {
		objs = append(objs, image(name))
	}
	p, err := f.properties.Create(context.Background(), &sess.User, draftProperty(), objs)
	require.NoError(t, err)
	return p
}
