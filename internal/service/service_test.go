package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lostfound/internal/config"
	"lostfound/internal/models"
	"lostfound/internal/repository/memrepo"
	"lostfound/internal/storage"
)

type mockImageStore struct {
	mock.Mock
}

func (m *mockImageStore) Upload(ctx context.Context, itemID string, img *storage.ProcessedImage) (string, string, error) {
	args := m.Called(ctx, itemID, img)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *mockImageStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) MessageSent(ctx context.Context, msg *models.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *mockNotifier) MessagesRead(ctx context.Context, recipientID, senderID string, count int64) error {
	return m.Called(ctx, recipientID, senderID, count).Error(0)
}

// recordingMailer keeps the last verification token per email.
type recordingMailer struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (m *recordingMailer) SendVerification(_ context.Context, user *models.User, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[user.Email] = token
	return nil
}

func (m *recordingMailer) token(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[email]
}

type testEnv struct {
	svc      *Service
	store    *memrepo.Store
	images   *mockImageStore
	notifier *mockNotifier
	mailer   *recordingMailer
	cfg      *config.Config
}

func testConfig() *config.Config {
	return &config.Config{
		BaseURL:             "http://localhost:8080",
		JWTSecretKey:        "test-secret",
		AccessTokenDuration: time.Hour,
		ImageMaxDimension:   64,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		store:    memrepo.New(),
		images:   &mockImageStore{},
		notifier: &mockNotifier{},
		mailer:   &recordingMailer{tokens: make(map[string]string)},
		cfg:      testConfig(),
	}
	env.notifier.On("MessageSent", mock.Anything, mock.Anything).Return(nil).Maybe()
	env.notifier.On("MessagesRead", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	env.svc = NewService(Deps{
		Repo:     env.store.Repository(),
		Config:   env.cfg,
		Images:   env.images,
		Mailer:   env.mailer,
		Notifier: env.notifier,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	t.Cleanup(func() {
		env.images.AssertExpectations(t)
	})
	return env
}

// verifiedUser registers and verifies an account through the auth service.
func (e *testEnv) verifiedUser(t *testing.T, name, email string) *models.User {
	t.Helper()
	ctx := context.Background()

	_, err := e.svc.Auth.Register(ctx, RegisterRequest{Name: name, Email: email, Password: "secret1"})
	require.NoError(t, err)

	user, err := e.svc.Auth.VerifyEmail(ctx, e.mailer.token(email))
	require.NoError(t, err)
	return user
}

func (e *testEnv) item(t *testing.T, ownerID, name string) *models.Item {
	t.Helper()

	item, err := e.svc.Item.CreateItem(context.Background(), CreateItemRequest{
		OwnerID:     ownerID,
		Name:        name,
		Description: name + " found on campus",
		Category:    "misc",
		DateFound:   "2024-03-01",
	})
	require.NoError(t, err)
	return item
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{200, 30, 30, 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
