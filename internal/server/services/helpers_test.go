package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/eventphotos/internal/dbx"
	"github.com/dmitrijs2005/eventphotos/internal/server/auth"
	"github.com/dmitrijs2005/eventphotos/internal/server/models"
	"github.com/dmitrijs2005/eventphotos/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/eventphotos/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/eventphotos/internal/server/repositories/users"
)

const testPublicURL = "https://cdn.example.com/photos"

func newSigner(t *testing.T) *auth.Signer {
	t.Helper()
	s, err := auth.NewSigner([]byte("test-secret"), 10*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	return s
}

func newHasher(t *testing.T) *auth.PasswordHasher {
	t.Helper()
	h, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type recordingQueue struct {
	ids  []string
	full bool
}

func (q *recordingQueue) Enqueue(id string) bool {
	if q.full {
		return false
	}
	q.ids = append(q.ids, id)
	return true
}

func (q *recordingQueue) EnqueueWait(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	q.ids = append(q.ids, id)
	return true, nil
}

// failingManager wraps the in-memory manager and injects repository errors.
type failingManager struct {
	*repomanager.InMemoryRepositoryManager
	usersErr   error
	refreshErr error
}

func (m *failingManager) Users(db dbx.DBTX) users.Repository {
	return &failingUsers{Repository: m.InMemoryRepositoryManager.Users(db), err: m.usersErr}
}

func (m *failingManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return &failingRefresh{Repository: m.InMemoryRepositoryManager.RefreshTokens(db), err: m.refreshErr}
}

type failingUsers struct {
	users.Repository
	err error
}

func (f *failingUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.Repository.GetByEmail(ctx, email)
}

func (f *failingUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.Repository.Create(ctx, u)
}

type failingRefresh struct {
	refreshtokens.Repository
	err error
}

func (f *failingRefresh) Create(ctx context.Context, t *models.RefreshToken) error {
	if f.err != nil {
		return f.err
	}
	return f.Repository.Create(ctx, t)
}

var errDB = errors.New("db down")
