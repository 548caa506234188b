package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/eventphotos/internal/dbx"
	"github.com/dmitrijs2005/eventphotos/internal/server/repositories/events"
	"github.com/dmitrijs2005/eventphotos/internal/server/repositories/memory"
	"github.com/dmitrijs2005/eventphotos/internal/server/repositories/photos"
	"github.com/dmitrijs2005/eventphotos/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/eventphotos/internal/server/repositories/users"
)

// InMemoryRepositoryManager keeps everything in process. The db handles
// passed to the factories are ignored; WithTx serializes its callbacks, which
// is enough to make refresh rotation atomic.
type InMemoryRepositoryManager struct {
	store *memory.Store
	txMu  sync.Mutex
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{store: memory.NewStore()}
}

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context) error { return nil }
func (m *InMemoryRepositoryManager) Ping(ctx context.Context) error          { return nil }
func (m *InMemoryRepositoryManager) Close() error                            { return nil }
func (m *InMemoryRepositoryManager) Conn() dbx.DBTX                          { return nil }

func (m *InMemoryRepositoryManager) WithTx(ctx context.Context, fn dbx.TxFunc) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, nil)
}

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return memory.NewUsers(m.store)
}

func (m *InMemoryRepositoryManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return memory.NewRefreshTokens(m.store)
}

func (m *InMemoryRepositoryManager) Events(dbx.DBTX) events.Repository {
	return memory.NewEvents(m.store)
}

func (m *InMemoryRepositoryManager) Photos(dbx.DBTX) photos.Repository {
	return memory.NewPhotos(m.store)
}
