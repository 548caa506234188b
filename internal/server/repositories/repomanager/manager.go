package repomanager

import (
	"context"

	"github.com/dmitrijs2005/eventphotos/internal/dbx"
	"github.com/dmitrijs2005/eventphotos/internal/server/repositories/events"
	"github.com/dmitrijs2005/eventphotos/internal/server/repositories/photos"
	"github.com/dmitrijs2005/eventphotos/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/eventphotos/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to either the shared connection
// (Conn) or the handle passed into a WithTx callback.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error

	Conn() dbx.DBTX
	// WithTx runs fn atomically. Repositories obtained from tx inside fn share
	// the transaction.
	WithTx(ctx context.Context, fn dbx.TxFunc) error

	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Events(db dbx.DBTX) events.Repository
	Photos(db dbx.DBTX) photos.Repository
}
