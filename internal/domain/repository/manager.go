package repository

import (
	"github.com/sousadrivikis20-lab/Alugabv/internal/platform/database"
)

// Manager vends repositories bound to a DBTX, so the same repository code
// runs against the pool or inside a transaction.
type Manager struct {
	dialect database.Dialect
}

func NewManager(dialect database.Dialect) *Manager {
	return &Manager{dialect: dialect}
}

func (m *Manager) Users(db database.DBTX) UserRepository {
	return NewSQLUserRepository(db, m.dialect)
}

func (m *Manager) Properties(db database.DBTX) PropertyRepository {
	return NewSQLPropertyRepository(db, m.dialect)
}

func (m *Manager) Sessions(db database.DBTX) *SQLSessionStore {
	return NewSQLSessionStore(db, m.dialect)
}
