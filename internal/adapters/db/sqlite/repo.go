package sqlite

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"modmanager/internal/ports"
)

// Repo provides a base for Squirrel-based repositories.
type Repo struct {
	DB    *sql.DB
	SQ    sq.StatementBuilderType
	Clock ports.Clock
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db, SQ: sq.StatementBuilder, Clock: ports.SystemClock}
}

func (r *Repo) now() int64 { return r.Clock.Now().UnixMilli() }
