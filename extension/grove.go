package extension

import (
	"fmt"

	"github.com/xraph/grove"

	"github.com/xraph/escrow/store"
	mongostore "github.com/xraph/escrow/store/mongo"
	pgstore "github.com/xraph/escrow/store/postgres"
	sqlitestore "github.com/xraph/escrow/store/sqlite"
)

// storeForDB picks the backend matching the grove driver.
func storeForDB(db *grove.DB) (store.Store, error) {
	name := db.Driver().Name()
	switch name {
	case "pg":
		return pgstore.New(db), nil
	case "sqlite":
		return sqlitestore.New(db), nil
	case "mongo":
		return mongostore.New(db), nil
	default:
		return nil, fmt.Errorf("escrow: unsupported grove driver %q", name)
	}
}
