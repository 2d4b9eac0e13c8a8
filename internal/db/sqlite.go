package db

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"sync"

	gosqlite "github.com/glebarez/go-sqlite"
)

var registerLowerOnce sync.Once

// registerUnicodeLower replaces SQLite's lower(), which folds ASCII only, so
// title searches fold case the same way on every driver. It applies to
// connections opened after the first call.
func registerUnicodeLower() {
	registerLowerOnce.Do(func() {
		gosqlite.MustRegisterDeterministicScalarFunction("lower", 1, unicodeLower)
	})
}

func unicodeLower(_ *gosqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return fmt.Sprint(v), nil
	}
}
