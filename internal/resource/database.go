package resource

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Built-in question databases, referenced by name from solution configs
// and from the execution endpoint.
var databaseSources = map[string]string{
	"chinook":   "https://github.com/lerocha/chinook-database/raw/master/ChinookDatabase/DataSources/Chinook_Sqlite.sqlite",
	"northwind": "https://github.com/jpwhite3/northwind-SQLite3/raw/main/dist/northwind.db",
}

// DatabaseNames lists the built-in question databases.
func DatabaseNames() []string {
	names := make([]string, 0, len(databaseSources))
	for name := range databaseSources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupDatabase resolves a built-in database name to its download URL.
func LookupDatabase(name string) (string, bool) {
	url, ok := databaseSources[strings.ToLower(name)]
	return url, ok
}

// OpenNamed connects to one of the built-in question databases,
// downloading it into cacheDir on first use. Used by the execution
// endpoint, where clients pick a database by name.
func OpenNamed(ctx context.Context, name, cacheDir string) (*gorm.DB, error) {
	db, _, err := openDatabase(ctx, nil, DatabaseSpec{Name: name}, cacheDir)
	return db, err
}

// openDatabase builds the relational connection a solution config declares.
// It returns the connection plus the local sqlite file it materialized, if
// any, so the caller can clean it up.
func openDatabase(ctx context.Context, store Store, spec DatabaseSpec, cacheDir string) (*gorm.DB, string, error) {
	dbType := spec.Type
	if dbType == "" {
		dbType = "sqlite"
	}

	switch dbType {
	case "sqlite":
		return openSQLite(ctx, store, spec, cacheDir)
	case "postgresql":
		db, err := openPostgres(spec)
		return db, "", err
	}
	return nil, "", fmt.Errorf("unsupported database type: %s", dbType)
}

func openSQLite(ctx context.Context, store Store, spec DatabaseSpec, cacheDir string) (*gorm.DB, string, error) {
	source := spec.Source
	filename := spec.Filename
	if spec.Name != "" {
		url, ok := LookupDatabase(spec.Name)
		if !ok {
			return nil, "", fmt.Errorf("unknown database %q", spec.Name)
		}
		source = url
		if filename == "" {
			filename = spec.Name + ".sqlite"
		}
	}
	if filename == "" {
		return nil, "", fmt.Errorf("sqlite database spec needs a filename")
	}

	path := filepath.Join(cacheDir, cacheFileName(source, filename))
	if source != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			data, err := fetchSource(ctx, store, source)
			if err != nil {
				return nil, "", err
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return nil, "", fmt.Errorf("write database file: %w", err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, "", fmt.Errorf("open sqlite database: %w", err)
	}
	return db, path, nil
}

// cacheFileName keys the cached copy by its source, so two configs that
// reuse a filename for different sources never share one file.
func cacheFileName(source, filename string) string {
	base := filepath.Base(filename)
	if source == "" {
		return base
	}
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:6]) + "-" + base
}

func openPostgres(spec DatabaseSpec) (*gorm.DB, error) {
	params := make([]string, 0, len(spec.Connection))
	for key, value := range spec.Connection {
		params = append(params, fmt.Sprintf("%s=%s", key, value))
	}
	sort.Strings(params)

	db, err := gorm.Open(postgres.Open(strings.Join(params, " ")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	return db, nil
}
