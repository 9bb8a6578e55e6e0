package db

import (
	"strings"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
)

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"shop.db", "shop.db?_foreign_keys=on"},
		{"file:shop.db?cache=shared", "file:shop.db?cache=shared&_foreign_keys=on"},
		{"shop.db?_foreign_keys=off", "shop.db?_foreign_keys=off"},
		{"shop.db?_fk=1", "shop.db?_fk=1"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := SQLiteDSN(tt.path); got != tt.want {
				t.Errorf("SQLiteDSN(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestMySQLDSN(t *testing.T) {
	dsn, err := MySQLDSN("shop:secret@tcp(localhost:3306)/movieshop")
	if err != nil {
		t.Fatalf("MySQLDSN failed: %v", err)
	}
	if !strings.Contains(dsn, "parseTime=true") {
		t.Errorf("Expected parseTime=true in %q", dsn)
	}
	if !strings.Contains(dsn, "/movieshop") {
		t.Errorf("Expected database name in %q", dsn)
	}

	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("Generated DSN does not parse: %v", err)
	}
	if !strings.Contains(cfg.Params["sql_mode"], "STRICT_ALL_TABLES") {
		t.Errorf("Expected strict sql_mode, got %q", cfg.Params["sql_mode"])
	}
	if got := cfg.Params["time_zone"]; got != "'+00:00'" {
		t.Errorf("Expected UTC session time_zone, got %q", got)
	}
	if cfg.Loc != time.UTC {
		t.Errorf("Expected UTC location, got %v", cfg.Loc)
	}

	if _, err := MySQLDSN("localhost"); err == nil {
		t.Error("Expected error for DSN without database part")
	}
}

func TestMySQLDSNOverridesServerMode(t *testing.T) {
	dsn, err := MySQLDSN("shop:secret@tcp(localhost:3306)/movieshop?sql_mode=''&time_zone='SYSTEM'")
	if err != nil {
		t.Fatalf("MySQLDSN failed: %v", err)
	}

	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("Generated DSN does not parse: %v", err)
	}
	if cfg.Params["sql_mode"] != strictSQLMode {
		t.Errorf("Expected sql_mode %s, got %q", strictSQLMode, cfg.Params["sql_mode"])
	}
	if cfg.Params["time_zone"] != "'+00:00'" {
		t.Errorf("Expected time_zone '+00:00', got %q", cfg.Params["time_zone"])
	}
}

func TestParseDatabaseName(t *testing.T) {
	tests := []struct {
		name    string
		dsn     string
		want    string
		wantErr bool
	}{
		{"full DSN", "shop:secret@tcp(localhost:3306)/movieshop?charset=utf8mb4", "movieshop", false},
		{"minimal DSN", "/movieshop", "movieshop", false},
		{"no database", "shop:secret@tcp(localhost:3306)/", "", true},
		{"invalid", "localhost", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDatabaseName(tt.dsn)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDatabaseName() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDatabaseName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFilterRequested(t *testing.T) {
	existing := []string{"Cast", "Movie", "Review"}

	tests := []struct {
		name      string
		requested []string
		want      []string
	}{
		{"nothing requested", nil, existing},
		{"request order kept", []string{"Review", "Movie"}, []string{"Review", "Movie"}},
		{"missing tables dropped", []string{"Movie", "Ticket"}, []string{"Movie"}},
		{"nothing exists", []string{"Ticket"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterRequested(existing, tt.requested)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("filterRequested() = %v, want %v", got, tt.want)
			}
		})
	}
}
