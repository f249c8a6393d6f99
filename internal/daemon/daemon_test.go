package daemon

import (
	"context"
	"testing"

	"github.com/netsecio/netsecd/internal/config"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Database.URL = "file::memory:?cache=shared"
	return &cfg
}

func TestSqliteDSN(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"sqlite:///var/lib/netsecd/netsec.db", "file:/var/lib/netsecd/netsec.db"},
		{"file::memory:?cache=shared", "file::memory:?cache=shared"},
	}
	for _, c := range cases {
		if got := sqliteDSN(c.in); got != c.want {
			t.Errorf("sqliteDSN(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNewWiresSubsystems(t *testing.T) {
	d, err := New(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.store.Close()

	if d.store == nil || d.pipeline == nil || d.active == nil || d.passive == nil || d.scheduler == nil || d.plugins == nil {
		t.Fatal("expected every subsystem to be wired")
	}
	if d.plugins.Count() != 0 {
		t.Errorf("plugins should register only on Run, got %d", d.plugins.Count())
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	d, err := New(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	d.Shutdown()
	d.Shutdown() // must not panic or block
}
