package store

import (
	"errors"
	"net"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	bolt "go.etcd.io/bbolt"

	"github.com/leonardcser/prefs-cache/internal/prefs"
)

// testValueStore runs the behavior every prefs.ValueStore must share.
func testValueStore(t *testing.T, s prefs.ValueStore) {
	t.Helper()

	if _, ok, err := s.Get("missing"); err != nil || ok {
		t.Fatalf("Get(missing) = _, %v, %v; want false, nil", ok, err)
	}

	want := prefs.ObjectValue(map[string]any{"name": "Ana", "langs": []any{"pt", "en"}})
	if err := s.Set("user", want); err != nil {
		t.Fatalf("Set(user): %v", err)
	}
	if err := s.Set("count", prefs.IntValue(2)); err != nil {
		t.Fatalf("Set(count): %v", err)
	}
	if err := s.Set("count", prefs.IntValue(3)); err != nil {
		t.Fatalf("Set(count) overwrite: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got, ok, err := s.Get("user")
	if err != nil || !ok {
		t.Fatalf("Get(user) = _, %v, %v", ok, err)
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(prefs.Value{})); diff != "" {
		t.Errorf("Get(user) mismatch (-want +got):\n%s", diff)
	}
	if got, _, _ := s.Get("count"); got.String() != "int(3)" {
		t.Errorf("Get(count) = %v, want int(3)", got)
	}

	if ok, err := s.ContainsKey("count"); err != nil || !ok {
		t.Errorf("ContainsKey(count) = %v, %v; want true, nil", ok, err)
	}

	type opaque struct{}
	if err := s.Set("bad", prefs.ObjectValue(opaque{})); !errors.Is(err, prefs.ErrNotPlist) {
		t.Errorf("Set(non-plist) = %v, want ErrNotPlist", err)
	}
	if err := s.Set("", prefs.IntValue(1)); !errors.Is(err, prefs.ErrEmptyKey) {
		t.Errorf(`Set("") = %v, want ErrEmptyKey`, err)
	}

	if err := s.Remove("count"); err != nil {
		t.Fatalf("Remove(count): %v", err)
	}
	if err := s.Remove("count"); err != nil {
		t.Errorf("Remove(absent): %v", err)
	}
	if ok, _ := s.ContainsKey("count"); ok {
		t.Error("ContainsKey(count) after Remove = true")
	}

	if err := s.RemoveAll(); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	if ok, _ := s.ContainsKey("user"); ok {
		t.Error("ContainsKey(user) after RemoveAll = true")
	}
	// The store stays usable after RemoveAll.
	if err := s.Set("again", prefs.BoolValue(true)); err != nil {
		t.Errorf("Set after RemoveAll: %v", err)
	}
}

func TestBolt(t *testing.T) {
	s, err := OpenBolt(filepath.Join(t.TempDir(), "prefs.bbolt"), Options{Bucket: "app", DeferSync: true})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	testValueStore(t, s)
}

func TestBoltPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.bbolt")
	s, err := OpenBolt(path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set("k", prefs.DoubleValue(1.25)); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = OpenBolt(path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	v, ok, err := s.Get("k")
	if err != nil || !ok {
		t.Fatalf("Get after reopen = _, %v, %v", ok, err)
	}
	if d, _ := v.Double(); d != 1.25 {
		t.Errorf("Get after reopen = %v, want double(1.25)", v)
	}
}

func TestSQLite(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "prefs.sqlite"), "")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	testValueStore(t, s)
}

func TestSQLiteDomains(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.sqlite")
	a, err := OpenSQLite(path, "a")
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := OpenSQLite(path, "b")
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if err := a.Set("k", prefs.IntValue(1)); err != nil {
		t.Fatal(err)
	}
	if err := b.Set("k", prefs.IntValue(2)); err != nil {
		t.Fatal(err)
	}
	if err := a.RemoveAll(); err != nil {
		t.Fatal(err)
	}
	if ok, _ := a.ContainsKey("k"); ok {
		t.Error("domain a still holds k after RemoveAll")
	}
	if v, ok, _ := b.Get("k"); !ok || v.String() != "int(2)" {
		t.Errorf("domain b Get(k) = %v, %v; want int(2), true", v, ok)
	}
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	if _, err := OpenSQLite("  ", ""); err == nil {
		t.Error("OpenSQLite with blank path succeeded")
	}
}

func TestClient(t *testing.T) {
	backend, err := OpenBolt(filepath.Join(t.TempDir(), "prefs.bbolt"), Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer backend.Close()

	sock := filepath.Join(t.TempDir(), "p.sock")
	l, err := net.Listen("unix", sock)
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() { done <- Serve(l, backend) }()
	t.Cleanup(func() {
		l.Close()
		if err := <-done; err != nil {
			t.Errorf("Serve: %v", err)
		}
	})

	testValueStore(t, NewClient(sock))
}

func TestClientUnreachable(t *testing.T) {
	c := NewClient(filepath.Join(t.TempDir(), "nobody.sock"))
	if _, _, err := c.Get("k"); err == nil {
		t.Error("Get against missing socket succeeded")
	}
	if err := c.Flush(); err == nil {
		t.Error("Flush against missing socket succeeded")
	}
}

func TestHandleUnknownOp(t *testing.T) {
	resp := handle(nil, Request{Op: "explode"})
	if resp.OK || resp.Error == "" {
		t.Errorf("handle(unknown op) = %+v, want failure", resp)
	}
}

var garbage = []byte{0xff, 0x00, 0x13}

func TestCorruptRecord(t *testing.T) {
	bs, err := OpenBolt(filepath.Join(t.TempDir(), "prefs.bbolt"), Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer bs.Close()
	if err := bs.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bs.bucket).Put([]byte("k"), garbage)
	}); err != nil {
		t.Fatal(err)
	}

	ss, err := OpenSQLite(filepath.Join(t.TempDir(), "prefs.sqlite"), "")
	if err != nil {
		t.Fatal(err)
	}
	defer ss.Close()
	if _, err := ss.sqlDB.Exec(`INSERT INTO prefs (domain, key, value) VALUES (?, ?, ?)`, ss.domain, "k", garbage); err != nil {
		t.Fatal(err)
	}

	sock := filepath.Join(t.TempDir(), "p.sock")
	l, err := net.Listen("unix", sock)
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() { done <- Serve(l, bs) }()
	t.Cleanup(func() {
		l.Close()
		<-done
	})

	for name, s := range map[string]prefs.ValueStore{"bolt": bs, "sqlite": ss, "client": NewClient(sock)} {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := s.Get("k"); !errors.Is(err, prefs.ErrCorrupt) || ok {
				t.Errorf("Get(corrupt) = _, %v, %v; want false, ErrCorrupt", ok, err)
			}
			if ok, err := s.ContainsKey("k"); err != nil || !ok {
				t.Errorf("ContainsKey(corrupt) = %v, %v; want true, nil", ok, err)
			}
		})
	}
}

func TestInstrumented(t *testing.T) {
	backend, err := OpenBolt(filepath.Join(t.TempDir(), "prefs.bbolt"), Options{DeferSync: true})
	if err != nil {
		t.Fatal(err)
	}
	defer backend.Close()
	s := NewInstrumented(backend)

	testValueStore(t, s)

	m := s.Metrics()
	if m.Set.Count == 0 || m.Get.Count == 0 || m.Remove.Count == 0 || m.Flush.Count != 1 {
		t.Errorf("Metrics() = %+v, want every family counted and one flush", m)
	}
	if m.Set.AvgLatency <= 0 {
		t.Errorf("Metrics().Set.AvgLatency = %v, want > 0", m.Set.AvgLatency)
	}
}
