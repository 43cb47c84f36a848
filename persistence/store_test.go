package persistence

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

// newTestStores opens every backend that runs without external services.
func newTestStores(t *testing.T) map[string]Store {
	t.Helper()
	stores := make(map[string]Store)

	badgerStore, err := NewBadgerStore()
	if err != nil {
		t.Fatalf("NewBadgerStore failed: %v", err)
	}
	stores["badger"] = badgerStore

	gormStore, err := NewGormSQLite(filepath.Join(t.TempDir(), "gorm.db"))
	if err != nil {
		t.Fatalf("NewGormSQLite failed: %v", err)
	}
	stores["gorm-sqlite"] = gormStore

	sqlStore, err := NewSQLite(filepath.Join(t.TempDir(), "sql.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	stores["sql-sqlite"] = sqlStore

	t.Cleanup(func() {
		for name, s := range stores {
			if err := s.Close(); err != nil {
				t.Errorf("%s: Close failed: %v", name, err)
			}
		}
	})
	return stores
}

func TestStore_GetAndGetOptional(t *testing.T) {
	ctx := context.Background()
	for name, s := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			key := NewKey(CollectionPoolDetails, "P1")
			if err := s.Put(ctx, key, []byte(`{"pool_id":"P1"}`)); err != nil {
				t.Fatalf("Put failed: %v", err)
			}

			got, err := s.Get(ctx, key)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if string(got) != `{"pool_id":"P1"}` {
				t.Errorf("Expected stored value, got %s", got)
			}

			// overwrite
			if err := s.Put(ctx, key, []byte(`{"pool_id":"P1","current_teams_count":2}`)); err != nil {
				t.Fatalf("Put overwrite failed: %v", err)
			}
			got, _ = s.Get(ctx, key)
			if string(got) != `{"pool_id":"P1","current_teams_count":2}` {
				t.Errorf("Expected overwritten value, got %s", got)
			}

			_, err = s.Get(ctx, NewKey(CollectionPoolDetails, "missing"))
			if !errors.Is(err, ErrRecordNotFound) {
				t.Errorf("Expected ErrRecordNotFound, got %v", err)
			}

			_, found, err := s.GetOptional(ctx, NewKey(CollectionPoolDetails, "missing"))
			if err != nil || found {
				t.Errorf("Expected absent without error, got found=%v err=%v", found, err)
			}
		})
	}
}

func TestStore_ListKeysOrderAndPrefix(t *testing.T) {
	ctx := context.Background()
	for name, s := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			keys := []Key{
				NewKey(CollectionPoolTeamDetails, "P2", "alice"),
				NewKey(CollectionPoolTeamDetails, "P10", "alice"),
				NewKey(CollectionPoolTeamDetails, "P1", "bob"),
				NewKey(CollectionPoolTeamDetails, "P1", "alice"),
				NewKey(CollectionPoolDetails, "P1"),
			}
			for _, k := range keys {
				if err := s.Put(ctx, k, []byte("[]")); err != nil {
					t.Fatalf("Put %s failed: %v", k, err)
				}
			}

			all, err := s.ListKeys(ctx, CollectionPoolTeamDetails)
			if err != nil {
				t.Fatalf("ListKeys failed: %v", err)
			}
			want := [][]string{{"P1", "alice"}, {"P1", "bob"}, {"P10", "alice"}, {"P2", "alice"}}
			if got := partsOf(all); !reflect.DeepEqual(got, want) {
				t.Errorf("Expected %v, got %v", want, got)
			}

			p1, err := s.ListKeys(ctx, CollectionPoolTeamDetails, "P1")
			if err != nil {
				t.Fatalf("ListKeys with prefix failed: %v", err)
			}
			want = [][]string{{"P1", "alice"}, {"P1", "bob"}}
			if got := partsOf(p1); !reflect.DeepEqual(got, want) {
				t.Errorf("Expected %v, got %v", want, got)
			}

			empty, err := s.ListKeys(ctx, CollectionSwapBalance)
			if err != nil {
				t.Fatalf("ListKeys on empty collection failed: %v", err)
			}
			if len(empty) != 0 {
				t.Errorf("Expected no keys, got %v", empty)
			}
		})
	}
}

func TestStore_View(t *testing.T) {
	ctx := context.Background()
	for name, s := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Put(ctx, NewKey(CollectionPoolDetails, "P1"), []byte("1")); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
			var count int
			err := s.View(ctx, func(r Reader) error {
				keys, err := r.ListKeys(ctx, CollectionPoolDetails)
				if err != nil {
					return err
				}
				for _, k := range keys {
					if _, err := r.Get(ctx, k); err != nil {
						return err
					}
					count++
				}
				return nil
			})
			if err != nil {
				t.Fatalf("View failed: %v", err)
			}
			if count != 1 {
				t.Errorf("Expected 1 key read in view, got %d", count)
			}

			sentinel := errors.New("stop")
			if err := s.View(ctx, func(r Reader) error { return sentinel }); !errors.Is(err, sentinel) {
				t.Errorf("Expected View to return callback error, got %v", err)
			}
		})
	}
}

func TestStore_RejectsInvalidKeys(t *testing.T) {
	ctx := context.Background()
	for name, s := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Put(ctx, NewKey(CollectionPoolDetails), []byte("x")); err == nil {
				t.Error("Expected error for key without parts")
			}
			if err := s.Put(ctx, NewKey(CollectionPoolDetails, "a\x00b"), []byte("x")); err == nil {
				t.Error("Expected error for key part containing NUL")
			}
		})
	}
}

func TestPrefixUpperBound(t *testing.T) {
	if got := prefixUpperBound([]byte("P1\x00")); string(got) != "P1\x01" {
		t.Errorf("Expected P1\\x01, got %q", got)
	}
	if got := prefixUpperBound([]byte{'a', 0xff}); string(got) != "b" {
		t.Errorf("Expected b, got %q", got)
	}
	if got := prefixUpperBound([]byte{0xff, 0xff}); got != nil {
		t.Errorf("Expected nil, got %q", got)
	}
}

func partsOf(keys []Key) [][]string {
	out := make([][]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.Parts)
	}
	return out
}
