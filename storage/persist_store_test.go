package storage

import (
	"testing"
)

func TestPersistenceStore_BasicOperations(t *testing.T) {
	// Create in-memory store
	ps, err := NewMemoryPersistenceStore()
	if err != nil {
		t.Fatalf("Failed to create memory store: %v", err)
	}
	defer ps.Close()

	key := []byte("test-key")
	value := []byte("test-value")

	if err := ps.Put(key, value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, found, err := ps.Get(key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found {
		t.Fatal("Expected key to be found")
	}
	if string(got) != string(value) {
		t.Errorf("Get returned %q, want %q", got, value)
	}

	_, found, err = ps.Get([]byte("non-existent"))
	if err != nil {
		t.Fatalf("Get non-existent failed: %v", err)
	}
	if found {
		t.Error("Expected key not to be found")
	}

	if err := ps.Delete(key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	_, found, err = ps.Get(key)
	if err != nil {
		t.Fatalf("Get after delete failed: %v", err)
	}
	if found {
		t.Error("Expected key to be deleted")
	}
}

func TestPersistenceStore_PrefixOperations(t *testing.T) {
	ps, err := NewMemoryPersistenceStore()
	if err != nil {
		t.Fatalf("Failed to create memory store: %v", err)
	}
	defer ps.Close()

	for _, k := range []string{"a/2", "a/1", "b/1", "a/3"} {
		if err := ps.Put([]byte(k), []byte(k)); err != nil {
			t.Fatalf("Put %s failed: %v", k, err)
		}
	}

	kvs, err := ps.GetWithPrefix([]byte("a/"))
	if err != nil {
		t.Fatalf("GetWithPrefix failed: %v", err)
	}
	if len(kvs) != 3 {
		t.Fatalf("GetWithPrefix returned %d pairs, want 3", len(kvs))
	}
	if string(kvs[0][0]) != "a/1" || string(kvs[2][0]) != "a/3" {
		t.Errorf("GetWithPrefix not sorted: %q .. %q", kvs[0][0], kvs[2][0])
	}

	n, err := ps.DeleteWithPrefix([]byte("a/"))
	if err != nil {
		t.Fatalf("DeleteWithPrefix failed: %v", err)
	}
	if n != 3 {
		t.Errorf("DeleteWithPrefix removed %d keys, want 3", n)
	}
	if _, found, _ := ps.Get([]byte("b/1")); !found {
		t.Error("Expected b/1 to survive")
	}
}
