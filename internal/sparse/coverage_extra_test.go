package sparse

import "testing"

func TestSetRemoveLastElement(t *testing.T) {
	s := NewSet(10)
	s.Insert(5)

	s.Remove(5)
	if s.Len() != 0 {
		t.Errorf("expected empty set after removing last element, got %d", s.Len())
	}
	if s.Contains(5) {
		t.Error("5 should not be in set after removal")
	}
}

func TestSetRemoveMiddleElement(t *testing.T) {
	s := NewSet(10)
	s.Insert(1)
	s.Insert(2)
	s.Insert(3)

	s.Remove(1)
	if s.Contains(1) {
		t.Error("1 should not be in set after removal")
	}
	if !s.Contains(2) {
		t.Error("2 should still be in set")
	}
	if !s.Contains(3) {
		t.Error("3 should still be in set")
	}
	if s.Len() != 2 {
		t.Errorf("expected Len=2, got %d", s.Len())
	}
}

func TestSetReinsertAfterRemove(t *testing.T) {
	s := NewSet(10)
	s.Insert(4)
	s.Remove(4)
	if !s.Insert(4) {
		t.Error("re-inserting a removed value should report it as newly added")
	}
	if s.Len() != 1 {
		t.Errorf("expected Len=1, got %d", s.Len())
	}
}
