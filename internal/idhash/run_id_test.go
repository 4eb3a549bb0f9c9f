package idhash

import "testing"

func TestComputeRunID_Length(t *testing.T) {
	id := ComputeRunID([]string{"a", "b"}, 250, 1000, 50, 42, 1704067200000)
	if len(id) != 16 {
		t.Errorf("expected 16-char run_id, got %d: %s", len(id), id)
	}
}

func TestComputeRunID_OrderIndependent(t *testing.T) {
	a := ComputeRunID([]string{"t1", "t2", "t3"}, 250, 1000, 50, 42, 1)
	b := ComputeRunID([]string{"t3", "t1", "t2"}, 250, 1000, 50, 42, 1)
	if a != b {
		t.Errorf("trade order changed run_id: %s vs %s", a, b)
	}
}

func TestComputeRunID_DifferentInputs(t *testing.T) {
	base := ComputeRunID([]string{"t1"}, 250, 1000, 50, 42, 1)
	variants := []string{
		ComputeRunID([]string{"t2"}, 250, 1000, 50, 42, 1),
		ComputeRunID([]string{"t1"}, 100, 1000, 50, 42, 1),
		ComputeRunID([]string{"t1"}, 250, 999, 50, 42, 1),
		ComputeRunID([]string{"t1"}, 250, 1000, 51, 42, 1),
		ComputeRunID([]string{"t1"}, 250, 1000, 50, 43, 1),
		ComputeRunID([]string{"t1"}, 250, 1000, 50, 42, 2),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d produced the same run_id", i)
		}
	}
}
