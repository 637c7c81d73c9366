package job

import "testing"

func TestAddGetRemove(t *testing.T) {
	tbl := New()
	j, err := tbl.Add(100, 100, []int{100, 101}, "echo a | wc -l", true)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if j.ID != 1 {
		t.Fatalf("first job id = %d, want 1", j.ID)
	}
	if got := tbl.Get(1); got != j {
		t.Fatalf("Get(1) = %v, want %v", got, j)
	}

	tbl.Remove(1)
	if got := tbl.Get(1); got != nil {
		t.Fatalf("Get(1) after Remove = %v, want nil", got)
	}
}

func TestAddReusesLowestFreeSlot(t *testing.T) {
	tbl := New()
	j1, _ := tbl.Add(1, 1, []int{1}, "a", true)
	j2, _ := tbl.Add(2, 2, []int{2}, "b", true)
	if j1.ID != 1 || j2.ID != 2 {
		t.Fatalf("ids = %d, %d, want 1, 2", j1.ID, j2.ID)
	}
	tbl.Remove(j1.ID)
	j3, _ := tbl.Add(3, 3, []int{3}, "c", true)
	if j3.ID != 1 {
		t.Fatalf("new job should reuse freed slot 1, got %d", j3.ID)
	}
}

func TestAddTableFull(t *testing.T) {
	tbl := New()
	for i := 0; i < MaxJobs; i++ {
		if _, err := tbl.Add(i+1, i+1, []int{i + 1}, "x", true); err != nil {
			t.Fatalf("Add #%d: %v", i, err)
		}
	}
	if _, err := tbl.Add(999, 999, []int{999}, "overflow", true); err == nil {
		t.Fatalf("expected an error once the table is full")
	}
}

func TestAll(t *testing.T) {
	tbl := New()
	tbl.Add(1, 1, []int{1}, "a", true)
	tbl.Add(2, 2, []int{2}, "b", true)
	all := tbl.All()
	if len(all) != 2 {
		t.Fatalf("All() = %d jobs, want 2", len(all))
	}
	if all[0].ID != 1 || all[1].ID != 2 {
		t.Fatalf("All() not sorted by id: %+v", all)
	}
}

func TestByPID(t *testing.T) {
	tbl := New()
	j, _ := tbl.Add(10, 10, []int{10, 11, 12}, "p1 | p2 | p3", true)
	if got := tbl.ByPID(11); got != j {
		t.Fatalf("ByPID(11) = %v, want %v", got, j)
	}
	if got := tbl.ByPID(999); got != nil {
		t.Fatalf("ByPID(999) = %v, want nil", got)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{Running, "Running"},
		{Stopped, "Stopped"},
		{Done, "Done"},
		{State(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
