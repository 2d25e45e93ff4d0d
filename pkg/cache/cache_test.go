package cache

import (
	"testing"

	"github.com/edusync/canvas-export/pkg/canvas"
)

func TestCourseCache_GetMiss(t *testing.T) {
	c := NewCourseCache()
	if got := c.Get(101); got != nil {
		t.Errorf("Get() = %v, want nil on miss", got)
	}
}

func TestCourseCache_PutGet(t *testing.T) {
	c := NewCourseCache()
	c.Put(&canvas.Course{ID: 101, Name: "Course A"})

	got := c.Get(101)
	if got == nil || got.Name != "Course A" {
		t.Fatalf("Get() = %v, want Course A", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestCourseCache_FirstInsertWins(t *testing.T) {
	c := NewCourseCache()
	c.Put(&canvas.Course{ID: 101, Name: "Course A"})
	c.Put(&canvas.Course{ID: 101, Name: "Renamed"})

	if got := c.Get(101); got.Name != "Course A" {
		t.Errorf("entry was replaced: %q", got.Name)
	}
}

func TestCourseCache_NilPutIgnored(t *testing.T) {
	c := NewCourseCache()
	c.Put(nil)
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}
