// Package cache provides the per-run course cache. Identical course ids are
// resolved once per run; entries are never mutated after insertion, so the
// cache cannot change observable output, only the number of network calls.
//
// The cache lives and dies with one export run. Nothing is persisted between
// invocations.
package cache

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/edusync/canvas-export/pkg/canvas"
)

// Prometheus metrics for course cache operations.
var (
	courseCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "export_course_cache_hits_total",
		Help: "Course lookups served from the per-run cache",
	})

	courseCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "export_course_cache_misses_total",
		Help: "Course lookups that went to the network",
	})
)

// CourseCache maps course ids to immutable course records for one run.
type CourseCache struct {
	mu      sync.RWMutex
	courses map[int64]*canvas.Course
}

// NewCourseCache creates an empty per-run cache.
func NewCourseCache() *CourseCache {
	return &CourseCache{
		courses: make(map[int64]*canvas.Course),
	}
}

// Get returns a cached course, or nil when the id has not been seen.
func (c *CourseCache) Get(courseID int64) *canvas.Course {
	c.mu.RLock()
	course, ok := c.courses[courseID]
	c.mu.RUnlock()

	if !ok {
		courseCacheMisses.Inc()
		return nil
	}
	courseCacheHits.Inc()
	return course
}

// Put stores a course. The first insertion wins; entries are never replaced,
// keeping cached records immutable for the run.
func (c *CourseCache) Put(course *canvas.Course) {
	if course == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.courses[course.ID]; !ok {
		c.courses[course.ID] = course
	}
}

// Len returns the number of cached courses.
func (c *CourseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.courses)
}
