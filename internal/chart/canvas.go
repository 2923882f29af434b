package chart

import "sync"

// Chart is one instance bound to a Canvas. It is inert once destroyed.
type Chart struct {
	id        uint64
	config    Config
	mu        sync.Mutex
	destroyed bool
}

func (c *Chart) ID() uint64 { return c.id }

func (c *Chart) Config() Config { return c.config }

func (c *Chart) Destroy() {
	c.mu.Lock()
	c.destroyed = true
	c.mu.Unlock()
}

func (c *Chart) Destroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}

// Canvas is the drawing surface. It holds at most one live chart.
type Canvas struct {
	mu      sync.Mutex
	current *Chart
	nextID  uint64
}

func NewCanvas() *Canvas {
	return &Canvas{}
}

// Draw destroys the chart currently bound to the canvas, then binds a new one built from cfg.
func (cv *Canvas) Draw(cfg Config) *Chart {
	cv.mu.Lock()
	defer cv.mu.Unlock()

	if cv.current != nil {
		cv.current.Destroy()
	}
	cv.nextID++
	cv.current = &Chart{id: cv.nextID, config: cfg}
	return cv.current
}

// Current returns the live chart, or nil before the first Draw.
func (cv *Canvas) Current() *Chart {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	return cv.current
}

// Created reports how many charts this canvas has built.
func (cv *Canvas) Created() uint64 {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	return cv.nextID
}
