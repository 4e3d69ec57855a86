package workqueue

import "sync"

// ConcurrencyStrategy controls how tasks are allowed to start concurrently.
// The strategy tracks running tasks and decides whether a new task may
// start given the current state.
type ConcurrencyStrategy interface {
	// CanStartProvider returns true if a provider-bound task can start.
	CanStartProvider() bool
	// CanStartData returns true if a data task can start.
	CanStartData() bool
	// OnStartProvider is called when a provider task starts.
	OnStartProvider()
	// OnStartData is called when a data task starts.
	OnStartData()
	// OnCompleteProvider is called when a provider task completes.
	OnCompleteProvider()
	// OnCompleteData is called when a data task completes.
	OnCompleteData()
}

// SerializedStrategy serializes both provider and data tasks: one of
// each at a time, though a provider task and a data task may overlap.
type SerializedStrategy struct {
	mu              sync.Mutex
	providerRunning bool
	dataRunning     bool
}

// NewSerializedStrategy creates a strategy that serializes provider
// tasks and serializes data tasks.
func NewSerializedStrategy() *SerializedStrategy {
	return &SerializedStrategy{}
}

func (s *SerializedStrategy) CanStartProvider() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.providerRunning
}

func (s *SerializedStrategy) CanStartData() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.dataRunning
}

func (s *SerializedStrategy) OnStartProvider() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providerRunning = true
}

func (s *SerializedStrategy) OnStartData() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataRunning = true
}

func (s *SerializedStrategy) OnCompleteProvider() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providerRunning = false
}

func (s *SerializedStrategy) OnCompleteData() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataRunning = false
}

// BoundedStrategy serializes provider tasks (external API rate budget is
// shared) while allowing up to maxData data tasks in parallel. This is
// the default for ingestion, where CSV batches fan out into many local
// upsert tasks.
type BoundedStrategy struct {
	mu              sync.Mutex
	maxData         int
	providerRunning bool
	dataRunning     int
}

// NewBoundedStrategy creates a strategy that serializes provider tasks
// and runs up to maxData data tasks in parallel.
func NewBoundedStrategy(maxData int) *BoundedStrategy {
	if maxData < 1 {
		maxData = 1
	}
	return &BoundedStrategy{maxData: maxData}
}

func (s *BoundedStrategy) CanStartProvider() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.providerRunning
}

func (s *BoundedStrategy) CanStartData() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dataRunning < s.maxData
}

func (s *BoundedStrategy) OnStartProvider() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providerRunning = true
}

func (s *BoundedStrategy) OnStartData() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataRunning++
}

func (s *BoundedStrategy) OnCompleteProvider() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providerRunning = false
}

func (s *BoundedStrategy) OnCompleteData() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dataRunning > 0 {
		s.dataRunning--
	}
}
