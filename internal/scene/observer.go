package scene

import (
	"log"
	"sync"
)

// LoadPath 장면을 불러온 경로
type LoadPath string

const (
	LoadPathBulk   LoadPath = "bulk"
	LoadPathManual LoadPath = "manual"
)

// Observer 직렬화/역직렬화 관측 훅
//
// Implementations must not panic; they are called inline from the decode loop.
type Observer interface {
	ObjectLoaded(index int, kind Kind)
	ObjectFailed(w ReconstructionWarning)
	UnknownField(index int, kind Kind, key string)
	LoadFinished(path LoadPath, success, fail int)
}

// NopObserver 아무것도 하지 않는 기본 Observer
type NopObserver struct{}

func (NopObserver) ObjectLoaded(int, Kind)             {}
func (NopObserver) ObjectFailed(ReconstructionWarning) {}
func (NopObserver) UnknownField(int, Kind, string)     {}
func (NopObserver) LoadFinished(LoadPath, int, int)    {}

// LogObserver 표준 log 패키지로 기록하는 Observer
type LogObserver struct {
	// Verbose logs every loaded object and every unmodelled field.
	Verbose bool
}

func (o LogObserver) ObjectLoaded(index int, kind Kind) {
	if o.Verbose {
		log.Printf("[Scene] object %d loaded as %s", index, kind)
	}
}

func (o LogObserver) ObjectFailed(w ReconstructionWarning) {
	log.Printf("[Scene] ⚠️ %v", w)
}

func (o LogObserver) UnknownField(index int, kind Kind, key string) {
	if o.Verbose {
		log.Printf("[Scene] object %d (%s): ignoring field %q", index, kind, key)
	}
}

func (o LogObserver) LoadFinished(path LoadPath, success, fail int) {
	log.Printf("[Scene] load finished via %s path: %d success, %d failed", path, success, fail)
}

// Counter 이벤트 수를 누적하는 Observer (테스트/메트릭용)
type Counter struct {
	mu       sync.Mutex
	Loaded   int
	Failed   int
	Unknown  map[string]int
	Finished []LoadPath
}

func (c *Counter) ObjectLoaded(int, Kind) {
	c.mu.Lock()
	c.Loaded++
	c.mu.Unlock()
}

func (c *Counter) ObjectFailed(ReconstructionWarning) {
	c.mu.Lock()
	c.Failed++
	c.mu.Unlock()
}

func (c *Counter) UnknownField(_ int, _ Kind, key string) {
	c.mu.Lock()
	if c.Unknown == nil {
		c.Unknown = make(map[string]int)
	}
	c.Unknown[key]++
	c.mu.Unlock()
}

func (c *Counter) LoadFinished(path LoadPath, _, _ int) {
	c.mu.Lock()
	c.Finished = append(c.Finished, path)
	c.mu.Unlock()
}

// Multi 여러 Observer에 이벤트를 전달
type Multi []Observer

func (m Multi) ObjectLoaded(index int, kind Kind) {
	for _, o := range m {
		o.ObjectLoaded(index, kind)
	}
}

func (m Multi) ObjectFailed(w ReconstructionWarning) {
	for _, o := range m {
		o.ObjectFailed(w)
	}
}

func (m Multi) UnknownField(index int, kind Kind, key string) {
	for _, o := range m {
		o.UnknownField(index, kind, key)
	}
}

func (m Multi) LoadFinished(path LoadPath, success, fail int) {
	for _, o := range m {
		o.LoadFinished(path, success, fail)
	}
}
