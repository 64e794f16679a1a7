package scene

import "context"

// Surface 장면을 실제로 그리는 드로잉 표면
//
// The manager owns the surface exclusively. Implementations need not be
// goroutine-safe except for LoadFromJSON, which the manager may abandon on
// timeout while it keeps running; it must therefore only parse and never
// mutate the surface. The manager installs the returned scene itself.
type Surface interface {
	Add(d Drawable) error
	Remove(index int) error
	Clear()
	SetBackground(color string)
	Render() error
	LoadFromJSON(ctx context.Context, data []byte) (*Scene, error)
	ToDataURL(format string) (string, error)
	Dispose() error
}
