package frame

import (
	"github.com/Faultbox/iblviewer/internal/engine/gpu"
	"github.com/Faultbox/iblviewer/internal/engine/resource"
)

type pendingWrite struct {
	buf  gpu.Buffer
	data resource.Layout
}

// writeBatch collects constant buffer writes for one frame and submits
// each distinct buffer once. A later write to the same buffer replaces the
// earlier one but keeps its position.
type writeBatch struct {
	writes []pendingWrite
	index  map[gpu.Buffer]int
}

func (w *writeBatch) queue(b gpu.Buffer, data resource.Layout) {
	if b == nil {
		// Kept so the uploader logs the skip.
		w.writes = append(w.writes, pendingWrite{data: data})
		return
	}
	if w.index == nil {
		w.index = make(map[gpu.Buffer]int)
	}
	if i, ok := w.index[b]; ok {
		w.writes[i].data = data
		return
	}
	w.index[b] = len(w.writes)
	w.writes = append(w.writes, pendingWrite{buf: b, data: data})
}

// flush submits the queued writes and returns how many failed.
func (w *writeBatch) flush(up *resource.Uploader) int {
	failed := 0
	for _, pw := range w.writes {
		if err := up.UpdateConstantBuffer(pw.buf, pw.data); err != nil {
			failed++
		}
	}
	w.writes = w.writes[:0]
	clear(w.index)
	return failed
}
