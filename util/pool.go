package util

import "sync"

// DefaultBufSize is the read chunk size used when draining a shell
// connection (32 KiB).
const DefaultBufSize = 32 * 1024

// BufPool provides reusable read buffers.  Every drained command
// response borrows one, so a long interactive session does not
// allocate a fresh chunk per poll.
var BufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, DefaultBufSize)
		return &buf
	},
}

// GetBuf retrieves a buffer from the pool.  Callers must return it
// with [PutBuf] when finished.
func GetBuf() *[]byte {
	return BufPool.Get().(*[]byte)
}

// PutBuf returns a buffer to the pool for reuse.
func PutBuf(buf *[]byte) {
	if buf == nil {
		return
	}
	BufPool.Put(buf)
}
