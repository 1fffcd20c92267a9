package detection

import "sync"

const (
	// stackBufferSize is the largest working buffer taken from the stack.
	stackBufferSize = 1024
	// maxSQLAnalysisLength caps the prefix of a payload the SQL engine reads.
	maxSQLAnalysisLength = 4096
	// maxXSSPayloadLength is the largest payload the XSS engine canonicalizes.
	maxXSSPayloadLength = 8192
)

// bufferPool leases working buffers for payloads that exceed the stack
// buffer. Every buffer has room for the largest payload any engine accepts.
var bufferPool = sync.Pool{
	New: func() any {
		b := make([]byte, maxXSSPayloadLength)
		return &b
	},
}

func leaseBuffer(n int) *[]byte {
	b := bufferPool.Get().(*[]byte)
	if cap(*b) < n {
		*b = make([]byte, n)
	}
	*b = (*b)[:n]
	return b
}

func releaseBuffer(b *[]byte) {
	*b = (*b)[:cap(*b)]
	bufferPool.Put(b)
}
