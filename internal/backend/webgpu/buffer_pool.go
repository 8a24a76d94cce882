package webgpu

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

// Buffers are bucketed by size so a small dispatch never claims a huge
// buffer. Each bucket holds at most maxPooledPerBucket buffers; overflow is
// released to the driver immediately.
const (
	smallBufferLimit   = 4 * 1024    // 4KB
	mediumBufferLimit  = 1024 * 1024 // 1MB
	maxPooledPerBucket = 64
)

type pooledBuffer struct {
	buffer *wgpu.Buffer
	size   uint64
	usage  wgpu.BufferUsage
}

// bufferPool reuses GPU buffers across dispatches. Result and staging buffers
// have fixed usage flags and short lifetimes, which makes them cheap to pool;
// upload buffers are created mapped and bypass the pool.
type bufferPool struct {
	device  *wgpu.Device
	buckets [3][]pooledBuffer
	mu      sync.Mutex

	hits   uint64
	misses uint64
}

func newBufferPool(device *wgpu.Device) *bufferPool {
	return &bufferPool{device: device}
}

func bucketFor(size uint64) int {
	switch {
	case size < smallBufferLimit:
		return 0
	case size < mediumBufferLimit:
		return 1
	default:
		return 2
	}
}

// acquire returns a pooled buffer of at least size bytes with the exact usage
// flags, or creates one.
func (p *bufferPool) acquire(size uint64, usage wgpu.BufferUsage) *wgpu.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()

	bucket := bucketFor(size)
	for i, pb := range p.buckets[bucket] {
		if pb.size >= size && pb.usage == usage {
			p.buckets[bucket] = append(p.buckets[bucket][:i], p.buckets[bucket][i+1:]...)
			p.hits++
			return pb.buffer
		}
	}

	p.misses++
	return p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: usage,
		Size:  size,
	})
}

// release returns a buffer to the pool, or frees it when the bucket is full.
func (p *bufferPool) release(buffer *wgpu.Buffer, size uint64, usage wgpu.BufferUsage) {
	p.mu.Lock()
	defer p.mu.Unlock()

	bucket := bucketFor(size)
	if len(p.buckets[bucket]) >= maxPooledPerBucket {
		buffer.Release()
		return
	}
	p.buckets[bucket] = append(p.buckets[bucket], pooledBuffer{buffer: buffer, size: size, usage: usage})
}

// clear frees every pooled buffer.
func (p *bufferPool) clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.buckets {
		for _, pb := range p.buckets[i] {
			pb.buffer.Release()
		}
		p.buckets[i] = nil
	}
}

func (p *bufferPool) stats() (hits, misses uint64, pooled int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.buckets {
		pooled += len(p.buckets[i])
	}
	return p.hits, p.misses, pooled
}
