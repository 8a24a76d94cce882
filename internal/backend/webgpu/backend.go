// Package webgpu implements a GPU backend on WebGPU compute shaders, using
// go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO bindings. Only float32
// tensors are supported; every kernel writes one output element per shader
// invocation.
package webgpu

import (
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/go-webgpu/webgpu/wgpu"
	"k8s.io/klog/v2"

	"github.com/lamina-ml/lamina/internal/tensor"
)

// Verify that Backend implements the Backend interface.
var _ tensor.Backend = (*Backend)(nil)

// Backend computes tensor operations on the GPU through WebGPU.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// Compiled shader and pipeline caches, keyed by shader name.
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
	mu        sync.RWMutex

	adapterInfo *wgpu.AdapterInfoGo

	// Pool of result and staging buffers, reused across dispatches.
	pool *bufferPool

	memoryStats struct {
		allocatedBytes uint64
		peakBytes      uint64
		activeBuffers  int64
		mu             sync.Mutex
	}
}

// New creates a WebGPU backend. Returns an error when WebGPU is not available
// or initialization fails.
func New() (backend *Backend, err error) {
	// Recover from panic if the wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			backend = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance, instanceErr := wgpu.CreateInstance(nil)
	if instanceErr != nil {
		return nil, fmt.Errorf("webgpu: failed to create instance: %w", instanceErr)
	}
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w", adapterErr)
	}

	adapterInfo, infoErr := adapter.GetInfo()
	if infoErr == nil {
		klog.V(1).Infof("webgpu: using adapter %s (%s)", adapterInfo.Device, adapterInfo.Vendor)
	}

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request device: %w", deviceErr)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to get queue")
	}

	return &Backend{
		instance:    instance,
		adapter:     adapter,
		device:      device,
		queue:       queue,
		shaders:     make(map[string]*wgpu.ShaderModule),
		pipelines:   make(map[string]*wgpu.ComputePipeline),
		adapterInfo: adapterInfo,
		pool:        newBufferPool(device),
	}, nil
}

// Release frees all WebGPU resources. The backend must not be used after.
func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pool != nil {
		b.pool.clear()
		b.pool = nil
	}
	for _, p := range b.pipelines {
		p.Release()
	}
	b.pipelines = nil
	for _, s := range b.shaders {
		s.Release()
	}
	b.shaders = nil

	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// Name returns the backend name, including the adapter when known.
func (b *Backend) Name() string {
	if b.adapterInfo != nil {
		return fmt.Sprintf("webgpu (%s %s)", b.adapterInfo.Device, b.adapterInfo.Vendor)
	}
	return "webgpu"
}

// Device returns the compute device.
func (b *Backend) Device() tensor.Device {
	return tensor.WebGPU
}

// AdapterInfo returns information about the GPU adapter.
func (b *Backend) AdapterInfo() *wgpu.AdapterInfoGo {
	return b.adapterInfo
}

// IsAvailable reports whether WebGPU can be initialized on this system.
func IsAvailable() (available bool) {
	// Recover from panic if the wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance, err := wgpu.CreateInstance(nil)
	if err != nil {
		return false
	}
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()
	return true
}

// MemoryStats is a snapshot of GPU memory usage.
type MemoryStats struct {
	AllocatedBytes uint64
	PeakBytes      uint64
	ActiveBuffers  int64
	PoolHits       uint64
	PoolMisses     uint64
	PooledBuffers  int
}

// String formats the snapshot for logs.
func (s MemoryStats) String() string {
	return fmt.Sprintf("allocated=%s peak=%s active=%d pool_hits=%d pool_misses=%d pooled=%d",
		humanize.Bytes(s.AllocatedBytes), humanize.Bytes(s.PeakBytes),
		s.ActiveBuffers, s.PoolHits, s.PoolMisses, s.PooledBuffers)
}

// MemoryStats returns current GPU memory usage statistics.
func (b *Backend) MemoryStats() MemoryStats {
	b.memoryStats.mu.Lock()
	stats := MemoryStats{
		AllocatedBytes: b.memoryStats.allocatedBytes,
		PeakBytes:      b.memoryStats.peakBytes,
		ActiveBuffers:  b.memoryStats.activeBuffers,
	}
	b.memoryStats.mu.Unlock()

	hits, misses, pooled := b.pool.stats()
	stats.PoolHits = hits
	stats.PoolMisses = misses
	stats.PooledBuffers = pooled
	return stats
}

func (b *Backend) trackAllocation(size uint64) {
	b.memoryStats.mu.Lock()
	defer b.memoryStats.mu.Unlock()

	b.memoryStats.allocatedBytes += size
	b.memoryStats.activeBuffers++
	if b.memoryStats.allocatedBytes > b.memoryStats.peakBytes {
		b.memoryStats.peakBytes = b.memoryStats.allocatedBytes
	}
}

func (b *Backend) trackRelease(size uint64) {
	b.memoryStats.mu.Lock()
	defer b.memoryStats.mu.Unlock()

	if b.memoryStats.allocatedBytes >= size {
		b.memoryStats.allocatedBytes -= size
	}
	b.memoryStats.activeBuffers--
}
