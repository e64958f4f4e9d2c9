// Package shm implements the fixed-size shared-memory channels that carry
// frames from the camera process to the detector process, and hand
// landmarks from the detector process to the corrector process.
package shm

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DefaultDir is where POSIX shared memory objects live on Linux. Peers that
// use shm_open("/name") see the same objects.
const DefaultDir = "/dev/shm"

var (
	// ErrChannelUnavailable is returned when a consumer opens a region that
	// has not been created.
	ErrChannelUnavailable = errors.New("channel unavailable")

	// ErrResolutionMismatch is returned when a region's size disagrees with
	// the configured layout.
	ErrResolutionMismatch = errors.New("channel resolution mismatch")

	// ErrChannelClosed is returned once the producer has signalled EXIT.
	ErrChannelClosed = errors.New("channel closed")

	// ErrFrameSize is returned when a frame does not match the channel's
	// dimensions.
	ErrFrameSize = errors.New("frame size does not match channel")
)

// Region is a named, memory-mapped byte region of fixed size.
type Region struct {
	name  string
	path  string
	data  []byte
	owner bool
}

// CreateRegion creates and maps a region of the given size. A region left
// behind by an unclean shutdown is unlinked and recreated.
func CreateRegion(dir, name string, size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid region size %d", size)
	}

	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0600)
	if errors.Is(err, fs.ErrExist) {
		log.Printf("Shared region %s already exists, cleaning up", name)
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("remove stale region %s: %w", name, err)
		}
		f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0600)
	}
	if err != nil {
		return nil, fmt.Errorf("create region %s: %w", name, err)
	}
	defer f.Close()

	if err := f.Truncate(int64(size)); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("size region %s: %w", name, err)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("map region %s: %w", name, err)
	}

	return &Region{name: name, path: path, data: data, owner: true}, nil
}

// OpenRegion maps an existing region. The region must be exactly size bytes.
func OpenRegion(dir, name string, size int) (*Region, error) {
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrChannelUnavailable, name)
	}
	if err != nil {
		return nil, fmt.Errorf("open region %s: %w", name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat region %s: %w", name, err)
	}
	if info.Size() != int64(size) {
		return nil, fmt.Errorf("%w: %s is %d bytes, expected %d", ErrResolutionMismatch, name, info.Size(), size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("map region %s: %w", name, err)
	}

	return &Region{name: name, path: path, data: data}, nil
}

// RemoveRegion unlinks a region by name. A missing region is not an error.
func RemoveRegion(dir, name string) error {
	err := os.Remove(filepath.Join(dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Name returns the region's name.
func (r *Region) Name() string {
	return r.name
}

// Size returns the mapped size in bytes.
func (r *Region) Size() int {
	return len(r.data)
}

// Owner reports whether this process created the region.
func (r *Region) Owner() bool {
	return r.owner
}

// Bytes exposes the mapped memory.
func (r *Region) Bytes() []byte {
	return r.data
}

// Close unmaps the region. The name stays linked.
func (r *Region) Close() error {
	if r.data == nil {
		return nil
	}
	err := unix.Munmap(r.data)
	r.data = nil
	return err
}

// Unlink removes the region's name so no new peer can open it.
func (r *Region) Unlink() error {
	err := os.Remove(r.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// word returns the 32-bit word at offset. Offsets must be multiples of four;
// mappings are page aligned.
func (r *Region) word(offset int) *uint32 {
	return (*uint32)(unsafe.Pointer(&r.data[offset]))
}

func (r *Region) load(offset int) uint32 {
	return atomic.LoadUint32(r.word(offset))
}

func (r *Region) store(offset int, v uint32) {
	atomic.StoreUint32(r.word(offset), v)
}

func (r *Region) cas(offset int, old, new uint32) bool {
	return atomic.CompareAndSwapUint32(r.word(offset), old, new)
}
