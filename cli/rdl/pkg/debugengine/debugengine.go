// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package debugengine contains the identifiers of the debug engines a launch can target, and the marshalled engine
// list handed to a debug launch service.
package debugengine

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	// ManagedAndNative is the engine that supports mixed managed and native debugging. It is the default engine for a
	// remote launch.
	ManagedAndNative = uuid.MustParse("92EF0900-2251-11D2-B72E-0000F87572EF")
	// NativeOnly is the native (C/C++) debug engine.
	NativeOnly = uuid.MustParse("3B476D35-A401-11D2-AAD4-00C04F990171")
	// ManagedOnly is the managed (CLR) debug engine.
	ManagedOnly = uuid.MustParse("449EC4CC-30D2-4032-9256-EE18EB41B62B")
)

// Names of the well-known engines, as accepted by Parse.
const (
	ManagedAndNativeName = "managedAndNative"
	NativeOnlyName       = "native"
	ManagedOnlyName      = "managed"
)

var engineNames = []struct {
	name string
	id   uuid.UUID
}{
	{ManagedAndNativeName, ManagedAndNative},
	{NativeOnlyName, NativeOnly},
	{ManagedOnlyName, ManagedOnly},
}

// Parse returns the id of the engine named s. s is one of the well-known engine names, compared without regard to
// case, or an engine GUID.
func Parse(s string) (uuid.UUID, error) {
	for _, engine := range engineNames {
		if strings.EqualFold(s, engine.name) {
			return engine.id, nil
		}
	}

	if id, err := uuid.Parse(s); err == nil {
		return id, nil
	}

	return uuid.Nil, fmt.Errorf(
		"unknown debug engine '%s', expected %s, %s, %s or an engine id",
		s, ManagedAndNativeName, NativeOnlyName, ManagedOnlyName)
}

// guidSize is the size, in bytes, of a single engine id in the marshalled list.
const guidSize = 16

// Allocator marshals engine ids into a buffer that is owned by the caller until the returned release function is
// called. The release function must be called exactly once on every path, including error paths.
type Allocator interface {
	Acquire(ids ...uuid.UUID) (List, func())
}

// List is a marshalled list of engine ids. The list is only valid until its release function is called.
type List struct {
	block *block
}

type block struct {
	mu       sync.Mutex
	data     []byte
	count    int
	released bool
}

// Count returns the number of engines in the list. A released list has no engines.
func (l List) Count() int {
	if l.block == nil {
		return 0
	}

	l.block.mu.Lock()
	defer l.block.mu.Unlock()

	if l.block.released {
		return 0
	}

	return l.block.count
}

// IDs decodes the engine ids stored in the list.
func (l List) IDs() []uuid.UUID {
	if l.block == nil {
		return nil
	}

	l.block.mu.Lock()
	defer l.block.mu.Unlock()

	if l.block.released {
		return nil
	}

	ids := make([]uuid.UUID, l.block.count)
	for i := range ids {
		ids[i] = decode(l.block.data[i*guidSize : (i+1)*guidSize])
	}

	return ids
}

// Bytes returns a copy of the marshalled engine ids, in the in-memory layout of a COM GUID.
func (l List) Bytes() []byte {
	if l.block == nil {
		return nil
	}

	l.block.mu.Lock()
	defer l.block.mu.Unlock()

	if l.block.released {
		return nil
	}

	return append([]byte(nil), l.block.data[:l.block.count*guidSize]...)
}

// MarshalJSON implements json.Marshaler. The list is written as an array of GUID strings.
func (l List) MarshalJSON() ([]byte, error) {
	ids := l.IDs()
	if ids == nil {
		ids = []uuid.UUID{}
	}

	return json.Marshal(ids)
}

// NewAllocator creates an Allocator that reuses buffers across acquisitions.
func NewAllocator() Allocator {
	return &poolAllocator{
		pool: sync.Pool{
			New: func() any {
				b := make([]byte, 0, guidSize)
				return &b
			},
		},
	}
}

type poolAllocator struct {
	pool sync.Pool
}

func (a *poolAllocator) Acquire(ids ...uuid.UUID) (List, func()) {
	buf := a.pool.Get().(*[]byte)
	data := (*buf)[:0]
	for _, id := range ids {
		data = append(data, encode(id)...)
	}
	*buf = data

	b := &block{
		data:  data,
		count: len(ids),
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			b.mu.Lock()
			b.released = true
			b.data = nil
			b.mu.Unlock()

			clear(*buf)
			a.pool.Put(buf)
		})
	}

	return List{block: b}, release
}

// encode writes id using the mixed-endian layout of a COM GUID: the first three groups are little endian and the
// final eight bytes are stored as-is.
func encode(id uuid.UUID) []byte {
	b := make([]byte, guidSize)
	binary.LittleEndian.PutUint32(b[0:4], binary.BigEndian.Uint32(id[0:4]))
	binary.LittleEndian.PutUint16(b[4:6], binary.BigEndian.Uint16(id[4:6]))
	binary.LittleEndian.PutUint16(b[6:8], binary.BigEndian.Uint16(id[6:8]))
	copy(b[8:], id[8:])
	return b
}

func decode(b []byte) uuid.UUID {
	var id uuid.UUID
	binary.BigEndian.PutUint32(id[0:4], binary.LittleEndian.Uint32(b[0:4]))
	binary.BigEndian.PutUint16(id[4:6], binary.LittleEndian.Uint16(b[4:6]))
	binary.BigEndian.PutUint16(id[6:8], binary.LittleEndian.Uint16(b[6:8]))
	copy(id[8:], b[8:guidSize])
	return id
}
