// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/g3d/backend/budget"
	"github.com/gogpu/g3d/descriptor"
)

const kindBuffer = "buffer"

// gpuBuffer is a data buffer usable as vertex or index input. The host
// copy lets unaligned writes be widened to the 4-byte copy alignment.
type gpuBuffer struct {
	desc   descriptor.DataBuffer
	buf    hal.Buffer
	shadow []byte
}

// alignedSize rounds n up to the 4-byte copy alignment, with a minimum of 4.
func alignedSize(n int) uint64 {
	if n < 4 {
		return 4
	}
	return uint64((n + 3) &^ 3) //nolint:gosec // n is positive
}

// CreateBuffer implements backend.Buffers.
func (d *Device) CreateBuffer(typ descriptor.ElementType, size, stride int) (descriptor.DataBuffer, error) {
	if err := d.check(); err != nil {
		return descriptor.DataBuffer{}, err
	}
	if !typ.Valid() {
		return descriptor.DataBuffer{}, invalid("element type %v", typ)
	}
	id := d.newID()
	desc, err := descriptor.NewDataBuffer(descriptor.BufferID(id), typ, size, 0, stride)
	if err != nil {
		return descriptor.DataBuffer{}, invalid("%v", err)
	}
	n := alignedSize(desc.ByteSize())
	key := budget.Key(kindBuffer, id)
	if err := d.budget.Reserve(key, n); err != nil {
		return descriptor.DataBuffer{}, err
	}
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: fmt.Sprintf("g3d_buffer_%d", id),
		Size:  n,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		d.budget.Return(key)
		return descriptor.DataBuffer{}, halError("create buffer", err)
	}
	d.buffers[desc.ID()] = &gpuBuffer{desc: desc, buf: buf, shadow: make([]byte, n)}
	d.logger.Debug("wgpu: buffer created", "id", id, "bytes", n)
	return desc, nil
}

// WriteBuffer implements backend.Buffers.
func (d *Device) WriteBuffer(buf descriptor.DataBuffer, offset int, data []byte) error {
	if err := d.check(); err != nil {
		return err
	}
	b, ok := d.buffers[buf.ID()]
	if !ok {
		return invalid("unknown buffer %d", buf.ID())
	}
	if offset < 0 || offset+len(data) > b.desc.ByteSize() {
		return invalid("write [%d, %d) outside buffer of %d bytes", offset, offset+len(data), b.desc.ByteSize())
	}
	if len(data) == 0 {
		return nil
	}
	copy(b.shadow[offset:], data)
	// queue writes must be 4-byte aligned in offset and size
	start := offset &^ 3
	end := (offset + len(data) + 3) &^ 3
	if err := d.queue.WriteBuffer(b.buf, uint64(start), b.shadow[start:end]); err != nil { //nolint:gosec // offset validated
		return fmt.Errorf("write buffer: %w", err)
	}
	return nil
}

// DeleteBuffer implements backend.Buffers.
func (d *Device) DeleteBuffer(buf descriptor.DataBuffer) error {
	if err := d.check(); err != nil {
		return err
	}
	b, ok := d.buffers[buf.ID()]
	if !ok {
		return invalid("unknown buffer %d", buf.ID())
	}
	d.destroyBuffer(b)
	return nil
}

func (d *Device) destroyBuffer(b *gpuBuffer) {
	d.device.DestroyBuffer(b.buf)
	d.budget.Return(budget.Key(kindBuffer, uint64(b.desc.ID())))
	delete(d.buffers, b.desc.ID())
}
