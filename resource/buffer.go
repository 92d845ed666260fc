package resource

import (
	"errors"
	"fmt"

	"github.com/gogpu/g3d/backend"
	"github.com/gogpu/g3d/descriptor"
	"github.com/gogpu/g3d/diagnostics"
	"github.com/gogpu/g3d/handler"
	"github.com/gogpu/g3d/scene"
)

// DataBufferHandler allocates data buffers. It has no children.
type DataBufferHandler struct {
	*handler.Handler[*scene.DataBuffer, descriptor.DataBuffer]

	dev backend.Buffers
}

// NewDataBufferHandler creates a data buffer handler on dev.
func NewDataBufferHandler(dev backend.Buffers, obs diagnostics.Observer) *DataBufferHandler {
	h := &DataBufferHandler{dev: dev}
	h.Handler = handler.New(handler.Policy[*scene.DataBuffer, descriptor.DataBuffer]{
		Kind:     KindDataBuffer,
		Validate: notNil[scene.DataBuffer],
		Allocate: h.allocate,
		Free: func(_ *scene.DataBuffer, buf descriptor.DataBuffer) error {
			return h.dev.DeleteBuffer(buf)
		},
	}, handler.WithObserver(obs))
	return h
}

// allocate creates a buffer sized to b and uploads its content.
func (h *DataBufferHandler) allocate(b *scene.DataBuffer) (descriptor.DataBuffer, error) {
	buf, err := h.dev.CreateBuffer(b.Type, b.Len(), b.Stride())
	if err != nil {
		return descriptor.DataBuffer{}, err
	}
	if err := h.dev.WriteBuffer(buf, 0, b.Bytes()); err != nil {
		return descriptor.DataBuffer{}, errors.Join(err, h.dev.DeleteBuffer(buf))
	}
	return buf, nil
}

// Update uploads the whole content of a handled buffer. The buffer must
// still have the length it was allocated with.
func (h *DataBufferHandler) Update(b *scene.DataBuffer) error {
	buf, err := h.MustInternal(b)
	if err != nil {
		return err
	}
	if b.Len() != buf.Size() || b.Type != buf.Type() {
		return fmt.Errorf("%w: %v no longer matches %v", ErrRange, b, buf)
	}
	return h.dev.WriteBuffer(buf, 0, b.Bytes())
}

// UpdateRange uploads values [start, start+length) of a handled buffer.
func (h *DataBufferHandler) UpdateRange(b *scene.DataBuffer, start, length int) error {
	buf, err := h.MustInternal(b)
	if err != nil {
		return err
	}
	if start < 0 || length < 0 || start+length > buf.Size() {
		return fmt.Errorf("%w: [%d, %d) of %v", ErrRange, start, start+length, buf)
	}
	data, err := b.Range(start, length)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRange, err)
	}
	return h.dev.WriteBuffer(buf, start*buf.Type().Size(), data)
}
