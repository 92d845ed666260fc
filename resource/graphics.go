package resource

import (
	"fmt"

	"github.com/gogpu/g3d/backend"
	"github.com/gogpu/g3d/descriptor"
	"github.com/gogpu/g3d/diagnostics"
	"github.com/gogpu/g3d/handler"
	"github.com/gogpu/g3d/scene"
)

// GraphicsObjectHandler allocates vertex arrays. Its children are the index
// buffer, if any, and the buffers of the floating point attributes.
//
// Attributes of other element types are not supported: they are skipped,
// reported to the observer once per allocation, and left out of the vertex
// array.
type GraphicsObjectHandler struct {
	*handler.Handler[*scene.GraphicsObject, descriptor.GraphicsObject]

	dev     backend.VertexArrays
	buffers *DataBufferHandler
}

// NewGraphicsObjectHandler creates a graphics object handler on dev whose
// buffers are managed by buffers.
func NewGraphicsObjectHandler(dev backend.VertexArrays, buffers *DataBufferHandler, obs diagnostics.Observer) *GraphicsObjectHandler {
	h := &GraphicsObjectHandler{dev: dev, buffers: buffers}
	h.Handler = handler.New(handler.Policy[*scene.GraphicsObject, descriptor.GraphicsObject]{
		Kind:     KindGraphicsObject,
		Validate: notNil[scene.GraphicsObject],
		Children: h.children,
		Allocate: h.allocate,
		Free: func(_ *scene.GraphicsObject, g descriptor.GraphicsObject) error {
			return h.dev.DeleteVertexArray(g.VertexArray())
		},
	}, handler.WithObserver(obs))
	return h
}

// Buffers returns the data buffer handler.
func (h *GraphicsObjectHandler) Buffers() *DataBufferHandler { return h.buffers }

// supported reports whether an attribute can be bound to a vertex array.
func supported(a scene.Attribute) bool {
	return a.Buffer != nil && a.Buffer.Type.IsFloat()
}

func skipReason(a scene.Attribute) string {
	if a.Buffer == nil {
		return fmt.Sprintf("attribute %q: no buffer", a.Key)
	}
	return fmt.Sprintf("attribute %q: unsupported element type %v", a.Key, a.Buffer.Type)
}

func (h *GraphicsObjectHandler) children(g *scene.GraphicsObject) []handler.Dependency {
	var deps []handler.Dependency
	if g.Indices != nil {
		deps = append(deps, handler.On(h.buffers.Handler, g.Indices))
	}
	for _, a := range g.Attributes() {
		if supported(a) {
			deps = append(deps, handler.On(h.buffers.Handler, a.Buffer))
		}
	}
	return deps
}

func (h *GraphicsObjectHandler) allocate(g *scene.GraphicsObject) (descriptor.GraphicsObject, error) {
	var indices *descriptor.DataBuffer
	if g.Indices != nil {
		idx, err := h.buffers.MustInternal(g.Indices)
		if err != nil {
			return descriptor.GraphicsObject{}, err
		}
		indices = &idx
	}

	var attrs []descriptor.Attribute
	for _, a := range g.Attributes() {
		if !supported(a) {
			h.Observer().Skipped(KindGraphicsObject, g, skipReason(a))
			continue
		}
		buf, err := h.buffers.MustInternal(a.Buffer)
		if err != nil {
			return descriptor.GraphicsObject{}, err
		}
		attrs = append(attrs, descriptor.Attribute{Key: a.Key, Buffer: buf})
	}

	desc, err := descriptor.NewGraphicsObject(indices, g.Vertices, attrs...)
	if err != nil {
		return descriptor.GraphicsObject{}, err
	}
	vao, err := h.dev.CreateVertexArray(desc)
	if err != nil {
		return descriptor.GraphicsObject{}, err
	}
	return desc.WithVertexArray(vao), nil
}
