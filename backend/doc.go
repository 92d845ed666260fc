// Package backend defines the GPU primitives the resource handlers are
// built on and a registry of devices implementing them.
//
// A [Device] creates, fills and deletes buffers, textures, framebuffers,
// programs, vertex arrays and pipelines, and draws rendered objects. Every
// create primitive returns a descriptor from package descriptor; the
// handlers store those descriptors as the internal representation of scene
// objects.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime:
//
//	import _ "github.com/gogpu/g3d/backend/recording"
//	import _ "github.com/gogpu/g3d/backend/wgpu"
//
// # Backend Selection
//
// Use Default() to get the best available device, or Get() to request a
// specific backend by name:
//
//	dev, err := backend.Default()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Close()
//
//	dev, err = backend.Get("recording")
//
// # Available Backends
//
//   - wgpu: gogpu/wgpu HAL device (noop HAL when no GPU is configured)
//   - recording: in-memory device that logs every primitive
package backend
