// Package g3d manages the GPU resources of a 3D scene with reference
// counting.
//
// # Overview
//
// Scene objects (package scene) describe what to draw: data buffers,
// textures, programs, graphics objects and rendered objects. Handlers
// (package resource) allocate their GPU counterparts on a backend.Device
// the first time an object is handled and free them when the last owner
// releases it. Handling a rendered object handles everything it is made
// of; releasing it frees the object before its parts.
//
// # Quick Start
//
//	dev, err := backend.Default()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close()
//
//	s := g3d.NewSession(dev, g3d.WithFramesPerSecond(60))
//	defer s.Close()
//
//	tex := scene.NewSolidTexture("white", 2, 2, color.White)
//	cube := scene.NewRenderedObject("cube", scene.TexturedProgram("textured"), scene.Cube("cube", 1))
//	_ = cube.Bind(scene.Albedo, tex)
//
//	_ = s.Handle(cube) // from any goroutine
//	_ = s.Run(ctx)     // on the render goroutine
//
// # Threading
//
// Handlers are not safe for concurrent use. A Session owns them on its
// render goroutine: Handle, Release and Submit may be called from any
// goroutine and take effect at the start of the next frame, in the order
// each goroutine called them.
//
// # Backends
//
// Backends register themselves on import:
//
//	import _ "github.com/gogpu/g3d/backend/wgpu"      // GPU via gogpu/wgpu
//	import _ "github.com/gogpu/g3d/backend/recording" // in-memory, draws nothing
//
// # Logging
//
// g3d is silent by default. See SetLogger.
package g3d
