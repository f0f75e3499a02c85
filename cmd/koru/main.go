// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"flag"
	"math"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"sync"
	"sync/atomic"
	"time"

	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/koru3d/vkframe/core"
	"github.com/koru3d/vkframe/device"
	"github.com/koru3d/vkframe/platform"
	"github.com/koru3d/vkframe/renderer"
	"github.com/koru3d/vkframe/scene"
	"github.com/koru3d/vkframe/swapchain"
	log "github.com/sirupsen/logrus"
)

func init() {
	runtime.LockOSThread()
}

var frameCounter int64

// Profiling
var (
	cpuProfile   = flag.String("cpuprof", "", "Profile CPU usage to file")
	memProfile   = flag.String("memprof", "", "Profile memory usage into a file")
	traceProfile = flag.String("trace", "", "Trace output for profiling")
	debug        = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
	envFile      = flag.String("env", "", "Dotenv file overriding the defaults")
)

func main() {
	flag.Parse()

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	configuration, err := core.LoadConfiguration(files...)
	if err != nil {
		log.Fatal(err)
	}
	logger := core.NewLogger(configuration.Log)

	// run returns only after its deferred teardown has completed.
	if err := run(configuration, logger); err != nil {
		logger.WithError(err).Error("koru stopped")
		os.Exit(1)
	}

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			logger.Fatal(err)
		}
		defer f.Close()
		if err := pprof.WriteHeapProfile(f); err != nil {
			logger.Fatal(err)
		}
	}
}

func run(configuration core.Configuration, logger *log.Logger) error {
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			return err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	if *traceProfile != "" {
		f, err := os.Create(*traceProfile)
		if err != nil {
			return err
		}
		if err := trace.Start(f); err != nil {
			return err
		}
		defer trace.Stop()
	}

	window, err := platform.NewWindow(configuration.Window)
	if err != nil {
		return err
	}
	defer window.Destroy()

	instance, err := device.NewInstance(device.DefaultVulkanApplicationInfo, window.ProcAddr(), device.InstanceConfiguration{
		DebugMode:  *debug || configuration.Renderer.Validation,
		Extensions: window.RequiredInstanceExtensions(),
	}, core.Component(logger, "vulkan"))
	if err != nil {
		return err
	}

	dev, err := device.New(instance, window, device.Configuration{
		Extensions: configuration.Renderer.DeviceExtensions,
	}, core.Component(logger, "device"))
	if err != nil {
		instance.Destroy()
		return err
	}
	defer dev.Destroy()
	logger.WithField("device", dev.Name()).Info("device selected")

	frameRenderer, err := renderer.NewVulkan(window, dev, swapchain.Options{
		VSync:       configuration.Renderer.VSync,
		Multisample: configuration.Renderer.Multisample,
	}, core.Component(logger, "renderer"))
	if err != nil {
		return err
	}
	defer frameRenderer.Destroy()

	world := scene.NewWorld()
	model := world.Models.Insert(scene.Model{Name: "triangle", Vertices: []scene.Vertex{
		{Pos: glm.Vec3{0, -0.5, 0}, Color: glm.Vec4{1, 0, 0, 1}},
		{Pos: glm.Vec3{0.5, 0.5, 0}, Color: glm.Vec4{0, 1, 0, 1}},
		{Pos: glm.Vec3{-0.5, 0.5, 0}, Color: glm.Vec4{0, 0, 1, 1}},
	}})
	object, err := world.Spawn(model, scene.IdentityTransform())
	if err != nil {
		return err
	}

	timeService := core.NewTime(configuration.Time)
	defer timeService.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	programSync := sync.WaitGroup{}
	defer programSync.Wait()
	defer cancel()

	/* Frame counter loop */
	programSync.Add(1)
	go func(ctx context.Context, wg *sync.WaitGroup) {
		defer wg.Done()
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				logger.WithFields(log.Fields{
					"frames":    atomic.SwapInt64(&frameCounter, 0),
					"cgo_calls": runtime.NumCgoCall(),
				}).Info("frame count")
			}
		}
	}(ctx, &programSync)

	/* Event and render loop, on the locked main thread */
	var angle float32
	for {
		select {
		case <-timeService.EventTicker().C:
			if window.PollEvents() {
				logger.Info("event loop exited")
				return nil
			}
		case <-timeService.FpsTicker().C:
			angle += 0.01
			if err := world.Objects.Update(object, func(o *scene.Object) {
				o.Transform.Rotation = glm.QuatRotate(angle, glm.Vec3{0, 0, 1})
			}); err != nil {
				return err
			}
			if err := drawFrame(frameRenderer, world, angle, logger); err != nil {
				return err
			}
		}
	}
}

func drawFrame(frameRenderer *renderer.Renderer, world *scene.World, angle float32, logger log.FieldLogger) error {
	projection := glm.Perspective(glm.DegToRad(45), frameRenderer.AspectRatio(), 0.1, 100)
	view := glm.LookAtV(glm.Vec3{0, 0, 2}, glm.Vec3{}, glm.Vec3{0, 1, 0})
	uniforms := world.Uniforms(view, projection)
	logger.WithField("objects", len(uniforms)).Debug("uniforms updated")

	commandBuffer, ok, err := frameRenderer.BeginFrame()
	if err != nil || !ok {
		return err
	}

	pulse := float32(math.Sin(float64(angle)))*0.5 + 0.5
	clear := glm.Vec4{0.1, 0.1 * pulse, 0.2, 1}
	if err := frameRenderer.BeginSwapchainRenderPass(commandBuffer, clear); err != nil {
		return err
	}
	if err := frameRenderer.EndSwapchainRenderPass(commandBuffer); err != nil {
		return err
	}
	if err := frameRenderer.EndFrame(); err != nil {
		return err
	}
	atomic.AddInt64(&frameCounter, 1)
	return nil
}
