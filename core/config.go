// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gobuffalo/envy"
	"github.com/gobuffalo/packr"
	"github.com/joho/godotenv"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Window   WindowConfiguration
	Time     TimeConfiguration
	Renderer RendererConfiguration
	Log      LogConfiguration
}

// WindowConfiguration describes the window requested at startup.
type WindowConfiguration struct {
	Width  uint32
	Height uint32
	Title  string

	// Backend selects the windowing library, "sdl" or "glfw".
	Backend string
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int

	// EventPollDelay is the delay between event polls in milliseconds
	EventPollDelay int
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	DeviceExtensions []string

	// VSync forces the blocking FIFO present mode.
	VSync bool

	// Multisample renders into multisampled color attachments
	// resolved into the swapchain image.
	Multisample bool

	// Validation loads the validation layer and routes its reports to the log.
	Validation bool
}

// LogConfiguration configures the engine logger.
type LogConfiguration struct {
	Level string
}

// Configuration keys read from the environment.
const (
	KeyWindowWidth      = "KORU_WINDOW_WIDTH"
	KeyWindowHeight     = "KORU_WINDOW_HEIGHT"
	KeyWindowTitle      = "KORU_WINDOW_TITLE"
	KeyWindowBackend    = "KORU_WINDOW_BACKEND"
	KeyFramesPerSecond  = "KORU_FPS"
	KeyEventPollDelay   = "KORU_EVENT_POLL_DELAY"
	KeyVSync            = "KORU_VSYNC"
	KeyMultisample      = "KORU_MSAA"
	KeyValidation       = "KORU_VALIDATION"
	KeyLogLevel         = "KORU_LOG_LEVEL"
	KeyDeviceExtensions = "KORU_DEVICE_EXTENSIONS"
)

const defaultsFile = "koru.env"

// Defaults returns the built-in key/value defaults shipped with the engine.
func Defaults() (map[string]string, error) {
	box := packr.NewBox("./defaults")
	contents, err := box.FindString(defaultsFile)
	if err != nil {
		return nil, fmt.Errorf("core.Defaults(): %w", err)
	}
	values, err := godotenv.Parse(strings.NewReader(contents))
	if err != nil {
		return nil, fmt.Errorf("core.Defaults(): %w", err)
	}
	return values, nil
}

// LoadConfiguration builds the configuration from built-in defaults,
// overridden by the given dotenv files and then the process environment.
func LoadConfiguration(files ...string) (Configuration, error) {
	defaults, err := Defaults()
	if err != nil {
		return Configuration{}, err
	}

	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return Configuration{}, fmt.Errorf("godotenv.Load(): %w", err)
		}
	}
	envy.Reload()

	r := reader{defaults: defaults}
	cfg := Configuration{
		Window: WindowConfiguration{
			Width:   r.uint32(KeyWindowWidth),
			Height:  r.uint32(KeyWindowHeight),
			Title:   r.string(KeyWindowTitle),
			Backend: r.string(KeyWindowBackend),
		},
		Time: TimeConfiguration{
			FramesPerSecond: r.int(KeyFramesPerSecond),
			EventPollDelay:  r.int(KeyEventPollDelay),
		},
		Renderer: RendererConfiguration{
			DeviceExtensions: r.list(KeyDeviceExtensions),
			VSync:            r.bool(KeyVSync),
			Multisample:      r.bool(KeyMultisample),
			Validation:       r.bool(KeyValidation),
		},
		Log: LogConfiguration{
			Level: r.string(KeyLogLevel),
		},
	}
	if r.err != nil {
		return Configuration{}, r.err
	}
	return cfg, nil
}

// reader resolves keys through envy, keeping the first conversion error.
type reader struct {
	defaults map[string]string
	err      error
}

func (r *reader) string(key string) string {
	return envy.Get(key, r.defaults[key])
}

func (r *reader) int(key string) int {
	value := r.string(key)
	n, err := strconv.Atoi(value)
	if err != nil {
		r.fail(key, value, err)
	}
	return n
}

func (r *reader) uint32(key string) uint32 {
	value := r.string(key)
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		r.fail(key, value, err)
	}
	return uint32(n)
}

func (r *reader) bool(key string) bool {
	value := r.string(key)
	b, err := strconv.ParseBool(value)
	if err != nil {
		r.fail(key, value, err)
	}
	return b
}

func (r *reader) list(key string) []string {
	var out []string
	for _, item := range strings.Split(r.string(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (r *reader) fail(key, value string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("config %s=%q: %w", key, value, err)
	}
}
