// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/koru3d/vkframe/core"
	"github.com/koru3d/vkframe/device"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var (
	format = flag.String("format", "json", "Output format, json or yaml")
	debug  = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
)

func main() {
	flag.Parse()

	configuration, err := core.LoadConfiguration()
	if err != nil {
		log.Fatal(err)
	}
	logger := core.NewLogger(configuration.Log)

	instance, err := device.NewInstance(device.DefaultVulkanApplicationInfo, nil, device.InstanceConfiguration{
		DebugMode: *debug,
	}, core.Component(logger, "vulkan"))
	if err != nil {
		logger.Fatal(err)
	}
	defer instance.Destroy()

	if err := write(os.Stdout, *format, instance.PhysicalDevicesInfo()); err != nil {
		logger.Fatal(err)
	}
}

func write(w io.Writer, format string, info []device.PhysicalDeviceInfo) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(info)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		return encoder.Encode(info)
	}
	return fmt.Errorf("unknown format %q", format)
}
