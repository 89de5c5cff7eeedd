// Copyright 2024 Alexandre Mahdhaoui
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

const (
	// ConfigPathEnvKey is the environment variable key for the config file
	// path. The config file is optional; flags always win over file values.
	ConfigPathEnvKey = "VIRTZAB_CONFIG_PATH"

	// DefaultURI is the hypervisor address used when neither the flag nor
	// the config file provides one.
	DefaultURI = "qemu:///system"

	// DefaultExporterListen is the exporter's default listen address.
	DefaultExporterListen = ":9177"

	// DefaultExporterPath is the exporter's default metrics path.
	DefaultExporterPath = "/metrics"
)

// Config is used to configure the agent.
type Config struct {
	// URI is the hypervisor connection URI.
	URI string `json:"uri"`

	// Zabbix configures the trapper submission target.
	Zabbix struct {
		// Server is the trapper address (host:port).
		Server string `json:"server"`
	} `json:"zabbix"`

	// Exporter configures the Prometheus exporter mode.
	Exporter struct {
		// Listen is the address the metrics server binds to.
		Listen string `json:"listen"`
		// Path is the metrics path.
		Path string `json:"path"`
	} `json:"exporter"`
}

// defaultConfig returns the configuration used when no config file is set.
func defaultConfig() *Config {
	config := &Config{}
	config.URI = DefaultURI
	config.Exporter.Listen = DefaultExporterListen
	config.Exporter.Path = DefaultExporterPath

	return config
}

// loadConfig loads the configuration from the file named by
// VIRTZAB_CONFIG_PATH, falling back to defaults when the variable is unset.
func loadConfig() (*Config, error) {
	config := defaultConfig()

	configPath := os.Getenv(ConfigPathEnvKey)
	if configPath == "" {
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Parse YAML (uses json tags).
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if config.URI == "" {
		config.URI = DefaultURI
	}
	if config.Exporter.Listen == "" {
		config.Exporter.Listen = DefaultExporterListen
	}
	if config.Exporter.Path == "" {
		config.Exporter.Path = DefaultExporterPath
	}

	return config, nil
}
