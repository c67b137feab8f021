package cli

import (
	"encoding/json"
	"fmt"

	"github.com/vburojevic/dwell/internal/config"
	"github.com/vburojevic/dwell/internal/output"
	"gopkg.in/yaml.v3"
)

// ConfigCmd groups configuration subcommands
type ConfigCmd struct {
	Show     ConfigShowCmd     `cmd:"" default:"1" help:"Show the effective configuration"`
	Path     ConfigPathCmd     `cmd:"" help:"Show which config file is used and where dwell looks"`
	Generate ConfigGenerateCmd `cmd:"" help:"Print a config file with every default"`
}

// ConfigShowCmd prints the effective configuration
type ConfigShowCmd struct{}

// Run executes the config show command
func (c *ConfigShowCmd) Run(globals *Globals) error {
	data, err := yaml.Marshal(globals.Config)
	if err != nil {
		return err
	}

	if globals.Format == "ndjson" {
		// round-trip through YAML so keys match the file format
		var fields map[string]interface{}
		if err := yaml.Unmarshal(data, &fields); err != nil {
			return err
		}
		fields["type"] = "config"
		fields["schemaVersion"] = output.SchemaVersion
		fields["config_file"] = config.ConfigFile()
		return json.NewEncoder(globals.Stdout).Encode(fields)
	}

	fmt.Fprintln(globals.Stdout, "Current Configuration:")
	if path := config.ConfigFile(); path != "" {
		fmt.Fprintf(globals.Stdout, "# from %s\n", path)
	}
	_, err = globals.Stdout.Write(data)
	return err
}

// ConfigPathCmd prints the config file location
type ConfigPathCmd struct{}

// Run executes the config path command
func (c *ConfigPathCmd) Run(globals *Globals) error {
	path := config.ConfigFile()

	if globals.Format == "ndjson" {
		return json.NewEncoder(globals.Stdout).Encode(map[string]interface{}{
			"type":          "config_path",
			"schemaVersion": output.SchemaVersion,
			"path":          path,
			"search_paths":  config.SearchPaths(),
		})
	}

	if path != "" {
		fmt.Fprintf(globals.Stdout, "Config file: %s\n", path)
		return nil
	}
	fmt.Fprintln(globals.Stdout, "No configuration file found. Searched (lowest precedence first):")
	for _, p := range config.SearchPaths() {
		fmt.Fprintf(globals.Stdout, "  %s/dwell.yaml\n", p)
	}
	return nil
}

// ConfigGenerateCmd prints a starter config file
type ConfigGenerateCmd struct{}

const configHeader = `# dwell configuration file
# Save as dwell.yaml in the working directory, ~/.dwell.yaml or
# $XDG_CONFIG_HOME/dwell/dwell.yaml. Every key can be overridden with a
# DWELL_ environment variable, e.g. DWELL_INTERVAL=2s.
#
# Ladder messages may use {app}, {elapsed} and {level}. Exec hooks can gate
# the final level with ` + "`dwell confirm`" + `.

`

// Run executes the config generate command
func (c *ConfigGenerateCmd) Run(globals *Globals) error {
	data, err := yaml.Marshal(config.Default())
	if err != nil {
		return err
	}
	if _, err := fmt.Fprint(globals.Stdout, configHeader); err != nil {
		return err
	}
	_, err = globals.Stdout.Write(data)
	return err
}
