package commandstructure

import (
	"fmt"
	"log/slog"
	"time"
)

// CommandInvoker runs a fixed pipeline of commands over uploaded image bytes
type CommandInvoker struct {
	commands []Command
}

func NewCommandInvoker(commands []Command) *CommandInvoker {
	return &CommandInvoker{commands: commands}
}

// NewCommandInvokerFromConfig builds every configured command so that bad
// parameters fail at startup instead of on the first upload.
func NewCommandInvokerFromConfig(registry *CommandRegistry, configs []CommandConfig) (*CommandInvoker, error) {
	commands := make([]Command, len(configs))
	for idx, config := range configs {
		command, err := registry.Create(config.Name, config.Params)
		if err != nil {
			return nil, fmt.Errorf("pipeline step %d: %w", idx, err)
		}
		commands[idx] = command
	}
	return NewCommandInvoker(commands), nil
}

// Names returns the command names in execution order
func (i *CommandInvoker) Names() []string {
	names := make([]string, len(i.commands))
	for idx, command := range i.commands {
		names[idx] = command.Name()
	}
	return names
}

// Execute feeds the output of each command into the next. The first failure
// aborts the pipeline.
func (i *CommandInvoker) Execute(imageData []byte) ([]byte, error) {
	start := time.Now()
	data := imageData

	for idx, command := range i.commands {
		stepStart := time.Now()
		out, err := command.Execute(data)
		if err != nil {
			slog.Warn("CommandInvoker: step failed",
				"step", idx,
				"command", command.Name(),
				"input_size_bytes", len(data),
				"error", err)
			return nil, fmt.Errorf("command %s (index %d) failed: %w", command.Name(), idx, err)
		}
		slog.Debug("CommandInvoker: step done",
			"step", idx,
			"command", command.Name(),
			"duration_ms", time.Since(stepStart).Milliseconds(),
			"output_size_bytes", len(out))
		data = out
	}

	slog.Info("CommandInvoker: pipeline finished",
		"steps", len(i.commands),
		"duration_ms", time.Since(start).Milliseconds(),
		"input_size_bytes", len(imageData),
		"output_size_bytes", len(data))
	return data, nil
}

// ExecuteCommands runs configs built from DefaultRegistry over imageData
func ExecuteCommands(imageData []byte, configs []CommandConfig) ([]byte, error) {
	invoker, err := NewCommandInvokerFromConfig(DefaultRegistry, configs)
	if err != nil {
		return nil, err
	}
	return invoker.Execute(imageData)
}
