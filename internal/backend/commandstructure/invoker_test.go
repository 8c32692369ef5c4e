package commandstructure

import (
	"errors"
	"strings"
	"testing"
)

func TestCommandInvoker_Execute(t *testing.T) {
	errSign := errors.New("signature rejected")

	tests := []struct {
		name      string
		commands  []Command
		expected  string
		expectErr error
	}{
		{name: "no commands returns input", commands: nil, expected: "img"},
		{
			name: "commands run in order",
			commands: []Command{
				&stubCommand{name: "Scale", tag: "+scaled"},
				&stubCommand{name: "Watermark", tag: "+signed"},
			},
			expected: "img+scaled+signed",
		},
		{
			name: "failure stops the pipeline",
			commands: []Command{
				&stubCommand{name: "Scale", tag: "+scaled"},
				&stubCommand{name: "Watermark", err: errSign},
				&stubCommand{name: "Never", tag: "+never"},
			},
			expectErr: errSign,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewCommandInvoker(tt.commands).Execute([]byte("img"))
			if tt.expectErr != nil {
				if !errors.Is(err, tt.expectErr) {
					t.Fatalf("Expected %v, got %v", tt.expectErr, err)
				}
				if !strings.Contains(err.Error(), "Watermark (index 1)") {
					t.Errorf("Expected failing command in error, got %q", err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if string(out) != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, out)
			}
		})
	}
}

func TestNewCommandInvokerFromConfig(t *testing.T) {
	registry := NewCommandRegistry()
	for _, name := range []string{"Scale", "Watermark"} {
		if err := registry.Register(name, mockFactory(name)); err != nil {
			t.Fatalf("Failed to register %s: %v", name, err)
		}
	}
	if err := registry.Register("Strict", func(params map[string]any) (Command, error) {
		if err := ValidateRequiredParams(params, []string{"strength"}); err != nil {
			return nil, err
		}
		return newMockCommand("Strict"), nil
	}); err != nil {
		t.Fatalf("Failed to register Strict: %v", err)
	}

	invoker, err := NewCommandInvokerFromConfig(registry, []CommandConfig{{Name: "Watermark"}, {Name: "Scale"}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if names := invoker.Names(); len(names) != 2 || names[0] != "Watermark" || names[1] != "Scale" {
		t.Errorf("Expected [Watermark Scale], got %v", names)
	}

	for _, configs := range [][]CommandConfig{
		{{Name: "Missing"}},
		{{Name: "Scale"}, {Name: "Strict", Params: map[string]any{}}},
	} {
		if _, err := NewCommandInvokerFromConfig(registry, configs); err == nil {
			t.Errorf("Expected error for %+v", configs)
		}
	}
}

func TestExecuteCommands_UsesDefaultRegistry(t *testing.T) {
	original := DefaultRegistry
	DefaultRegistry = NewCommandRegistry()
	defer func() { DefaultRegistry = original }()

	if err := DefaultRegistry.Register("Tag", func(map[string]any) (Command, error) {
		return &stubCommand{name: "Tag", tag: "!"}, nil
	}); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}

	out, err := ExecuteCommands([]byte("img"), []CommandConfig{{Name: "Tag"}, {Name: "Tag"}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(out) != "img!!" {
		t.Errorf("Expected img!!, got %q", out)
	}

	if _, err := ExecuteCommands([]byte("img"), []CommandConfig{{Name: "Unknown"}}); err == nil {
		t.Error("Expected error for unknown command")
	}
}
