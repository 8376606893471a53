package main

import "testing"

func TestRootCommand_RegistersCoreCommands(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"serve", "sync", "migrate", "health", "adapters", "version"} {
		if cmd, _, err := rootCmd.Find([]string{name}); err != nil || cmd == nil || cmd.Name() != name {
			t.Fatalf("%s command not registered: cmd=%v err=%v", name, cmd, err)
		}
	}
}

func TestCommandUsesStructuredLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want bool
	}{
		{name: "serve", args: []string{"serve"}, want: true},
		{name: "sync", args: []string{"sync"}, want: true},
		{name: "migrate", args: []string{"migrate"}, want: true},
		{name: "health", args: []string{"health"}, want: false},
		{name: "adapters", args: []string{"adapters"}, want: false},
		{name: "version", args: []string{"version"}, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cmd, _, err := rootCmd.Find(tc.args)
			if err != nil {
				t.Fatalf("Find(%v) error = %v", tc.args, err)
			}
			if cmd == nil {
				t.Fatalf("Find(%v) returned nil command", tc.args)
			}

			if got := commandUsesStructuredLogging(cmd); got != tc.want {
				t.Fatalf("commandUsesStructuredLogging(%q) = %v, want %v", cmd.CommandPath(), got, tc.want)
			}
		})
	}
}

func TestBuiltinAdapterCatalog(t *testing.T) {
	t.Parallel()

	entries := builtinAdapters()
	if len(entries) == 0 {
		t.Fatal("builtinAdapters() is empty")
	}
	for _, e := range entries {
		if e.ID == "" || e.Factory == nil {
			t.Fatalf("entry %+v is incomplete", e)
		}
	}
}
