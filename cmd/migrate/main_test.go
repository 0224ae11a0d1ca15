package main

import "testing"

func TestRootCommandExposesSubcommands(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"up", "down", "status", "versions"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == root {
			t.Fatalf("subcommand %q not registered: %v", name, err)
		}
	}

	down, _, err := root.Find([]string{"down"})
	if err != nil {
		t.Fatalf("find down: %v", err)
	}
	if down.Flags().Lookup("to") == nil {
		t.Fatalf("down must accept --to")
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Fatalf("root must accept --config")
	}
}
