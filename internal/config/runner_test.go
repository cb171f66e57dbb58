package config

import "testing"

func TestParseRunnerConfigDefaults(t *testing.T) {
	cfg, err := ParseRunnerConfig([]byte(``))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Backend != BackendReference {
		t.Fatalf("default backend = %q, want %q", cfg.Backend, BackendReference)
	}
	if len(cfg.Plugins) != len(AllStandardPlugins) {
		t.Fatalf("default plugins = %v, want all standard plugins", cfg.Plugins)
	}
}

func TestParseRunnerConfigExplicitEmptyPlugins(t *testing.T) {
	cfg, err := ParseRunnerConfig([]byte("plugins: []\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(cfg.Plugins) != 0 {
		t.Fatalf("explicit empty plugins list should stay empty, got %v", cfg.Plugins)
	}
}

func TestParseRunnerConfigRemoteRequiresTarget(t *testing.T) {
	_, err := ParseRunnerConfig([]byte("backend: remote\n"))
	if err == nil {
		t.Fatalf("remote backend without remoteTarget must fail validation")
	}
}

func TestParseRunnerConfigUnknownPlugin(t *testing.T) {
	_, err := ParseRunnerConfig([]byte("plugins: [not_a_plugin]\n"))
	if err == nil {
		t.Fatalf("unknown plugin name must fail validation")
	}
}

func TestParseRunnerConfigRemoteWithTarget(t *testing.T) {
	cfg, err := ParseRunnerConfig([]byte("backend: remote\nremoteTarget: localhost:50051\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.RemoteTarget != "localhost:50051" {
		t.Fatalf("remoteTarget = %q", cfg.RemoteTarget)
	}
}
