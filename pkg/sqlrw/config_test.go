package sqlrw

import "testing"

func TestWriteConfig_Defaults(t *testing.T) {
	var cfg WriteConfig
	cfg.SetDefaults()

	if cfg.Mode != ModeAppend {
		t.Errorf("Expected default mode append, got %s", cfg.Mode)
	}
	if cfg.BatchSize != DefaultBatchSize {
		t.Errorf("Expected default batch size %d, got %d", DefaultBatchSize, cfg.BatchSize)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestWriteConfig_InvalidModeFailsFast(t *testing.T) {
	cfg := WriteConfig{Mode: "upsert", BatchSize: 100}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for unknown mode")
	}
}

func TestWriteConfig_KeyedModesRequireKey(t *testing.T) {
	for _, mode := range []WriteMode{ModeUpdate, ModeSkip} {
		cfg := WriteConfig{Mode: mode, BatchSize: 100}
		if err := cfg.Validate(); err == nil {
			t.Errorf("Expected error for mode %s without primary key", mode)
		}

		cfg.PrimaryKey = []string{"id"}
		if err := cfg.Validate(); err != nil {
			t.Errorf("Mode %s with key should validate: %v", mode, err)
		}
	}
}

func TestWriteConfig_ClearPredicateOnlyForOverwrite(t *testing.T) {
	cfg := WriteConfig{Mode: ModeAppend, BatchSize: 100, ClearWhere: "region = ?"}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for clear predicate outside overwrite mode")
	}

	cfg.Mode = ModeOverwrite
	if err := cfg.Validate(); err != nil {
		t.Errorf("Overwrite with clear predicate should validate: %v", err)
	}
}

func TestWriteConfig_KeyIdentValidation(t *testing.T) {
	cfg := WriteConfig{Mode: ModeUpdate, BatchSize: 100, PrimaryKey: []string{"id; DROP TABLE x"}}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for malicious key identifier")
	}
}
