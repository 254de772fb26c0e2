package dataset

import "testing"

func validSchema() Schema {
	return Schema{
		Index:             "doe_id",
		ProcessParameters: []string{"force", "material"},
		Categorical:       []string{"material"},
		Position:          []string{"x"},
		Output:            []string{"thickness"},
	}
}

func TestSchemaValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Schema)
		wantErr bool
	}{
		{"valid", func(s *Schema) {}, false},
		{"no index", func(s *Schema) { s.Index = "" }, true},
		{"no parameters", func(s *Schema) { s.ProcessParameters = nil }, true},
		{"no position", func(s *Schema) { s.Position = nil }, true},
		{"three positions", func(s *Schema) { s.Position = []string{"x", "y", "z"} }, true},
		{"two positions", func(s *Schema) { s.Position = []string{"x", "y"} }, false},
		{"angle with two positions", func(s *Schema) {
			s.Position = []string{"x", "y"}
			s.Angle = true
		}, true},
		{"no output", func(s *Schema) { s.Output = nil }, true},
		{"bad scaler", func(s *Schema) { s.PositionScaler = "log" }, true},
		{"minmax scaler", func(s *Schema) { s.PositionScaler = ScalerMinMax }, false},
		{"stray categorical", func(s *Schema) { s.Categorical = []string{"lubricant"} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSchema()
			tt.mutate(&s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSchemaValidateDefaultsScaler(t *testing.T) {
	s := validSchema()
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}
	if s.PositionScaler != ScalerNormal {
		t.Errorf("PositionScaler = %q, want %q", s.PositionScaler, ScalerNormal)
	}
}

func TestIsCategorical(t *testing.T) {
	s := validSchema()
	if !s.IsCategorical("material") {
		t.Error("IsCategorical(material) = false, want true")
	}
	if s.IsCategorical("force") {
		t.Error("IsCategorical(force) = true, want false")
	}
}
