package types

import "testing"

func TestDefaultValue(t *testing.T) {
	tests := []struct {
		kind    FieldKind
		wantVal any
		wantErr error
	}{
		{KindText, "", nil},
		{KindEnum, "", nil},
		{KindNumber, float64(0), nil},
		{KindBoolean, false, nil},
		{KindDate, nil, nil},
		{KindReference, nil, nil},
		{KindCollection, nil, nil},
		{"timestamp", nil, ErrInvalidKind},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			val, err := DefaultValue(tt.kind)
			if err != tt.wantErr {
				t.Errorf("DefaultValue(%q) error = %v, want %v", tt.kind, err, tt.wantErr)
			}
			if val != tt.wantVal {
				t.Errorf("DefaultValue(%q) = %v, want %v", tt.kind, val, tt.wantVal)
			}
		})
	}
}

func TestFieldKindClassification(t *testing.T) {
	simple := []FieldKind{KindText, KindNumber, KindBoolean, KindDate, KindEnum}
	for _, k := range simple {
		if !k.IsSimple() || k.IsRelation() {
			t.Errorf("%q should be simple", k)
		}
	}
	for _, k := range []FieldKind{KindReference, KindCollection} {
		if k.IsSimple() || !k.IsRelation() {
			t.Errorf("%q should be a relation", k)
		}
	}
	for _, k := range []FieldKind{"", "integer", "list"} {
		if k.IsValid() {
			t.Errorf("%q should not be valid", k)
		}
	}
}
