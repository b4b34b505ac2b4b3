package db

import (
	"strings"
	"testing"
)

func TestIndexBuilder_Valid(t *testing.T) {
	def, err := NewIndex("tm:idx:tasks").
		Prefix("tm:task:").
		Text("content").
		Tag("org").
		Numeric("created", true).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if def.Name != "tm:idx:tasks" {
		t.Errorf("name = %q", def.Name)
	}
	if len(def.Prefixes) != 1 || def.Prefixes[0] != "tm:task:" {
		t.Errorf("prefixes = %v", def.Prefixes)
	}
	if len(def.Fields) != 3 {
		t.Fatalf("fields = %d, want 3", len(def.Fields))
	}
	if def.Fields[2].Type != IndexFieldNumeric || !def.Fields[2].Sortable {
		t.Errorf("numeric field = %+v", def.Fields[2])
	}
}

func TestIndexBuilder_VectorHNSW(t *testing.T) {
	def, err := NewIndex("tm:idx:embeddings").
		Prefix("tm:emb:").
		Tag("org").
		VectorHNSW("vector", 768, DistanceCosine, 16, 200).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f := def.Fields[1]
	if f.Type != IndexFieldVector || f.VectorAlgo != VectorHNSW {
		t.Errorf("vector field = %+v", f)
	}
	if f.VectorDim != 768 || f.VectorDistance != DistanceCosine {
		t.Errorf("vector options = %+v", f)
	}
	if f.VectorM != 16 || f.VectorEFConstruct != 200 {
		t.Errorf("hnsw options = %+v", f)
	}
}

func TestIndexValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		def     IndexDefinition
		wantMsg string
	}{
		{
			"missing name",
			IndexDefinition{Prefixes: []string{"p:"}, Fields: []IndexField{{Name: "f"}}},
			"index name is required",
		},
		{
			"bad name",
			IndexDefinition{Name: "idx with spaces", Prefixes: []string{"p:"}, Fields: []IndexField{{Name: "f"}}},
			"invalid characters",
		},
		{
			"missing prefix",
			IndexDefinition{Name: "idx", Fields: []IndexField{{Name: "f"}}},
			"prefix",
		},
		{
			"missing fields",
			IndexDefinition{Name: "idx", Prefixes: []string{"p:"}},
			"at least one field",
		},
		{
			"duplicate field",
			IndexDefinition{Name: "idx", Prefixes: []string{"p:"}, Fields: []IndexField{{Name: "f"}, {Name: "f"}}},
			"duplicate field",
		},
		{
			"vector without dim",
			IndexDefinition{Name: "idx", Prefixes: []string{"p:"}, Fields: []IndexField{{Name: "v", Type: IndexFieldVector}}},
			"positive DIM",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}
