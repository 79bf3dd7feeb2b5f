package neural

import "testing"

func TestPhenotypeThink(t *testing.T) {
	org := NewOrganism(CreateSeedGenome(1, 4, 2, 1.0))

	p, err := org.Decode()
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	outputs, err := p.Think([]float64{0.1, 0.5, -0.3, 1.0})
	if err != nil {
		t.Fatalf("think failed: %v", err)
	}
	if len(outputs) != 2 {
		t.Fatalf("output count = %d, want 2", len(outputs))
	}
	for i, o := range outputs {
		if o < 0 || o > 1 {
			t.Errorf("sigmoid output %d = %f, outside [0, 1]", i, o)
		}
	}
}

func TestDecodeCachesPhenotype(t *testing.T) {
	org := NewOrganism(CreateSeedGenome(1, 4, 2, 1.0))

	p1, err := org.Decode()
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	p2, _ := org.Decode()
	if p1 != p2 {
		t.Error("expected cached phenotype on second decode")
	}

	if p1.NodeCount() != 6 {
		t.Errorf("node count = %d, want 6", p1.NodeCount())
	}
	if p1.LinkCount() != 8 {
		t.Errorf("link count = %d, want 8", p1.LinkCount())
	}
}
