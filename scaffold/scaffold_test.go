package scaffold

import (
	"testing"

	asierrors "github.com/cognilex/asi/internal/errors"
	"github.com/cognilex/asi/interpret"
	"github.com/cognilex/asi/ontology"
)

func testStore() *ontology.Store {
	store := ontology.NewStore("contracts")
	store.AddConcept(&ontology.Concept{
		ID: "c-penalty", Name: "Contractual Penalty", Category: "penalty",
		Keywords: []string{"penalty", "fine"}, Confidence: 0.8,
	})
	store.AddConcept(&ontology.Concept{
		ID: "c-delivery", Name: "Delivery Deadline", Category: "obligation", Subcategory: "delivery",
		Keywords: []string{"deadline"}, Confidence: 0.6,
	})
	store.AddConcept(&ontology.Concept{
		ID: "c-payment", Name: "Payment Duty", Category: "obligation", Subcategory: "payment",
		Keywords: []string{"payment"}, Confidence: 0.9,
	})
	store.UpsertRelationship(&ontology.Relationship{
		SourceID: "c-penalty", TargetID: "c-delivery", Kind: ontology.KindCrossDomain, Strength: 0.7,
	})
	return store
}

func testBuilder(required []interpret.Element, prohibited map[string][]string) *Builder {
	monitor := interpret.NewMonitor()
	monitor.RegisterScope("contracts", required)
	return NewBuilder(monitor, prohibited)
}

func TestBuildAllCategories(t *testing.T) {
	b := testBuilder([]interpret.Element{{Category: "obligation"}}, map[string][]string{
		"contracts": {"tax advice", "warranty promises"},
	})

	sc, err := b.Build(testStore(), nil)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if len(sc.PrimaryConcepts) != 3 {
		t.Fatalf("got %d primary concepts, want 3", len(sc.PrimaryConcepts))
	}
	// Sorted by confidence descending.
	if sc.PrimaryConcepts[0].Name != "Payment Duty" || sc.PrimaryConcepts[2].Name != "Delivery Deadline" {
		t.Errorf("wrong ordering: %v", sc.PrimaryConcepts)
	}
	if len(sc.RequiredElements) != 1 || sc.RequiredElements[0].Category != "obligation" {
		t.Errorf("RequiredElements = %v", sc.RequiredElements)
	}
	// Prohibited elements are sorted.
	if len(sc.ProhibitedElements) != 2 || sc.ProhibitedElements[0] != "tax advice" {
		t.Errorf("ProhibitedElements = %v", sc.ProhibitedElements)
	}
	if len(sc.Relationships) != 1 {
		t.Fatalf("got %d relationships, want 1", len(sc.Relationships))
	}
	if sc.Relationships[0].Source != "Contractual Penalty" || sc.Relationships[0].Target != "Delivery Deadline" {
		t.Errorf("relationship by name wrong: %+v", sc.Relationships[0])
	}
}

func TestBuildFiltersByCategory(t *testing.T) {
	b := testBuilder([]interpret.Element{{Category: "obligation"}, {Category: "penalty"}}, nil)

	sc, err := b.Build(testStore(), []string{"obligation"})
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if len(sc.PrimaryConcepts) != 2 {
		t.Fatalf("got %d primary concepts, want 2", len(sc.PrimaryConcepts))
	}
	for _, ref := range sc.PrimaryConcepts {
		if ref.Category != "obligation" {
			t.Errorf("unexpected category %q in filtered scaffolding", ref.Category)
		}
	}
	// Required elements outside the targets are dropped.
	if len(sc.RequiredElements) != 1 || sc.RequiredElements[0].Category != "obligation" {
		t.Errorf("RequiredElements = %v", sc.RequiredElements)
	}
	// The cross-domain relationship references a concept outside the targets.
	if len(sc.Relationships) != 0 {
		t.Errorf("got %d relationships, want 0", len(sc.Relationships))
	}
}

func TestBuildUnknownScope(t *testing.T) {
	b := NewBuilder(interpret.NewMonitor(), nil)
	_, err := b.Build(ontology.NewStore("never-registered"), nil)
	if !asierrors.IsCode(err, asierrors.CodeUnknownScope) {
		t.Fatalf("expected UNKNOWN_SCOPE, got %v", err)
	}
}

func TestBuildDoesNotMutateStore(t *testing.T) {
	b := testBuilder(nil, nil)
	store := testStore()
	before := store.Clone()

	if _, err := b.Build(store, nil); err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if store.ConceptCount() != before.ConceptCount() || store.RelationshipCount() != before.RelationshipCount() {
		t.Error("Build must not mutate the store")
	}
}
