package topology

import (
	"testing"
	"time"

	"github.com/tsm-sh/tsm/internal/discovery"
)

func testService(name string, port int) discovery.Service {
	return discovery.Service{
		Name:           name,
		Image:          name + ":latest",
		Replicas:       1,
		Port:           port,
		TraefikEnabled: true,
	}
}

func TestNext_FirstSnapshot(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	snap := Next(nil, now, []Observation{
		{Service: testService("web", 3000), Replicas: 2, Endpoints: []string{"acme-web-1", "acme-web-2"}},
		{Service: testService("api", 8080), Replicas: 1, Endpoints: []string{"acme-api-1"}},
	})

	if snap.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", snap.Len())
	}
	names := snap.Services()
	if names[0] != "api" || names[1] != "web" {
		t.Errorf("Services() = %v, want [api web]", names)
	}
	if !snap.TakenAt().Equal(now) {
		t.Errorf("TakenAt() = %v, want %v", snap.TakenAt(), now)
	}
	if snap.StaleCount() != 0 {
		t.Errorf("StaleCount() = %d, want 0", snap.StaleCount())
	}

	entry, ok := snap.Entry("web")
	if !ok {
		t.Fatal("Entry(web) not found")
	}
	if entry.Replicas != 2 {
		t.Errorf("Replicas = %d, want 2", entry.Replicas)
	}
	if len(entry.Endpoints) != 2 || entry.Endpoints[0] != "acme-web-1" {
		t.Errorf("Endpoints = %v, want [acme-web-1 acme-web-2]", entry.Endpoints)
	}
	if entry.Stale {
		t.Error("Stale = true, want false")
	}
	if !entry.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", entry.UpdatedAt, now)
	}
}

func TestNext_SortsEndpoints(t *testing.T) {
	snap := Next(nil, time.Now(), []Observation{
		{Service: testService("web", 80), Replicas: 3, Endpoints: []string{"c", "a", "b"}},
	})

	entry, _ := snap.Entry("web")
	want := []string{"a", "b", "c"}
	for i := range want {
		if entry.Endpoints[i] != want[i] {
			t.Errorf("Endpoints[%d] = %q, want %q", i, entry.Endpoints[i], want[i])
		}
	}
}

func TestNext_RetainsFailedEntry(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	t1 := t0.Add(30 * time.Second)

	prev := Next(nil, t0, []Observation{
		{Service: testService("web", 3000), Replicas: 2, Endpoints: []string{"acme-web-1", "acme-web-2"}},
	})

	// Same service, fresher descriptor, failed observation.
	updated := testService("web", 4000)
	snap := Next(prev, t1, []Observation{
		{Service: updated, Replicas: 2, Failed: true},
	})

	entry, ok := snap.Entry("web")
	if !ok {
		t.Fatal("Entry(web) not found")
	}
	if !entry.Stale {
		t.Error("Stale = false, want true")
	}
	if len(entry.Endpoints) != 2 || entry.Endpoints[0] != "acme-web-1" {
		t.Errorf("Endpoints = %v, want prior [acme-web-1 acme-web-2]", entry.Endpoints)
	}
	if entry.Replicas != 2 {
		t.Errorf("Replicas = %d, want prior 2", entry.Replicas)
	}
	if !entry.UpdatedAt.Equal(t0) {
		t.Errorf("UpdatedAt = %v, want prior %v", entry.UpdatedAt, t0)
	}
	if entry.Service.Port != 4000 {
		t.Errorf("Service.Port = %d, want fresh descriptor's 4000", entry.Service.Port)
	}
	if snap.StaleCount() != 1 {
		t.Errorf("StaleCount() = %d, want 1", snap.StaleCount())
	}
}

func TestNext_FailedWithoutPrior(t *testing.T) {
	now := time.Now()

	snap := Next(nil, now, []Observation{
		{Service: testService("web", 80), Replicas: 3, Failed: true},
	})

	entry, ok := snap.Entry("web")
	if !ok {
		t.Fatal("Entry(web) not found")
	}
	if !entry.Stale {
		t.Error("Stale = false, want true")
	}
	if len(entry.Endpoints) != 0 {
		t.Errorf("Endpoints = %v, want empty", entry.Endpoints)
	}
	if entry.Replicas != 3 {
		t.Errorf("Replicas = %d, want declared 3", entry.Replicas)
	}
}

func TestNext_DropsDepartedServices(t *testing.T) {
	t0 := time.Now()
	prev := Next(nil, t0, []Observation{
		{Service: testService("web", 80), Replicas: 1, Endpoints: []string{"w1"}},
		{Service: testService("db", 5432), Replicas: 1, Endpoints: []string{"d1"}},
	})

	snap := Next(prev, t0.Add(time.Minute), []Observation{
		{Service: testService("web", 80), Replicas: 1, Endpoints: []string{"w1"}},
	})

	if snap.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", snap.Len())
	}
	if _, ok := snap.Entry("db"); ok {
		t.Error("Entry(db) still present after departing the manifest")
	}
}

func TestNext_DuplicateObservationsIgnored(t *testing.T) {
	snap := Next(nil, time.Now(), []Observation{
		{Service: testService("web", 80), Replicas: 1, Endpoints: []string{"first"}},
		{Service: testService("web", 80), Replicas: 9, Endpoints: []string{"second"}},
	})

	if snap.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", snap.Len())
	}
	entry, _ := snap.Entry("web")
	if entry.Replicas != 1 || entry.Endpoints[0] != "first" {
		t.Errorf("entry = %+v, want the first observation kept", entry)
	}
}

func TestSnapshot_Immutability(t *testing.T) {
	snap := Next(nil, time.Now(), []Observation{
		{Service: testService("web", 80), Replicas: 2, Endpoints: []string{"a", "b"}},
	})

	entry, _ := snap.Entry("web")
	entry.Endpoints[0] = "mutated"
	names := snap.Services()
	names[0] = "mutated"
	entries := snap.Entries()
	entries[0].Endpoints[1] = "mutated"

	fresh, _ := snap.Entry("web")
	if fresh.Endpoints[0] != "a" || fresh.Endpoints[1] != "b" {
		t.Errorf("Endpoints = %v, want [a b] after caller mutation", fresh.Endpoints)
	}
	if snap.Services()[0] != "web" {
		t.Errorf("Services() = %v, want [web] after caller mutation", snap.Services())
	}
}

func TestSnapshot_Entries(t *testing.T) {
	snap := Next(nil, time.Now(), []Observation{
		{Service: testService("web", 80), Replicas: 1},
		{Service: testService("api", 81), Replicas: 1},
		{Service: testService("db", 82), Replicas: 1},
	})

	entries := snap.Entries()
	if len(entries) != 3 {
		t.Fatalf("Entries() returned %d, want 3", len(entries))
	}
	want := []string{"api", "db", "web"}
	for i := range want {
		if entries[i].Service.Name != want[i] {
			t.Errorf("Entries()[%d] = %q, want %q", i, entries[i].Service.Name, want[i])
		}
	}
}

func TestSnapshot_NilReceiver(t *testing.T) {
	var snap *Snapshot

	if snap.Len() != 0 {
		t.Errorf("Len() = %d, want 0", snap.Len())
	}
	if snap.Services() != nil {
		t.Errorf("Services() = %v, want nil", snap.Services())
	}
	if _, ok := snap.Entry("web"); ok {
		t.Error("Entry() found on nil snapshot")
	}
	if snap.StaleCount() != 0 {
		t.Errorf("StaleCount() = %d, want 0", snap.StaleCount())
	}
}
