package kb

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/signalsfoundry/kite-simulator/model"
)

func TestDefaultPresets(t *testing.T) {
	c := Default()
	names := c.Names()
	if len(names) != 2 || names[0] != PresetKX40 || names[1] != PresetTrainer {
		t.Fatalf("Names() = %v, want [%s %s]", names, PresetKX40, PresetTrainer)
	}
}

func TestPresetsValidate(t *testing.T) {
	for name, cfg := range map[string]model.SimConfig{PresetKX40: KX40(), PresetTrainer: Trainer()} {
		if err := cfg.WithDefaults().Validate(); err != nil {
			t.Fatalf("preset %s: Validate error: %v", name, err)
		}
	}
}

func TestPresetReturnsCopy(t *testing.T) {
	c := Default()
	cfg, err := c.Preset(PresetTrainer)
	if err != nil {
		t.Fatalf("Preset error: %v", err)
	}
	cfg.Tether.TotalLength = 1
	cfg.Wind.Static.X = -3
	cfg.Airplane.Surfaces[0].Name = "changed"

	again, err := c.Preset(PresetTrainer)
	if err != nil {
		t.Fatalf("Preset error: %v", err)
	}
	if again.Tether.TotalLength != 70 || again.Wind.Static.X != 12 || again.Airplane.Surfaces[0].Name != "right" {
		t.Fatalf("catalog preset was mutated through a returned copy: %+v", again.Tether)
	}
}

func TestPresetNotFound(t *testing.T) {
	if _, err := Default().Preset("glider"); !errors.Is(err, ErrPresetNotFound) {
		t.Fatalf("Preset(glider) error = %v, want ErrPresetNotFound", err)
	}
}

func TestAddPresetDuplicate(t *testing.T) {
	c := NewCatalog()
	if err := c.AddPreset("a", Trainer()); err != nil {
		t.Fatalf("first AddPreset error: %v", err)
	}
	if err := c.AddPreset("a", KX40()); err == nil {
		t.Fatalf("expected error on duplicate AddPreset")
	}
	cfg, _ := c.Preset("a")
	if cfg.Tether.TotalLength != 70 {
		t.Fatalf("duplicate AddPreset replaced the preset")
	}
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	c := NewCatalog()
	var events []Event
	unsubscribe := c.Subscribe(func(e Event) { events = append(events, e) })

	if err := c.AddPreset("a", Trainer()); err != nil {
		t.Fatalf("AddPreset error: %v", err)
	}
	c.PutPreset("a", KX40())
	c.PutPreset("b", Trainer())
	unsubscribe()
	c.PutPreset("c", Trainer())

	want := []Event{
		{Type: EventPresetAdded, Name: "a"},
		{Type: EventPresetReplaced, Name: "a"},
		{Type: EventPresetAdded, Name: "b"},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(want), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("event %d = %+v, want %+v", i, events[i], want[i])
		}
	}
}

func TestSubscriberMayReadCatalog(t *testing.T) {
	c := NewCatalog()
	var got float64
	c.Subscribe(func(e Event) {
		cfg, err := c.Preset(e.Name)
		if err == nil {
			got = cfg.Tether.TotalLength
		}
	})
	c.PutPreset("k", KX40())
	if got != 120 {
		t.Fatalf("subscriber read TotalLength %v, want 120", got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := Default()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = c.Preset(PresetKX40)
			_ = c.Names()
		}()
		go func() {
			defer wg.Done()
			c.PutPreset(fmt.Sprintf("p%d", i), Trainer())
		}()
	}
	wg.Wait()

	if n := len(c.Names()); n != 12 {
		t.Fatalf("len(Names()) = %d, want 12", n)
	}
}
