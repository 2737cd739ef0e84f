package discovery

import "testing"

func TestMemoryRegistryRegisterAndDiscover(t *testing.T) {
	reg := NewMemoryRegistry()

	reg.Register("Arith", ServiceInstance{Addr: "127.0.0.1:8001", Weight: 10}, 10)
	reg.Register("Arith", ServiceInstance{Addr: "127.0.0.1:8002", Weight: 5}, 10)

	instances, err := reg.Discover("Arith")
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(instances) != 2 {
		t.Fatalf("expected 2 instances, got %d", len(instances))
	}
}

func TestMemoryRegistryDeregister(t *testing.T) {
	reg := NewMemoryRegistry()
	reg.Register("Arith", ServiceInstance{Addr: "127.0.0.1:8001"}, 10)
	reg.Register("Arith", ServiceInstance{Addr: "127.0.0.1:8002"}, 10)

	if err := reg.Deregister("Arith", "127.0.0.1:8001"); err != nil {
		t.Fatalf("Deregister failed: %v", err)
	}

	instances, _ := reg.Discover("Arith")
	if len(instances) != 1 || instances[0].Addr != "127.0.0.1:8002" {
		t.Fatalf("unexpected instances after deregister: %+v", instances)
	}
}

func TestMemoryRegistryRegisterReplacesSameAddr(t *testing.T) {
	reg := NewMemoryRegistry()
	reg.Register("Arith", ServiceInstance{Addr: "127.0.0.1:8001", Weight: 1}, 10)
	reg.Register("Arith", ServiceInstance{Addr: "127.0.0.1:8001", Weight: 99}, 10)

	instances, _ := reg.Discover("Arith")
	if len(instances) != 1 || instances[0].Weight != 99 {
		t.Fatalf("expected single updated instance, got %+v", instances)
	}
}

func TestMemoryRegistryWatchReceivesUpdates(t *testing.T) {
	reg := NewMemoryRegistry()
	ch := reg.Watch("Arith")

	reg.Register("Arith", ServiceInstance{Addr: "127.0.0.1:8001"}, 10)

	select {
	case instances := <-ch:
		if len(instances) != 1 {
			t.Fatalf("expected 1 instance in watch update, got %d", len(instances))
		}
	default:
		t.Fatal("expected a watch update after Register")
	}
}
