package facade

import (
	"testing"

	"github.com/tweakstories/storefront-core/internal/domain"
	"github.com/tweakstories/storefront-core/internal/store"
)

func newFacadeFixture() (*store.Dispatcher, *Facade) {
	d := store.NewDispatcher(nil)
	addresses := store.NewAddressStore(d, nil)
	checkout := store.NewCheckoutStore(d, nil)
	return d, New(d, addresses, checkout, nil)
}

// recordedEvents подписывается на dispatcher и собирает имена событий.
func recordedEvents(d *store.Dispatcher) *[]string {
	var got []string
	d.Subscribe(func(ev store.Event) {
		got = append(got, ev.EventType())
	})
	return &got
}

func TestFacade_IntentionsDispatchSingleEvents(t *testing.T) {
	d, f := newFacadeFixture()
	got := recordedEvents(d)

	cases := []struct {
		intent func()
		want   string
	}{
		{f.InitializeFlow, store.EventFlowInitialized},
		{f.ResetFlow, store.EventFlowReset},
		{func() { f.GoToStep(domain.CheckoutStepPayment) }, store.EventStepNavigated},
		{func() { f.SetShippingAddress(&domain.Address{ID: "a1"}) }, store.EventShippingAddressSet},
		{func() { f.SetBillingAddress(&domain.Address{ID: "a1"}) }, store.EventBillingAddressSet},
		{func() { f.SetPaymentMethod("ideal-rabobank") }, store.EventPaymentMethodSet},
		{func() { f.SetShippingMethod("standard") }, store.EventShippingMethodSet},
		{func() { f.LoadShippingMethods("a1") }, store.EventShippingMethodsLoadRequested},
		{f.SubmitOrder, store.EventOrderSubmitRequested},
		{f.LoadAddresses, store.EventAddressesLoadRequested},
		{func() { f.UpdateAddress("a1", domain.AddressPatch{}) }, store.EventAddressUpdateRequested},
		{func() { f.DeleteAddress("a1") }, store.EventAddressDeleteRequested},
		{func() { f.SubmitShippingStep(domain.Address{}, false, false) }, store.EventShippingStepSubmitted},
	}

	for i, tc := range cases {
		before := len(*got)
		tc.intent()
		if len(*got) != before+1 {
			t.Fatalf("case %d: intention must dispatch exactly one event, got %d", i, len(*got)-before)
		}
		if (*got)[before] != tc.want {
			t.Fatalf("case %d: expected %s, got %s", i, tc.want, (*got)[before])
		}
	}
}

func TestFacade_CreateAddressReturnsTempID(t *testing.T) {
	d, f := newFacadeFixture()

	var captured store.AddressCreateRequested
	d.Subscribe(func(ev store.Event) {
		if e, ok := ev.(store.AddressCreateRequested); ok {
			captured = e
		}
	})

	tempID := f.CreateAddress(domain.AddressPayload{Street: "Main"})

	if !domain.IsTempID(tempID) {
		t.Fatalf("expected a temporary id, got %q", tempID)
	}
	if captured.TempID != tempID {
		t.Fatal("returned temp id must match the dispatched event")
	}
	if captured.Payload.Street != "Main" {
		t.Fatal("payload must pass through unchanged")
	}
}

func TestFacade_ViewModelResolvesDerivedValues(t *testing.T) {
	d, f := newFacadeFixture()

	d.Dispatch(store.ShippingAddressSet{Address: &domain.Address{ID: "a1", City: "Delft"}})

	vm := f.ViewModel()
	if !vm.CanProceedToPayment {
		t.Fatal("payment gate must be resolved on the view model")
	}
	if vm.CanProceedToReview {
		t.Fatal("review gate must stay closed")
	}
	if vm.ShippingAddress == nil || vm.ShippingAddress.City != "Delft" {
		t.Fatal("shipping address must be exposed")
	}
}

func TestFacade_ViewModelSortsAddresses(t *testing.T) {
	d, f := newFacadeFixture()

	d.Dispatch(store.AddressesLoaded{Addresses: []domain.Address{
		{ID: "b"},
		{ID: "c", IsDefaultShipping: true},
		{ID: "a"},
	}})

	vm := f.ViewModel()
	if len(vm.Addresses) != 3 {
		t.Fatalf("expected 3 addresses, got %d", len(vm.Addresses))
	}
	if vm.Addresses[0].ID != "c" {
		t.Fatal("default shipping address must sort first")
	}
	if vm.Addresses[1].ID != "a" || vm.Addresses[2].ID != "b" {
		t.Fatalf("remaining addresses must sort by id, got %v", vm.Addresses)
	}
}

// Модель пересобирается только при изменении хотя бы одного store.
func TestFacade_ViewModelIsMemoized(t *testing.T) {
	d, f := newFacadeFixture()

	d.Dispatch(store.AddressesLoaded{Addresses: []domain.Address{{ID: "a1"}}})

	first := f.ViewModel()
	second := f.ViewModel()
	// Один и тот же мемоизированный срез — признак того, что пересборки не было.
	if len(first.Addresses) == 0 || &first.Addresses[0] != &second.Addresses[0] {
		t.Fatal("unchanged stores must return the memoized view model")
	}

	d.Dispatch(store.PaymentMethodSet{ID: "ideal-rabobank"})

	third := f.ViewModel()
	if third.PaymentMethodID != "ideal-rabobank" {
		t.Fatal("store change must invalidate the memoized view model")
	}
	if !third.CanProceedToReview {
		t.Fatal("derived values must be recomputed after invalidation")
	}
}
