package orchestration

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/tweakstories/storefront-core/internal/domain"
	"github.com/tweakstories/storefront-core/internal/messaging/kafka"
	"github.com/tweakstories/storefront-core/internal/metrics"
	"github.com/tweakstories/storefront-core/internal/session"
	"github.com/tweakstories/storefront-core/internal/store"
)

// Orchestrator — слой реакций: превращает события store в вызовы бекенда,
// а результаты вызовов — обратно в события. Сетевые вызовы адресных мутаций
// выполняются строго последовательно в порядке отправки; загрузка способов
// доставки и отправка заказа работают по принципу "побеждает последний".
type Orchestrator struct {
	dispatcher  *store.Dispatcher
	addresses   *store.AddressStore
	checkout    *store.CheckoutStore
	cart        domain.CartReader
	gateway     domain.StorefrontGateway
	session     *session.Adapter
	invalidator domain.SessionInvalidator
	logger      *log.Entry
	metrics     *metrics.CheckoutMetrics
	producer    *kafka.Producer // опциональный Kafka producer для аналитики

	sessionID string
	ctx       context.Context

	addressJobs *serialQueue
	methodsSeq  atomic.Uint64
	submitSeq   atomic.Uint64
}

// Option настраивает Orchestrator.
type Option func(*Orchestrator)

// WithProducer подключает Kafka producer; события checkout уходят в аналитику.
func WithProducer(producer *kafka.Producer) Option {
	return func(o *Orchestrator) {
		o.producer = producer
	}
}

// WithInvalidator задаёт получателя сигнала об отказе в авторизации.
func WithInvalidator(invalidator domain.SessionInvalidator) Option {
	return func(o *Orchestrator) {
		o.invalidator = invalidator
	}
}

// WithoutMetrics отключает метрики (для тестов).
func WithoutMetrics() Option {
	return func(o *Orchestrator) {
		o.metrics = nil
	}
}

// New создаёт рабочий экземпляр оркестратора.
func New(
	dispatcher *store.Dispatcher,
	addresses *store.AddressStore,
	checkout *store.CheckoutStore,
	cart domain.CartReader,
	gateway domain.StorefrontGateway,
	sessionAdapter *session.Adapter,
	logger *log.Entry,
	opts ...Option,
) *Orchestrator {
	if logger == nil {
		logger = log.New().WithField("component", "orchestration")
	}
	o := &Orchestrator{
		dispatcher:  dispatcher,
		addresses:   addresses,
		checkout:    checkout,
		cart:        cart,
		gateway:     gateway,
		session:     sessionAdapter,
		logger:      logger,
		metrics:     metrics.NewCheckoutMetrics(),
		sessionID:   uuid.NewString(),
		addressJobs: newSerialQueue(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SessionID возвращает идентификатор сессии оркестратора.
func (o *Orchestrator) SessionID() string {
	return o.sessionID
}

// Start подписывает оркестратор на события и запускает последовательный
// worker адресных мутаций. Завершается worker отменой ctx.
func (o *Orchestrator) Start(ctx context.Context) {
	o.ctx = ctx
	o.dispatcher.Subscribe(o.handle)
	go o.addressJobs.run(ctx)
}

// Boot восстанавливает checkout из персистентного снапшота. Снапшот без
// адреса доставки игнорируется: пустой снапшот не должен затирать свежую
// сессию. Вызывается один раз после Start.
func (o *Orchestrator) Boot() {
	snap, ok, err := o.session.Load()
	if err != nil {
		o.logger.WithError(err).Warn("failed to load checkout snapshot, starting fresh")
		return
	}
	if !ok {
		return
	}
	if snap.ShippingAddress == nil {
		o.logger.Debug("snapshot has no shipping address, skipping rehydration")
		return
	}

	o.dispatcher.Dispatch(store.StateRehydrated{Snapshot: snap})
	if o.metrics != nil {
		o.metrics.RecordSnapshotRestore()
	}
	o.publishEvent(kafka.TopicCheckoutEvents, kafka.EventTypeCheckoutRehydrated, map[string]interface{}{
		"active_step": string(snap.ActiveStep),
	})
	o.logger.WithField("active_step", string(snap.ActiveStep)).Info("checkout state rehydrated")
}

// handle — единственная точка входа реакций. Вызывается диспетчером после
// того, как все reducers применили событие.
func (o *Orchestrator) handle(ev store.Event) {
	if o.metrics != nil {
		o.metrics.RecordEventDispatched(ev.EventType())
	}

	switch e := ev.(type) {
	case store.ShippingStepSubmitted:
		o.handleShippingStep(e)

	case store.AddressesLoadRequested:
		o.addressJobs.enqueue(o.loadAddresses)

	case store.AddressCreateRequested:
		o.addressJobs.enqueue(func() { o.createAddress(e) })

	case store.AddressUpdateRequested:
		o.addressJobs.enqueue(func() { o.updateAddress(e) })

	case store.AddressDeleteRequested:
		o.addressJobs.enqueue(func() { o.deleteAddress(e) })

	case store.AddressCreateSucceeded, store.AddressUpdateSucceeded, store.AddressDeleteSucceeded:
		// После любой успешной мутации коллекция перечитывается целиком:
		// клиентскому состоянию здесь предпочитается серверная истина.
		o.dispatcher.Dispatch(store.AddressesLoadRequested{})
		if _, ok := ev.(store.AddressCreateSucceeded); ok {
			o.publishEvent(kafka.TopicCheckoutEvents, kafka.EventTypeAddressSynced, nil)
		}

	case store.AddressUpdateFailed, store.AddressDeleteFailed:
		if o.metrics != nil {
			o.metrics.RecordOptimisticRollback()
		}
		o.publishEvent(kafka.TopicCheckoutEvents, kafka.EventTypeAddressRolledBack, nil)

	case store.ShippingMethodsLoadRequested:
		o.loadShippingMethods(e.Filter)

	case store.OrderSubmitRequested:
		o.submitOrder()

	case store.ShippingAddressSet, store.BillingAddressSet, store.PaymentMethodSet:
		o.persistSnapshot()

	case store.StepNavigated:
		o.persistSnapshot()
		o.publishEvent(kafka.TopicCheckoutEvents, kafka.EventTypeCheckoutStep, map[string]interface{}{
			"step": string(e.Step),
		})

	case store.FlowInitialized:
		o.publishEvent(kafka.TopicCheckoutEvents, kafka.EventTypeCheckoutStarted, nil)

	case store.OrderSubmitSucceeded:
		o.clearSnapshot()
		if o.metrics != nil {
			o.metrics.RecordOrderSubmitCompleted()
		}
		o.publishEvent(kafka.TopicOrderEvents, kafka.EventTypeOrderSubmitted, map[string]interface{}{
			"order_id":     e.Order.ID,
			"amount_minor": e.Order.AmountMinor,
			"currency":     e.Order.Currency,
		})

	case store.FlowReset:
		o.clearSnapshot()
		o.publishEvent(kafka.TopicCheckoutEvents, kafka.EventTypeCheckoutReset, nil)
	}
}

// handleShippingStep разворачивает составную команду шага shipping.
// Сохранение адреса — побочный эффект: его провал не блокирует checkout.
func (o *Orchestrator) handleShippingStep(e store.ShippingStepSubmitted) {
	addr := e.Address
	o.dispatcher.Dispatch(store.ShippingAddressSet{Address: &addr})

	if e.SaveAddress {
		o.dispatcher.Dispatch(store.AddressCreateRequested{
			TempID: domain.NewTempID(),
			Payload: domain.AddressPayload{
				Street:            addr.Street,
				HouseNumber:       addr.HouseNumber,
				PostalCode:        addr.PostalCode,
				City:              addr.City,
				CountryCode:       addr.CountryCode,
				IsDefaultShipping: addr.IsDefaultShipping,
				IsDefaultBilling:  addr.IsDefaultBilling,
			},
		})
	}

	if e.ShouldNavigate {
		o.dispatcher.Dispatch(store.StepNavigated{Step: domain.CheckoutStepPayment})
	}
}

// --- адресные мутации: строго последовательный поток ---

func (o *Orchestrator) loadAddresses() {
	addresses, err := o.gateway.GetAddresses(o.ctx)
	if err != nil {
		msg := o.reportFailure(domain.OpLoadAddresses, err)
		o.dispatcher.Dispatch(store.AddressesLoadFailed{Message: msg})
		return
	}
	o.dispatcher.Dispatch(store.AddressesLoaded{Addresses: addresses})
}

func (o *Orchestrator) createAddress(e store.AddressCreateRequested) {
	created, err := o.gateway.CreateAddress(o.ctx, e.Payload)
	if err != nil {
		msg := o.reportFailure(domain.OpCreateAddress, err)
		o.dispatcher.Dispatch(store.AddressCreateFailed{TempID: e.TempID, Message: msg})
		return
	}
	o.dispatcher.Dispatch(store.AddressCreateSucceeded{TempID: e.TempID, Address: created})
}

func (o *Orchestrator) updateAddress(e store.AddressUpdateRequested) {
	updated, err := o.gateway.UpdateAddress(o.ctx, e.ID, e.Patch)
	if err != nil {
		msg := o.reportFailure(domain.OpUpdateAddress, err)
		o.dispatcher.Dispatch(store.AddressUpdateFailed{ID: e.ID, Message: msg})
		return
	}
	o.dispatcher.Dispatch(store.AddressUpdateSucceeded{ID: e.ID, Address: updated})
}

func (o *Orchestrator) deleteAddress(e store.AddressDeleteRequested) {
	if err := o.gateway.DeleteAddress(o.ctx, e.ID); err != nil {
		msg := o.reportFailure(domain.OpDeleteAddress, err)
		o.dispatcher.Dispatch(store.AddressDeleteFailed{ID: e.ID, Message: msg})
		return
	}
	o.dispatcher.Dispatch(store.AddressDeleteSucceeded{ID: e.ID})
}

// --- потоки "побеждает последний" ---

// loadShippingMethods запрашивает способы доставки. Результат устаревшего
// запроса отбрасывается, если к моменту ответа стартовал более новый.
func (o *Orchestrator) loadShippingMethods(filter domain.ShippingMethodFilter) {
	seq := o.methodsSeq.Add(1)
	go func() {
		methods, err := o.gateway.GetShippingMethods(o.ctx, filter)
		if o.methodsSeq.Load() != seq {
			if o.metrics != nil {
				o.metrics.RecordStaleResultDropped()
			}
			o.logger.WithField("address_id", filter.AddressID).Debug("dropping stale shipping methods result")
			return
		}
		if err != nil {
			msg := o.reportFailure(domain.OpLoadShippingMethods, err)
			o.dispatcher.Dispatch(store.ShippingMethodsLoadFailed{Message: msg})
			return
		}
		o.dispatcher.Dispatch(store.ShippingMethodsLoaded{Methods: methods})
	}()
}

// submitOrder атомарно собирает команду заказа из checkout и корзины.
// Состояние читается в момент обработки события, а не в момент вызова
// интеншена: так в команду не попадают устаревшие захваченные значения.
// Неполная команда прерывает отправку локально, без сетевого вызова.
func (o *Orchestrator) submitOrder() {
	if o.metrics != nil {
		o.metrics.RecordOrderSubmitStarted()
	}

	checkoutState := o.checkout.State()
	cmd := domain.OrderCommand{
		Items:            o.cart.Items(),
		ShippingMethodID: checkoutState.SelectedShippingMethodID,
		PaymentMethodID:  checkoutState.PaymentMethodID,
	}
	if checkoutState.ShippingAddress != nil {
		cmd.ShippingAddressID = checkoutState.ShippingAddress.ID
	}
	if checkoutState.BillingAddress != nil {
		cmd.BillingAddressID = checkoutState.BillingAddress.ID
	}

	if errs := cmd.ValidateInvariants(); len(errs) > 0 {
		if o.metrics != nil {
			o.metrics.RecordOrderSubmitAborted()
		}
		o.logger.WithField("violations", len(errs)).Warn("order submission aborted: command incomplete")
		o.publishEvent(kafka.TopicOrderEvents, kafka.EventTypeOrderAborted, map[string]interface{}{
			"violations": len(errs),
		})
		o.dispatcher.Dispatch(store.OrderSubmitFailed{Message: userMessage(domain.OpSubmitOrder, domain.ErrOrderIncomplete)})
		return
	}

	seq := o.submitSeq.Add(1)
	start := time.Now()
	go func() {
		order, err := o.gateway.SubmitOrder(o.ctx, cmd)
		if o.submitSeq.Load() != seq {
			if o.metrics != nil {
				o.metrics.RecordStaleResultDropped()
			}
			o.logger.Debug("dropping stale order submission result")
			return
		}
		if o.metrics != nil {
			o.metrics.RecordSubmitDuration(time.Since(start))
		}
		if err != nil {
			if o.metrics != nil {
				o.metrics.RecordOrderSubmitFailed()
			}
			msg := o.reportFailure(domain.OpSubmitOrder, err)
			o.publishEvent(kafka.TopicOrderEvents, kafka.EventTypeOrderFailed, nil)
			o.dispatcher.Dispatch(store.OrderSubmitFailed{Message: msg})
			return
		}
		o.logger.WithField("order_id", order.ID).Info("order submitted")
		o.dispatcher.Dispatch(store.OrderSubmitSucceeded{Order: order})
	}()
}

// --- персистентность снапшота ---

// persistSnapshot сохраняет снимок после зафиксированного решения
// пользователя; транзитные in-flight состояния в хранилище не попадают.
func (o *Orchestrator) persistSnapshot() {
	if err := o.session.Save(o.checkout.Snapshot()); err != nil {
		o.logger.WithError(err).Warn("failed to persist checkout snapshot")
		return
	}
	if o.metrics != nil {
		o.metrics.RecordSnapshotSave()
	}
}

func (o *Orchestrator) clearSnapshot() {
	if err := o.session.Clear(); err != nil {
		o.logger.WithError(err).Warn("failed to clear checkout snapshot")
	}
}

// --- ошибки и публикация ---

// reportFailure логирует сбой, при отказе в авторизации инвалидирует сессию
// и возвращает сообщение для error-поля store.
func (o *Orchestrator) reportFailure(op domain.Operation, err error) string {
	o.logger.WithError(err).WithField("operation", string(op)).Warn("gateway call failed")
	if domain.IsUnauthorized(err) && o.invalidator != nil {
		o.invalidator.InvalidateSession(domain.WrapOp(op, err))
	}
	return userMessage(op, err)
}

// userMessage возвращает обобщённое сообщение для пользователя с тегом
// операции; сырая ошибка транспорта наружу не показывается.
func userMessage(op domain.Operation, err error) string {
	var reason string
	switch op {
	case domain.OpLoadAddresses:
		reason = "failed to load addresses"
	case domain.OpCreateAddress:
		reason = "failed to save address"
	case domain.OpUpdateAddress:
		reason = "failed to update address"
	case domain.OpDeleteAddress:
		reason = "failed to delete address"
	case domain.OpLoadShippingMethods:
		reason = "failed to load shipping methods"
	case domain.OpSubmitOrder:
		if domain.IsValidation(err) {
			reason = "order data incomplete"
		} else {
			reason = "failed to submit order"
		}
	default:
		reason = "operation failed"
	}
	return string(op) + ": " + reason
}

func (o *Orchestrator) publishEvent(topic string, eventType kafka.EventType, metadata map[string]interface{}) {
	if o.producer == nil {
		return // Kafka не настроен, пропускаем
	}

	event := kafka.NewCheckoutEvent(eventType, o.sessionID, metadata)
	if err := o.producer.PublishEvent(topic, o.sessionID, event); err != nil {
		// Логируем и продолжаем: аналитика не должна ломать checkout.
		o.logger.WithError(err).WithField("event_type", string(eventType)).Warn("failed to publish checkout event to kafka")
	}
}
