package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tecnoshop/checkout-service/internal/auth"
	"github.com/tecnoshop/checkout-service/internal/checkout"
	"github.com/tecnoshop/checkout-service/internal/checkout/dto"
	"github.com/tecnoshop/checkout-service/internal/inventory"
	invDto "github.com/tecnoshop/checkout-service/internal/inventory/dto"
	"github.com/tecnoshop/checkout-service/internal/model"
	"github.com/tecnoshop/checkout-service/internal/order"
	"github.com/tecnoshop/checkout-service/internal/payment"
	"github.com/tecnoshop/checkout-service/internal/store"
	"github.com/tecnoshop/checkout-service/pkg/apperror"
	"github.com/tecnoshop/checkout-service/pkg/logger"
	"github.com/tecnoshop/checkout-service/pkg/metrics"
	"github.com/tecnoshop/checkout-service/pkg/middleware"
	"go.uber.org/zap"
)

const (
	stepReleaseStock = "release_stock"
	stepVoidPayment  = "void_payment"
)

type Config struct {
	Currency            string
	Routing             order.RoutingPolicy
	GatewayTimeout      time.Duration
	CompensationTimeout time.Duration
	EventTopic          string
}

type Dependencies struct {
	Verifier  auth.Verifier
	Inventory inventory.UseCase
	Stores    store.Repository
	Orders    order.Repository
	Gateway   payment.Gateway
	Guard     checkout.Guard
	Metrics   *metrics.CheckoutMetrics
	Logger    logger.ZapLogger
}

type checkoutUseCase struct {
	verifier  auth.Verifier
	inventory inventory.UseCase
	stores    store.Repository
	orders    order.Repository
	gateway   payment.Gateway
	guard     checkout.Guard
	metrics   *metrics.CheckoutMetrics
	logger    logger.ZapLogger
	cfg       Config
	now       func() time.Time
}

func NewCheckoutUseCase(deps Dependencies, cfg Config) checkout.UseCase {
	if !cfg.Routing.Valid() {
		cfg.Routing = order.RoutePerStore
	}
	if cfg.CompensationTimeout <= 0 {
		cfg.CompensationTimeout = 10 * time.Second
	}
	return &checkoutUseCase{
		verifier:  deps.Verifier,
		inventory: deps.Inventory,
		stores:    deps.Stores,
		orders:    deps.Orders,
		gateway:   deps.Gateway,
		guard:     deps.Guard,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

type compensation struct {
	step string
	ref  string
	run  func(ctx context.Context) error
}

// attempt tracks one pass through the state machine and the side effects
// that must be undone if it does not reach Completed.
type attempt struct {
	key           string
	state         checkout.State
	log           logger.ZapLogger
	compensations []compensation
}

func (a *attempt) transition(next checkout.State) {
	a.log.Debug("checkout transition",
		zap.String("from", string(a.state)),
		zap.String("checkout_state", string(next)),
	)
	a.state = next
}

func (a *attempt) push(step, ref string, run func(ctx context.Context) error) {
	a.compensations = append(a.compensations, compensation{step: step, ref: ref, run: run})
}

func (uc *checkoutUseCase) Checkout(ctx context.Context, input *dto.CheckoutInput) (result *dto.CheckoutResult, err error) {
	start := uc.now()
	a := &attempt{
		state: checkout.StateAuthenticating,
		log:   uc.logger.With(zap.String("request_id", middleware.RequestID(ctx))),
	}
	defer func() { uc.observe(input, start, result, err) }()

	if input == nil {
		return nil, apperror.InvalidRequest("checkout request is required")
	}

	identity, err := uc.verifier.Verify(ctx, input.Credential)
	if err != nil {
		return nil, uc.fail(ctx, a, err)
	}
	a.log = a.log.With(zap.String("buyer_id", identity.UserID))

	if err := validateInput(input); err != nil {
		return nil, uc.fail(ctx, a, err)
	}

	a.key = attemptKey(identity.UserID, input.IdempotencyKey)
	release, err := uc.guard.Acquire(ctx, a.key)
	if err != nil {
		return nil, uc.fail(ctx, a, err)
	}
	defer release()

	existing, err := uc.orders.FindByIdempotencyKey(ctx, a.key)
	if err != nil {
		return nil, uc.fail(ctx, a, apperror.Wrap(apperror.KindPersistenceError, err, "look up previous attempt"))
	}
	if existing != nil {
		a.log.Info("checkout replayed", zap.String("order_id", existing.ID))
		return uc.result(existing, true), nil
	}

	// Retries of one attempt reuse the order id so the gateway sees
	// identical parameters under the same idempotency key.
	orderID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(a.key)).String()
	a.log = a.log.With(zap.String("order_id", orderID))

	a.transition(checkout.StateReserving)
	reservation, err := uc.inventory.Reserve(ctx, orderID, reservationRequests(input.LineItems))
	if err != nil {
		return nil, uc.fail(ctx, a, err)
	}
	a.push(stepReleaseStock, orderID, func(ctx context.Context) error {
		return uc.inventory.Release(ctx, reservation)
	})

	a.transition(checkout.StatePricing)
	o, splits, err := order.Assemble(order.AssembleInput{
		OrderID:         orderID,
		BuyerID:         identity.UserID,
		IdempotencyKey:  a.key,
		Items:           reservation.Items,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
		Currency:        uc.cfg.Currency,
		Routing:         uc.cfg.Routing,
		Now:             uc.now().UTC(),
	})
	if err != nil {
		return nil, uc.fail(ctx, a, err)
	}

	// A card order whose lines are all free has no split to authorize.
	if o.PaymentMethod.RequiresGateway() && len(splits) > 0 {
		a.transition(checkout.StateAuthorizing)
		if err := uc.authorize(ctx, a, o, splits, input.PaymentMethodRef); err != nil {
			return nil, uc.fail(ctx, a, err)
		}
	}

	a.transition(checkout.StatePersisting)
	event, err := order.NewOrderCreatedRecord(o, uc.cfg.EventTopic)
	if err != nil {
		return nil, uc.fail(ctx, a, apperror.Wrap(apperror.KindInternal, err, "build order event"))
	}
	if err := uc.orders.Create(ctx, o, event); err != nil {
		if errors.Is(err, order.ErrDuplicateIdempotencyKey) {
			return uc.resolveDuplicate(ctx, a)
		}
		return nil, uc.fail(ctx, a, apperror.Wrap(apperror.KindPersistenceError, err, "persist order"))
	}

	a.transition(checkout.StateCompleted)
	a.log.Info("checkout completed",
		zap.Int64("total", o.Total),
		zap.String("payment_method", string(o.PaymentMethod)),
		zap.Int("line_items", len(o.LineItems)),
	)
	return uc.result(o, false), nil
}

// authorize resolves every destination account before calling the gateway,
// then authorizes each split in order. Each accepted authorization pushes
// its own void.
func (uc *checkoutUseCase) authorize(ctx context.Context, a *attempt, o *model.Order, splits []order.PaymentSplit, methodRef string) error {
	accounts := make([]string, len(splits))
	for i, split := range splits {
		s, err := uc.stores.FindByID(ctx, split.StoreID)
		if err != nil {
			return apperror.Wrap(apperror.KindPersistenceError, err, "load store")
		}
		if s.PaymentAccount() == "" {
			return apperror.PaymentAccountNotConfigured(split.StoreID)
		}
		accounts[i] = s.PaymentAccount()
	}

	for i, split := range splits {
		gatewayKey := a.key + ":" + split.StoreID
		req := payment.AuthorizeRequest{
			AmountMinorUnits:      split.Amount,
			Currency:              o.Currency,
			PaymentMethodRef:      methodRef,
			DestinationAccountRef: accounts[i],
			IdempotencyKey:        gatewayKey,
			Metadata: map[string]string{
				"order_id":         o.ID,
				"buyer_id":         o.BuyerID,
				"store_id":         split.StoreID,
				"shipping_address": o.ShippingAddress,
				"order_total":      model.FormatMinor(o.Total),
			},
		}

		res, err := uc.callGateway(ctx, req)
		if err != nil {
			return err
		}

		switch res.Status {
		case payment.StatusSucceeded, payment.StatusPending:
			accepted := res
			a.push(stepVoidPayment, res.AuthorizationID, func(ctx context.Context) error {
				return uc.gateway.Void(ctx, accepted, gatewayKey)
			})
		case payment.StatusFailed:
			e := apperror.Newf(apperror.KindPaymentDeclined, "payment declined: %s", res.DeclineReason)
			e.StoreID = split.StoreID
			return e
		default:
			return apperror.Newf(apperror.KindGatewayError, "unexpected authorization status %q", res.Status)
		}

		o.Payments = append(o.Payments, model.OrderPayment{
			OrderID:         o.ID,
			StoreID:         split.StoreID,
			Amount:          split.Amount,
			AuthorizationID: res.AuthorizationID,
			Status:          model.PaymentStatus(res.Status),
			ClientSecret:    res.ClientSecret,
		})
	}

	if len(o.Payments) > 0 {
		id := o.Payments[0].AuthorizationID
		o.PaymentAuthorizationID = &id
	}
	return nil
}

func (uc *checkoutUseCase) callGateway(ctx context.Context, req payment.AuthorizeRequest) (payment.AuthorizationResult, error) {
	if uc.cfg.GatewayTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.cfg.GatewayTimeout)
		defer cancel()
	}

	res, err := uc.gateway.Authorize(ctx, req)
	if err == nil {
		return res, nil
	}
	if _, ok := apperror.As(err); ok {
		return res, err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return res, apperror.Wrap(apperror.KindGatewayError, err, "payment gateway timed out")
	}
	return res, apperror.Wrap(apperror.KindGatewayError, err, "payment gateway call failed")
}

// resolveDuplicate handles losing an insert race to another attempt with
// the same key: undo this attempt and answer with the stored order. Voids
// for authorizations the stored order also references are skipped since the
// gateway returned the same authorization to both attempts.
func (uc *checkoutUseCase) resolveDuplicate(ctx context.Context, a *attempt) (*dto.CheckoutResult, error) {
	existing, err := uc.orders.FindByIdempotencyKey(ctx, a.key)
	if err != nil || existing == nil {
		if err == nil {
			err = errors.New("duplicate key reported but no order found")
		}
		return nil, uc.fail(ctx, a, apperror.Wrap(apperror.KindPersistenceError, err, "load concurrent order"))
	}

	shared := map[string]bool{}
	for _, p := range existing.Payments {
		shared[p.AuthorizationID] = true
	}
	kept := a.compensations[:0]
	for _, c := range a.compensations {
		if c.step == stepVoidPayment && shared[c.ref] {
			continue
		}
		kept = append(kept, c)
	}
	a.compensations = kept

	uc.compensate(ctx, a)
	a.log.Warn("checkout lost race to concurrent attempt", zap.String("existing_order_id", existing.ID))
	return uc.result(existing, true), nil
}

// fail moves the attempt to Failed, runs its compensations and returns err
// unchanged so the caller sees the original reason.
func (uc *checkoutUseCase) fail(ctx context.Context, a *attempt, err error) error {
	kind := apperror.KindOf(err)
	fields := []zap.Field{
		zap.String("checkout_state", string(a.state)),
		zap.String("reason", string(kind)),
		zap.Error(err),
	}
	switch kind {
	case apperror.KindGatewayError, apperror.KindPersistenceError, apperror.KindInternal:
		a.log.Error("checkout failed", fields...)
	default:
		a.log.Info("checkout failed", fields...)
	}

	a.state = checkout.StateFailed
	uc.compensate(ctx, a)
	return err
}

// compensate runs pending compensations in reverse on a context detached
// from the caller, so a cancelled request still gets its effects undone.
func (uc *checkoutUseCase) compensate(ctx context.Context, a *attempt) {
	if len(a.compensations) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.cfg.CompensationTimeout)
	defer cancel()

	for i := len(a.compensations) - 1; i >= 0; i-- {
		c := a.compensations[i]
		outcome := "ok"
		if err := c.run(ctx); err != nil {
			outcome = "error"
			a.log.Error("compensation failed",
				zap.String("step", c.step),
				zap.String("ref", c.ref),
				zap.Error(err),
			)
		}
		if uc.metrics != nil {
			uc.metrics.Compensations.WithLabelValues(c.step, outcome).Inc()
		}
	}
	a.compensations = nil
}

func (uc *checkoutUseCase) GetOrder(ctx context.Context, credential, orderID string) (*model.Order, error) {
	identity, err := uc.verifier.Verify(ctx, credential)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(orderID) == "" {
		return nil, apperror.InvalidRequest("order id is required")
	}
	// Order ids are UUIDs; anything else cannot name a stored order.
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, apperror.New(apperror.KindOrderNotFound, "order not found")
	}

	o, err := uc.orders.FindByID(ctx, orderID)
	if err != nil {
		uc.logger.Error("failed to load order", zap.String("order_id", orderID), zap.Error(err))
		return nil, apperror.Wrap(apperror.KindPersistenceError, err, "load order")
	}
	if o == nil || o.BuyerID != identity.UserID {
		return nil, apperror.New(apperror.KindOrderNotFound, "order not found")
	}
	return o, nil
}

// result builds the response from the order itself, so a replay carries the
// same client secrets as the first answer.
func (uc *checkoutUseCase) result(o *model.Order, replayed bool) *dto.CheckoutResult {
	res := &dto.CheckoutResult{
		OrderID:      o.ID,
		Total:        o.Total,
		TotalDisplay: model.FormatMinor(o.Total),
		Currency:     o.Currency,
		Replayed:     replayed,
	}
	for _, p := range o.Payments {
		if p.ClientSecret == "" {
			continue
		}
		if res.PaymentClientSecrets == nil {
			res.PaymentClientSecrets = map[string]string{}
			res.PaymentClientSecret = p.ClientSecret
		}
		res.PaymentClientSecrets[p.StoreID] = p.ClientSecret
	}
	return res
}

func (uc *checkoutUseCase) observe(input *dto.CheckoutInput, start time.Time, res *dto.CheckoutResult, err error) {
	if uc.metrics == nil {
		return
	}
	outcome := "completed"
	switch {
	case err != nil:
		outcome = strings.ToLower(string(apperror.KindOf(err)))
	case res != nil && res.Replayed:
		outcome = "replayed"
	}
	method := "unknown"
	if input != nil && input.PaymentMethod.Valid() {
		method = string(input.PaymentMethod)
	}
	uc.metrics.Attempts.WithLabelValues(outcome).Inc()
	uc.metrics.Duration.WithLabelValues(method).Observe(uc.now().Sub(start).Seconds())
}

func validateInput(input *dto.CheckoutInput) error {
	if len(input.LineItems) == 0 {
		return apperror.InvalidRequest("cart has no line items")
	}
	for i, item := range input.LineItems {
		if strings.TrimSpace(item.ProductID) == "" {
			return apperror.InvalidRequest("line item %d has no product id", i)
		}
		if item.Quantity <= 0 {
			return apperror.InvalidRequest("line item %d quantity must be positive", i)
		}
	}
	if !input.PaymentMethod.Valid() {
		return apperror.InvalidRequest("unsupported payment method %q", input.PaymentMethod)
	}
	if input.PaymentMethod.RequiresGateway() && strings.TrimSpace(input.PaymentMethodRef) == "" {
		return apperror.InvalidRequest("payment method reference is required for card payments")
	}
	if strings.TrimSpace(input.ShippingAddress) == "" {
		return apperror.InvalidRequest("shipping address is required")
	}
	return nil
}

// attemptKey scopes a caller key to the buyer so two buyers can never
// collide. Without a caller key every call is its own attempt.
func attemptKey(buyerID, callerKey string) string {
	callerKey = strings.TrimSpace(callerKey)
	if callerKey == "" {
		return uuid.New().String()
	}
	sum := sha256.Sum256([]byte(buyerID + ":" + callerKey))
	return hex.EncodeToString(sum[:])
}

func reservationRequests(items []dto.LineItemInput) []invDto.ReservationRequest {
	reqs := make([]invDto.ReservationRequest, 0, len(items))
	for _, item := range items {
		reqs = append(reqs, invDto.ReservationRequest{ProductID: strings.TrimSpace(item.ProductID), Quantity: item.Quantity})
	}
	return reqs
}
