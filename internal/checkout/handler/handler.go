package handler

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/tecnoshop/checkout-service/internal/auth"
	"github.com/tecnoshop/checkout-service/internal/checkout"
	"github.com/tecnoshop/checkout-service/internal/checkout/dto"
	"github.com/tecnoshop/checkout-service/internal/model"
	"github.com/tecnoshop/checkout-service/pkg/apperror"
	"github.com/tecnoshop/checkout-service/pkg/i18n"
	"github.com/tecnoshop/checkout-service/pkg/logger"
	"github.com/tecnoshop/checkout-service/pkg/middleware"
	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const errorDomain = "checkout.tecnoshop"

var _ CheckoutServiceServer = (*CheckoutHandler)(nil)

type CheckoutHandler struct {
	uc     checkout.UseCase
	logger logger.ZapLogger
}

func NewCheckoutHandler(uc checkout.UseCase, log logger.ZapLogger) *CheckoutHandler {
	return &CheckoutHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *CheckoutHandler) Checkout(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var input dto.CheckoutInput
	if err := decode(req, &input); err != nil {
		return nil, h.toStatus(ctx, apperror.InvalidRequest("malformed checkout request"))
	}
	input.Credential = auth.GetCredential(ctx)

	res, err := h.uc.Checkout(ctx, &input)
	if err != nil {
		return nil, h.toStatus(ctx, err)
	}

	out := map[string]any{
		"order_id":      res.OrderID,
		"total":         res.Total,
		"total_display": res.TotalDisplay,
		"currency":      res.Currency,
		"replayed":      res.Replayed,
	}
	if res.PaymentClientSecret != "" {
		out["payment_client_secret"] = res.PaymentClientSecret
	}
	if len(res.PaymentClientSecrets) > 0 {
		secrets := make(map[string]any, len(res.PaymentClientSecrets))
		for storeID, secret := range res.PaymentClientSecrets {
			secrets[storeID] = secret
		}
		out["payment_client_secrets"] = secrets
	}
	return h.encode(ctx, out)
}

func (h *CheckoutHandler) GetOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	orderID := ""
	if v, ok := req.GetFields()["order_id"]; ok {
		orderID = v.GetStringValue()
	}

	o, err := h.uc.GetOrder(ctx, auth.GetCredential(ctx), orderID)
	if err != nil {
		return nil, h.toStatus(ctx, err)
	}
	return h.encode(ctx, mapOrder(o))
}

func mapOrder(o *model.Order) map[string]any {
	items := make([]any, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		items = append(items, map[string]any{
			"product_id": li.ProductID,
			"store_id":   li.StoreID,
			"quantity":   li.Quantity,
			"unit_price": li.UnitPrice,
			"subtotal":   li.Subtotal,
		})
	}
	payments := make([]any, 0, len(o.Payments))
	for _, p := range o.Payments {
		payments = append(payments, map[string]any{
			"store_id":         p.StoreID,
			"amount":           p.Amount,
			"authorization_id": p.AuthorizationID,
			"status":           string(p.Status),
		})
	}

	out := map[string]any{
		"id":               o.ID,
		"buyer_id":         o.BuyerID,
		"payment_method":   string(o.PaymentMethod),
		"shipping_address": o.ShippingAddress,
		"currency":         o.Currency,
		"total":            o.Total,
		"total_display":    model.FormatMinor(o.Total),
		"created_at":       o.CreatedAt.UTC().Format(time.RFC3339),
		"line_items":       items,
		"payments":         payments,
	}
	if o.PaymentAuthorizationID != nil {
		out["payment_authorization_id"] = *o.PaymentAuthorizationID
	}
	return out
}

func (h *CheckoutHandler) encode(ctx context.Context, out map[string]any) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(out)
	if err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
		return nil, h.toStatus(ctx, apperror.Wrap(apperror.KindInternal, err, "encode response"))
	}
	return st, nil
}

// decode maps a Struct request onto dst through its JSON tags.
func decode(req *structpb.Struct, dst any) error {
	raw, err := json.Marshal(req.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// toStatus converts err into a gRPC status with a localized message and an
// ErrorInfo detail whose reason is the error kind.
func (h *CheckoutHandler) toStatus(ctx context.Context, err error) error {
	kind := apperror.KindOf(err)
	data := map[string]any{}
	meta := map[string]string{}
	if appErr, ok := apperror.As(err); ok {
		data["Detail"] = appErr.Message
		if appErr.ProductID != "" {
			data["ProductID"] = appErr.ProductID
			data["Available"] = appErr.Available
			data["Requested"] = appErr.Requested
			meta["product_id"] = appErr.ProductID
			if kind == apperror.KindInsufficientStock {
				meta["available"] = strconv.FormatInt(appErr.Available, 10)
				meta["requested"] = strconv.FormatInt(appErr.Requested, 10)
			}
		}
		if appErr.StoreID != "" {
			meta["store_id"] = appErr.StoreID
		}
	}
	if kind == apperror.KindInternal {
		h.logger.Error("unexpected checkout error",
			zap.String("request_id", middleware.RequestID(ctx)),
			zap.Error(err),
		)
	}

	msg := i18n.Translate(middleware.AcceptLanguage(ctx), string(kind), data)
	st := status.New(codeFor(kind), msg)
	withDetails, detailErr := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   string(kind),
		Domain:   errorDomain,
		Metadata: meta,
	})
	if detailErr != nil {
		return st.Err()
	}
	return withDetails.Err()
}

func codeFor(kind apperror.Kind) codes.Code {
	switch kind {
	case apperror.KindUnauthenticated, apperror.KindInvalidCredential:
		return codes.Unauthenticated
	case apperror.KindInvalidRequest:
		return codes.InvalidArgument
	case apperror.KindProductNotFound, apperror.KindOrderNotFound:
		return codes.NotFound
	case apperror.KindInsufficientStock, apperror.KindPaymentAccountNotConfigured:
		return codes.FailedPrecondition
	case apperror.KindPaymentDeclined:
		return codes.Aborted
	case apperror.KindConflict:
		return codes.AlreadyExists
	case apperror.KindGatewayError:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}
